package fst

import "testing"

func TestBuildSortedFSTGetRoundTrips(t *testing.T) {
	data := map[string]uint64{
		"apple":  1,
		"banana": 2,
		"cherry": 3,
	}

	blob, err := BuildSortedFST(data)
	if err != nil {
		t.Fatalf("BuildSortedFST: %v", err)
	}

	reader, err := OpenIndex(blob)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer reader.Close()

	if got := reader.Len(); got != len(data) {
		t.Fatalf("Len = %d, want %d", got, len(data))
	}

	for k, want := range data {
		got, ok, err := reader.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if !ok {
			t.Fatalf("Get(%q): not found", k)
		}
		if got != want {
			t.Fatalf("Get(%q) = %d, want %d", k, got, want)
		}
	}

	if _, ok, err := reader.Get([]byte("missing")); err != nil || ok {
		t.Fatalf("Get(missing) = (%v, %v), want (_, false)", ok, err)
	}
}

func TestSearchPrefix(t *testing.T) {
	data := map[string]uint64{
		"cat":      1,
		"car":      2,
		"cartoon":  3,
		"dog":      4,
	}

	blob, err := BuildSortedFST(data)
	if err != nil {
		t.Fatalf("BuildSortedFST: %v", err)
	}
	reader, err := OpenIndex(blob)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer reader.Close()

	keys, _, err := reader.SearchPrefix([]byte("car"))
	if err != nil {
		t.Fatalf("SearchPrefix: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys with prefix car, got %v", keys)
	}
}
