package vectorindex

import (
	"math"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
)

func TestFeatureVectorIsUnitNorm(t *testing.T) {
	terms := []TermFrequency{
		{Term: "apple", TF: 5},
		{Term: "banana", TF: 3},
		{Term: "cherry", TF: 1},
	}
	vec := FeatureVector(terms)
	if len(vec) != Dimensions {
		t.Fatalf("expected %d dims, got %d", Dimensions, len(vec))
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestFeatureVectorEmptyInput(t *testing.T) {
	vec := FeatureVector(nil)
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected all-zero vector for empty input, got %v", vec)
		}
	}
}

func TestFeatureVectorCapsAtTopTerms(t *testing.T) {
	terms := make([]TermFrequency, 0, 50)
	for i := 0; i < 50; i++ {
		terms = append(terms, TermFrequency{Term: string(rune('a' + i%26)), TF: float64(i + 1)})
	}
	vec := FeatureVector(terms)
	if len(vec) != Dimensions {
		t.Fatalf("expected %d dims, got %d", Dimensions, len(vec))
	}
}

func TestStoreAddAndNeighbors(t *testing.T) {
	fs, err := mem.NewFS()
	if err != nil {
		t.Fatalf("mem.NewFS: %v", err)
	}
	s, err := NewStore(fs, "work/vectors.gob")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	v1 := FeatureVector([]TermFrequency{{Term: "cat", TF: 5}, {Term: "dog", TF: 1}})
	v2 := FeatureVector([]TermFrequency{{Term: "cat", TF: 4}, {Term: "dog", TF: 1}})
	v3 := FeatureVector([]TermFrequency{{Term: "stock", TF: 9}, {Term: "market", TF: 3}})

	if err := s.Add(1, v1); err != nil {
		t.Fatalf("Add(1): %v", err)
	}
	if err := s.Add(2, v2); err != nil {
		t.Fatalf("Add(2): %v", err)
	}
	if err := s.Add(3, v3); err != nil {
		t.Fatalf("Add(3): %v", err)
	}

	neighbors, err := s.Neighbors(v1, 1)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(neighbors) == 0 {
		t.Fatalf("expected at least one neighbor")
	}
}

func TestStoreSaveLoadRoundTrips(t *testing.T) {
	fs, err := mem.NewFS()
	if err != nil {
		t.Fatalf("mem.NewFS: %v", err)
	}

	s, err := NewStore(fs, "vectors.gob")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	v := FeatureVector([]TermFrequency{{Term: "cat", TF: 5}})
	if err := s.Add(1, v); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewStore(fs, "vectors.gob")
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}
	if reloaded.Index.Size() != 1 {
		t.Fatalf("expected reloaded index size 1, got %d", reloaded.Index.Size())
	}
}
