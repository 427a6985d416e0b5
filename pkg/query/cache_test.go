package query

import "testing"

func TestCacheGetMissAndPutThenHit(t *testing.T) {
	c := NewCache(2, Timely)

	if _, _, ok := c.Get("cat"); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	c.Put("cat", 3, nil)
	df, _, ok := c.Get("cat")
	if !ok || df != 3 {
		t.Fatalf("Get(cat) = (%d, %v), want (3, true)", df, ok)
	}
}

func TestCacheZeroCapacityNeverCaches(t *testing.T) {
	c := NewCache(0, Timely)
	c.Put("cat", 3, nil)
	if _, _, ok := c.Get("cat"); ok {
		t.Fatalf("expected a zero-capacity cache to never retain entries")
	}
	if c.Len() != 0 {
		t.Fatalf("expected Len() = 0, got %d", c.Len())
	}
}

func TestCacheTimelyEvictsInInsertionOrder(t *testing.T) {
	c := NewCache(2, Timely)
	c.Put("a", 1, nil)
	c.Put("b", 2, nil)
	c.Put("c", 3, nil) // evicts "a", the oldest insert

	if _, _, ok := c.Get("a"); ok {
		t.Fatalf("expected 'a' to have been evicted")
	}
	if _, _, ok := c.Get("b"); !ok {
		t.Fatalf("expected 'b' to still be cached")
	}
	if _, _, ok := c.Get("c"); !ok {
		t.Fatalf("expected 'c' to be cached")
	}
}

func TestCachePopularityEvictsLeastHit(t *testing.T) {
	c := NewCache(2, Popularity)
	c.Put("a", 1, nil)
	c.Put("b", 2, nil)

	// Hit "b" repeatedly so "a" is the least-popular entry.
	c.Get("b")
	c.Get("b")

	c.Put("c", 3, nil) // should evict "a", not "b"

	if _, _, ok := c.Get("a"); ok {
		t.Fatalf("expected 'a' (least hit) to have been evicted")
	}
	if _, _, ok := c.Get("b"); !ok {
		t.Fatalf("expected 'b' (most hit) to still be cached")
	}
}

func TestCachePutRefreshesExistingSlotWithoutEviction(t *testing.T) {
	c := NewCache(1, Timely)
	c.Put("a", 1, nil)
	c.Put("a", 99, nil)

	df, _, ok := c.Get("a")
	if !ok || df != 99 {
		t.Fatalf("Get(a) = (%d, %v), want (99, true)", df, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len() = 1, got %d", c.Len())
	}
}
