package query

import "github.com/kittclouds/corpusrank/pkg/posting"

// Strategy selects a cache replacement policy (spec §4.6).
type Strategy int

const (
	// Timely replaces the oldest-inserted entry, circularly by insertion
	// order.
	Timely Strategy = iota
	// Popularity replaces the entry with the lowest hit count, ties broken
	// in favor of the lowest slot index.
	Popularity
)

type cacheEntry struct {
	term     string
	df       int
	postings []posting.Posting
	hits     int
}

// Cache is the fixed-size direct-mapped postings cache (spec §4.6): each
// slot holds one term's (df, postings). Not safe for concurrent use — the
// Query Engine's single-threaded contract (spec §5) covers this.
type Cache struct {
	strategy Strategy
	capacity int

	slots      []*cacheEntry
	byTerm     map[string]int // term -> slot index
	nextInsert int            // circular cursor for Timely
}

// NewCache creates an empty cache of the given capacity and strategy. A
// non-positive capacity disables caching entirely (every lookup misses).
func NewCache(capacity int, strategy Strategy) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		strategy: strategy,
		capacity: capacity,
		slots:    make([]*cacheEntry, capacity),
		byTerm:   make(map[string]int, capacity),
	}
}

// Get returns term's cached (df, postings) and records a hit, or reports a
// miss.
func (c *Cache) Get(term string) (df int, postings []posting.Posting, ok bool) {
	idx, found := c.byTerm[term]
	if !found {
		return 0, nil, false
	}
	entry := c.slots[idx]
	entry.hits++
	return entry.df, entry.postings, true
}

// Put inserts or refreshes term's cached entry.
func (c *Cache) Put(term string, df int, postings []posting.Posting) {
	if c.capacity == 0 {
		return
	}
	if idx, ok := c.byTerm[term]; ok {
		c.slots[idx].df = df
		c.slots[idx].postings = postings
		return
	}

	entry := &cacheEntry{term: term, df: df, postings: postings}

	// Find an empty slot first.
	for i, s := range c.slots {
		if s == nil {
			c.slots[i] = entry
			c.byTerm[term] = i
			return
		}
	}

	// Full: evict per strategy.
	var victim int
	switch c.strategy {
	case Popularity:
		victim = c.lowestHitSlot()
	default: // Timely
		victim = c.nextInsert
		c.nextInsert = (c.nextInsert + 1) % c.capacity
	}

	delete(c.byTerm, c.slots[victim].term)
	c.slots[victim] = entry
	c.byTerm[term] = victim
}

func (c *Cache) lowestHitSlot() int {
	minIdx := 0
	minHits := c.slots[0].hits
	for i, s := range c.slots {
		if s.hits < minHits {
			minHits = s.hits
			minIdx = i
		}
	}
	return minIdx
}

// Len returns the number of occupied slots.
func (c *Cache) Len() int {
	return len(c.byTerm)
}
