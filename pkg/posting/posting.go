// Package posting defines the Posting record and PostingsList container
// that make up one term's occurrence list inside a Matrix partition (spec
// §3). During construction a PostingsList behaves as a set keyed by doc-id
// with frequency-summing merge; the Finalizer (pkg/finalize) re-sorts it
// into the final on-disk order.
package posting

import "sort"

// Posting represents one (term, document) occurrence.
type Posting struct {
	DocID     int64
	Frequency int
	Header    bool
	Bold      bool
	Title     bool
}

// merge folds other into p: frequencies sum, field flags OR together. Both
// postings must share a DocID; callers enforce that invariant.
func (p *Posting) merge(other Posting) {
	p.Frequency += other.Frequency
	p.Header = p.Header || other.Header
	p.Bold = p.Bold || other.Bold
	p.Title = p.Title || other.Title
}

// List is the ordered sequence of Postings for one term. During build it is
// a set keyed by DocID; Sorted() materializes it in a caller-chosen order.
type List struct {
	byDoc map[int64]*Posting
}

// NewList creates an empty PostingsList.
func NewList() *List {
	return &List{byDoc: make(map[int64]*Posting)}
}

// Add inserts p, merging into any existing posting with the same DocID
// (spec §3 invariant: doc-id is unique within a term's postings list).
func (l *List) Add(p Posting) {
	if existing, ok := l.byDoc[p.DocID]; ok {
		existing.merge(p)
		return
	}
	cp := p
	l.byDoc[p.DocID] = &cp
}

// Get returns the posting for docID, if present.
func (l *List) Get(docID int64) (Posting, bool) {
	p, ok := l.byDoc[docID]
	if !ok {
		return Posting{}, false
	}
	return *p, true
}

// Remove deletes the posting for docID. Returns the removed posting and
// true if it existed.
func (l *List) Remove(docID int64) (Posting, bool) {
	p, ok := l.byDoc[docID]
	if !ok {
		return Posting{}, false
	}
	delete(l.byDoc, docID)
	return *p, true
}

// Len returns the number of distinct documents in this list.
func (l *List) Len() int {
	return len(l.byDoc)
}

// Sorted returns the postings ordered by the given less function. The
// Matrix and the Finalizer call it with an ascending-DocID comparator; the
// final (PageRank desc, tf_norm desc) order is applied by the Finalizer
// itself when it writes a partition file.
func (l *List) Sorted(less func(a, b Posting) bool) []Posting {
	out := make([]Posting, 0, len(l.byDoc))
	for _, p := range l.byDoc {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Merge appends another list's postings into l, combining on shared DocIDs
// exactly like Add. The Finalizer's k-way partial-file merge does not use
// it: that merge concatenates postings without combining them.
func (l *List) Merge(other *List) {
	for _, p := range other.byDoc {
		l.Add(*p)
	}
}
