// Package matrix implements the Matrix (spec §3/§4.2): the partitioned,
// in-memory inverted index that the Indexer writes into during a build and
// that spills its partitions to disk as the build runs too large to hold in
// RAM. It is grounded on the teacher's QGramIndex (pkg/qgram/indexer.go) —
// same shape of postings-map-plus-document-map — generalized to the spec's
// alphabetic partitioning and disk-spill behavior.
package matrix

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/derekparker/trie/v3"
	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/posting"
)

// Matrix is the partitioned inverted index. Breakpoints divide the term
// space into len(Breakpoints)+1 alphabetic ranges (spec §3); partition i
// holds every term less than Breakpoints[i] (and greater than or equal to
// Breakpoints[i-1]), with the final partition taking everything at or past
// the last breakpoint.
type Matrix struct {
	fs          hackpadfs.FS
	folder      string
	filename    string
	breakpoints []string

	// partitions[i] is the ordered term->PostingsList container for
	// partition i. derekparker/trie gives term lookup and a natural
	// iteration surface; Save still explicitly sorts keys before writing,
	// since the spec's on-disk merge step depends on sorted order and a
	// trie's own traversal order is an implementation detail we don't rely
	// on for correctness.
	partitions []*trie.Trie

	docs *docreg.Registry

	// spillCounter is the next partial-file index P (spec §4.2: "indexed
	// by a monotonic spill counter"). One counter is shared across all
	// partitions so a single Save() round writes matching indices.
	spillCounter int
}

// New creates a Matrix over the given alphabetic breakpoints. If clean is
// true, any existing contents of folder are removed first (fresh build);
// otherwise an existing folder is left alone (resume-from-partial-files is
// the Finalizer's concern, not the Matrix's).
func New(fs hackpadfs.FS, docs *docreg.Registry, breakpoints []string, folder, filename string, clean bool) (*Matrix, error) {
	if !sort.StringsAreSorted(breakpoints) {
		return nil, fmt.Errorf("matrix: breakpoints must be sorted ascending")
	}
	if clean {
		if err := hackpadfs.RemoveAll(fs, folder); err != nil {
			return nil, fmt.Errorf("matrix: clean folder: %w", err)
		}
	}
	if err := hackpadfs.MkdirAll(fs, folder, 0o755); err != nil {
		return nil, fmt.Errorf("matrix: create folder: %w", err)
	}

	partitions := make([]*trie.Trie, len(breakpoints)+1)
	for i := range partitions {
		partitions[i] = trie.New()
	}

	return &Matrix{
		fs:          fs,
		folder:      folder,
		filename:    filename,
		breakpoints: breakpoints,
		partitions:  partitions,
		docs:        docs,
	}, nil
}

// PartitionCount returns the number of alphabetic partitions.
func (m *Matrix) PartitionCount() int { return len(m.partitions) }

// partitionIndex returns the partition holding term, per spec §3: the
// first partition i such that term < breakpoints[i], or the last partition
// if term is at or past every breakpoint.
func (m *Matrix) partitionIndex(term string) int {
	return sort.Search(len(m.breakpoints), func(i int) bool { return term < m.breakpoints[i] })
}

func (m *Matrix) list(partition int, term string) *posting.List {
	t := m.partitions[partition]
	if node, ok := t.Find(term); ok {
		if l, ok := node.Meta().(*posting.List); ok {
			return l
		}
	}
	l := posting.NewList()
	t.Add(term, l)
	return l
}

// Add inserts posting p for term, merging with any existing posting for
// the same doc-id within that term's list (spec §3: dedup-by-docID,
// frequency-summing, field-flag OR). It also credits the document's
// vector-length accumulator with (1+log10(p.Frequency))^2, per Add's
// contract in spec §3 — this runs once per call, matching one distinct
// term occurrence per document.
func (m *Matrix) Add(term string, p posting.Posting) {
	idx := m.partitionIndex(term)
	l := m.list(idx, term)
	l.Add(p)
	if d := m.docs.Get(p.DocID); d != nil {
		d.AddTermWeight(p.Frequency)
	}
}

// RemoveTerm deletes an entire term (and its postings list) from the
// matrix, reporting whether it was present.
func (m *Matrix) RemoveTerm(term string) bool {
	idx := m.partitionIndex(term)
	t := m.partitions[idx]
	if _, ok := t.Find(term); !ok {
		return false
	}
	t.Remove(term)
	return true
}

// RemoveDoc deletes docID's posting from term's list. If that was the
// list's last posting, the term itself is dropped from the partition.
func (m *Matrix) RemoveDoc(term string, docID int64) (posting.Posting, bool) {
	idx := m.partitionIndex(term)
	t := m.partitions[idx]
	node, ok := t.Find(term)
	if !ok {
		return posting.Posting{}, false
	}
	l, ok := node.Meta().(*posting.List)
	if !ok {
		return posting.Posting{}, false
	}
	p, ok := l.Remove(docID)
	if !ok {
		return posting.Posting{}, false
	}
	if l.Len() == 0 {
		t.Remove(term)
	}
	return p, true
}

// PartialFileName returns the path of partition i's partial file for spill
// round p: "<filename>_<i>_partial<p>.csv" under folder, matching the
// Finalizer's load-step naming convention (spec §4.5).
func (m *Matrix) PartialFileName(partition, spillRound int) string {
	return filepath.Join(m.folder, fmt.Sprintf("%s_%d_partial%d.csv", m.filename, partition, spillRound))
}

// SpillRounds returns how many Save() calls have completed, i.e. the
// number of partial files per partition the Finalizer needs to merge.
func (m *Matrix) SpillRounds() int { return m.spillCounter }

// Save spills every partition's current in-memory postings to its partial
// file for this round, then clears the in-memory submatrices so indexing
// can continue within bounded memory (spec §4.2). Rows are written term-
// first in ascending lexical order (explicitly re-sorted, independent of
// the trie's own iteration order) followed by one JSON-encoded Posting per
// column, omitting document frequency — the Finalizer derives df from the
// number of postings when it merges partial files into final ones.
func (m *Matrix) Save() error {
	round := m.spillCounter
	for i, t := range m.partitions {
		if err := m.savePartition(i, t, round); err != nil {
			return fmt.Errorf("matrix: save partition %d round %d: %w", i, round, err)
		}
		m.partitions[i] = trie.New()
	}
	m.spillCounter++
	return nil
}

func (m *Matrix) savePartition(index int, t *trie.Trie, round int) error {
	terms := t.Keys()
	sort.Strings(terms)

	path := m.PartialFileName(index, round)
	f, err := hackpadfs.Create(m.fs, path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(hackpadfsWriter{f})
	for _, term := range terms {
		node, ok := t.Find(term)
		if !ok {
			continue
		}
		l, ok := node.Meta().(*posting.List)
		if !ok {
			continue
		}
		row := make([]string, 0, 1+l.Len())
		row = append(row, term)
		for _, p := range l.Sorted(func(a, b posting.Posting) bool { return a.DocID < b.DocID }) {
			enc, err := json.Marshal(p)
			if err != nil {
				return err
			}
			row = append(row, string(enc))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// hackpadfsWriter adapts a hackpadfs.File to io.Writer for csv.Writer,
// which only needs Write.
type hackpadfsWriter struct {
	f hackpadfs.File
}

func (h hackpadfsWriter) Write(p []byte) (int, error) {
	wf, ok := h.f.(interface{ Write([]byte) (int, error) })
	if !ok {
		return 0, fmt.Errorf("matrix: underlying file does not support Write")
	}
	return wf.Write(p)
}

// ReadPartialRow is one decoded row of a partition partial file: a term
// and its postings, in the order written.
type ReadPartialRow struct {
	Term     string
	Postings []posting.Posting
}

// ReadPartialFile decodes one partial file written by Save, for the
// Finalizer's k-way merge.
func ReadPartialFile(fs hackpadfs.FS, path string) ([]ReadPartialRow, error) {
	content, err := hackpadfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	var rows []ReadPartialRow
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		row := ReadPartialRow{Term: rec[0]}
		for _, raw := range rec[1:] {
			var p posting.Posting
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return nil, fmt.Errorf("matrix: decode posting for term %q: %w", rec[0], err)
			}
			row.Postings = append(row.Postings, p)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PartitionIndexOf exposes partitionIndex for callers (e.g. the Finalizer)
// that need to know which partition a term belongs to without duplicating
// the breakpoint search.
func (m *Matrix) PartitionIndexOf(term string) int { return m.partitionIndex(term) }

// Breakpoints returns the configured alphabetic breakpoints.
func (m *Matrix) Breakpoints() []string { return m.breakpoints }

// Folder returns the matrix's working folder.
func (m *Matrix) Folder() string { return m.folder }

// Filename returns the matrix's base filename stem.
func (m *Matrix) Filename() string { return m.filename }

// FinalFileName returns the path of partition i's finalized file:
// "<filename>_<i>.csv" under folder (spec §4.5).
func (m *Matrix) FinalFileName(partition int) string {
	return filepath.Join(m.folder, fmt.Sprintf("%s_%d.csv", m.filename, partition))
}

// InMemoryTerms returns, for partition i, the terms currently resident in
// memory (not yet spilled), sorted ascending. Used by the Finalizer to
// fold the last in-memory round into the merge alongside partial files.
func (m *Matrix) InMemoryTerms(partition int) []string {
	terms := m.partitions[partition].Keys()
	sort.Strings(terms)
	return terms
}

// InMemoryList returns partition i's in-memory postings list for term, if
// present.
func (m *Matrix) InMemoryList(partition int, term string) (*posting.List, bool) {
	node, ok := m.partitions[partition].Find(term)
	if !ok {
		return nil, false
	}
	l, ok := node.Meta().(*posting.List)
	return l, ok
}
