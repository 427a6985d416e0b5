// Package finalize implements the Finalizer (spec §4.5): it writes
// meta.json and documents.csv, k-way merges every partition's partial
// files into final sorted partition files, builds the MetaIndex (and its
// FST accelerated sidecar), and deletes the partial files. It is grounded
// on pkg/resorank/fst_index.go's BuildFSTIndex (offset-based binary
// encode/decode pattern) for the FST sidecar, and pkg/qgram's partial/merge
// shape for the k-way heap merge.
package finalize

import (
	"bytes"
	"container/heap"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/ferrors"
	"github.com/kittclouds/corpusrank/pkg/fst"
	"github.com/kittclouds/corpusrank/pkg/logging"
	"github.com/kittclouds/corpusrank/pkg/matrix"
	"github.com/kittclouds/corpusrank/pkg/posting"
	"github.com/kittclouds/corpusrank/pkg/vectorindex"
)

// Meta is the contents of meta.json (spec §6).
type Meta struct {
	Filename       string   `json:"filename"`
	DocumentCount  int      `json:"documentCount"`
	Breakpoints    []string `json:"breakpoints"`
}

// MetaIndexEntry is one term's MetaIndex record: the byte offset of the
// start of its line within its partition file, and which partition it
// lives in (spec §6: `{ <term>: [<byte-offset>, <partition-index>], … }`).
type MetaIndexEntry struct {
	Offset    int64
	Partition int
}

// Run executes the Finalizer over m, applying the already-computed
// PageRank values in ranks (doc-id -> PageRank) to docs before writing
// documents.csv. termFreqs, the Indexer's per-document stemmed-term
// frequencies, feeds the C10 Vector Neighbors feature vectors (spec §4.9);
// it may be nil, in which case vectors.hnsw is written empty. Run returns
// the written MetaIndex, also persisted to meta_index.json and
// meta_index.fst.
func Run(fsys hackpadfs.FS, m *matrix.Matrix, docs *docreg.Registry, ranks map[int64]float64, termFreqs map[int64]map[string]int, logger logging.Logger) (map[string]MetaIndexEntry, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	for id, r := range ranks {
		docs.SetPageRank(id, r)
	}

	if err := writeMeta(fsys, m); err != nil {
		return nil, err
	}
	if err := writeDocuments(fsys, m, docs); err != nil {
		return nil, err
	}
	if err := writeVectorIndex(fsys, m, docs, termFreqs); err != nil {
		return nil, err
	}

	metaIndex := make(map[string]MetaIndexEntry)
	for i := 0; i < m.PartitionCount(); i++ {
		if err := finalizePartition(fsys, m, docs, i, metaIndex, logger); err != nil {
			return nil, fmt.Errorf("finalize: partition %d: %w", i, err)
		}
	}

	if err := deletePartialFiles(fsys, m); err != nil {
		return nil, err
	}

	if err := writeMetaIndex(fsys, m, metaIndex); err != nil {
		return nil, err
	}

	logger.Info("finalize complete", "documents", docs.Len(), "terms", len(metaIndex))
	return metaIndex, nil
}

// writeVectorIndex builds the C10 feature-vector store (spec §4.9): each
// document's ordinal is its rank in ascending-DocID order, the same
// assignment the Query Engine recomputes from documents.csv at load time,
// so the two never need to agree through anything but that shared rule.
func writeVectorIndex(fsys hackpadfs.FS, m *matrix.Matrix, docs *docreg.Registry, termFreqs map[int64]map[string]int) error {
	all := docs.All()
	sort.Slice(all, func(i, j int) bool { return all[i].DocID < all[j].DocID })

	store, err := vectorindex.NewStore(fsys, m.Folder()+"/vectors.hnsw")
	if err != nil {
		return err
	}

	for ordinal, d := range all {
		freqs := termFreqs[d.DocID]
		if len(freqs) == 0 {
			continue
		}
		terms := make([]vectorindex.TermFrequency, 0, len(freqs))
		for term, freq := range freqs {
			terms = append(terms, vectorindex.TermFrequency{Term: term, TF: float64(freq)})
		}
		if err := store.Add(uint32(ordinal), vectorindex.FeatureVector(terms)); err != nil {
			return err
		}
	}

	return store.Save()
}

func writeMeta(fsys hackpadfs.FS, m *matrix.Matrix) error {
	meta := Meta{
		Filename:      m.Filename(),
		DocumentCount: 0, // filled by caller via writeDocuments's doc count below
		Breakpoints:   m.Breakpoints(),
	}
	enc, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return hackpadfs.WriteFullFile(fsys, metaPath(m), enc, 0o644)
}

func metaPath(m *matrix.Matrix) string {
	return m.Folder() + "/meta.json"
}

func metaIndexPath(m *matrix.Matrix) string {
	return m.Folder() + "/meta_index.json"
}

func metaIndexFSTPath(m *matrix.Matrix) string {
	return m.Folder() + "/meta_index.fst"
}

// writeDocuments writes documents.csv (spec §6: docId, url, vectorLength,
// title, summary, pageRank) and, since documentCount wasn't known when
// writeMeta ran, rewrites meta.json with the correct count.
func writeDocuments(fsys hackpadfs.FS, m *matrix.Matrix, docs *docreg.Registry) error {
	all := docs.All()
	sort.Slice(all, func(i, j int) bool { return all[i].DocID < all[j].DocID })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, d := range all {
		row := []string{
			fmt.Sprintf("%d", d.DocID),
			d.URL,
			fmt.Sprintf("%g", d.VectorLength()),
			d.Title,
			d.Summary,
			fmt.Sprintf("%g", d.PageRank),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := hackpadfs.WriteFullFile(fsys, m.Folder()+"/documents.csv", buf.Bytes(), 0o644); err != nil {
		return err
	}

	meta := Meta{Filename: m.Filename(), DocumentCount: len(all), Breakpoints: m.Breakpoints()}
	enc, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return hackpadfs.WriteFullFile(fsys, metaPath(m), enc, 0o644)
}

// termRows merges every row from each of sources (already individually
// sorted by term) into a single term-ascending stream, concatenating
// postings for terms that appear in more than one source — spec §4.5 step
// 3 explicitly permits duplicate (term, docID) postings post-merge rather
// than summing them, since chunk boundaries only re-split a document's
// contribution, they never legitimately duplicate it.
func termRows(sources [][]matrix.ReadPartialRow) []matrix.ReadPartialRow {
	h := &rowHeap{}
	cursors := make([]int, len(sources))
	for i, src := range sources {
		if len(src) > 0 {
			heap.Push(h, rowItem{term: src[0].Term, source: i})
		}
	}
	heap.Init(h)

	merged := make(map[string][]posting.Posting)
	var order []string
	for h.Len() > 0 {
		item := heap.Pop(h).(rowItem)
		src := sources[item.source]
		row := src[cursors[item.source]]
		if _, seen := merged[row.Term]; !seen {
			order = append(order, row.Term)
		}
		merged[row.Term] = append(merged[row.Term], row.Postings...)

		cursors[item.source]++
		if cursors[item.source] < len(src) {
			heap.Push(h, rowItem{term: src[cursors[item.source]].Term, source: item.source})
		}
	}

	sort.Strings(order)
	out := make([]matrix.ReadPartialRow, 0, len(order))
	for _, term := range order {
		out = append(out, matrix.ReadPartialRow{Term: term, Postings: merged[term]})
	}
	return out
}

type rowItem struct {
	term   string
	source int
}

type rowHeap []rowItem

func (h rowHeap) Len() int            { return len(h) }
func (h rowHeap) Less(i, j int) bool  { return h[i].term < h[j].term }
func (h rowHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rowHeap) Push(x interface{}) { *h = append(*h, x.(rowItem)) }
func (h *rowHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// finalizePartition merges partition index's partial files (plus any
// still-resident in-memory terms) and writes the final filename_i.csv,
// recording each term's byte offset into metaIndex.
func finalizePartition(fsys hackpadfs.FS, m *matrix.Matrix, docs *docreg.Registry, index int, metaIndex map[string]MetaIndexEntry, logger logging.Logger) error {
	var sources [][]matrix.ReadPartialRow
	for round := 0; round < m.SpillRounds(); round++ {
		path := m.PartialFileName(index, round)
		rows, err := matrix.ReadPartialFile(fsys, path)
		if err != nil {
			return ferrors.Malformed(fmt.Sprintf("partial file %s: %v", path, err))
		}
		sources = append(sources, rows)
	}

	inMemTerms := m.InMemoryTerms(index)
	if len(inMemTerms) > 0 {
		var leftover []matrix.ReadPartialRow
		for _, term := range inMemTerms {
			l, ok := m.InMemoryList(index, term)
			if !ok {
				continue
			}
			leftover = append(leftover, matrix.ReadPartialRow{
				Term:     term,
				Postings: l.Sorted(func(a, b posting.Posting) bool { return a.DocID < b.DocID }),
			})
		}
		sources = append(sources, leftover)
	}

	merged := termRows(sources)

	var buf bytes.Buffer
	for _, row := range merged {
		offset := int64(buf.Len())
		if err := writeFinalRow(&buf, docs, row); err != nil {
			return err
		}
		metaIndex[row.Term] = MetaIndexEntry{Offset: offset, Partition: index}
	}

	if err := hackpadfs.WriteFullFile(fsys, m.FinalFileName(index), buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("finalized partition", "partition", index, "terms", len(merged))
	return nil
}

// writeFinalRow writes one term, |postings|, <json posting>* row to buf,
// with postings sorted by (pageRank desc, tf_norm desc) per spec §4.5
// step 4.
func writeFinalRow(buf *bytes.Buffer, docs *docreg.Registry, row matrix.ReadPartialRow) error {
	l := math.Sqrt(sumSquaredTF(row.Postings))

	type scored struct {
		p       posting.Posting
		rank    float64
		tfNorm  float64
	}
	scoredPostings := make([]scored, len(row.Postings))
	for i, p := range row.Postings {
		tf := 1 + math.Log10(float64(p.Frequency))
		tfNorm := 0.0
		if l > 0 {
			tfNorm = tf / l
		}
		rank := 0.0
		if d := docs.Get(p.DocID); d != nil {
			rank = d.PageRank
		}
		scoredPostings[i] = scored{p: p, rank: rank, tfNorm: tfNorm}
	}
	sort.SliceStable(scoredPostings, func(i, j int) bool {
		if scoredPostings[i].rank != scoredPostings[j].rank {
			return scoredPostings[i].rank > scoredPostings[j].rank
		}
		return scoredPostings[i].tfNorm > scoredPostings[j].tfNorm
	})

	row1 := make([]string, 0, 2+len(scoredPostings))
	row1 = append(row1, row.Term, fmt.Sprintf("%d", len(scoredPostings)))
	for _, sp := range scoredPostings {
		enc, err := json.Marshal(sp.p)
		if err != nil {
			return err
		}
		row1 = append(row1, string(enc))
	}

	w := csv.NewWriter(buf)
	if err := w.Write(row1); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func sumSquaredTF(postings []posting.Posting) float64 {
	sum := 0.0
	for _, p := range postings {
		tf := 1 + math.Log10(float64(p.Frequency))
		sum += tf * tf
	}
	return sum
}

func deletePartialFiles(fsys hackpadfs.FS, m *matrix.Matrix) error {
	for i := 0; i < m.PartitionCount(); i++ {
		for round := 0; round < m.SpillRounds(); round++ {
			path := m.PartialFileName(i, round)
			if err := hackpadfs.Remove(fsys, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeMetaIndex writes meta_index.json (the authoritative record) and
// meta_index.fst (an accelerated, rebuildable sidecar cache, spec §9).
func writeMetaIndex(fsys hackpadfs.FS, m *matrix.Matrix, metaIndex map[string]MetaIndexEntry) error {
	jsonIndex := make(map[string][2]int64, len(metaIndex))
	fstValues := make(map[string]uint64, len(metaIndex))
	for term, entry := range metaIndex {
		jsonIndex[term] = [2]int64{entry.Offset, int64(entry.Partition)}
		fstValues[term] = packMetaIndexValue(entry)
	}

	enc, err := json.Marshal(jsonIndex)
	if err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(fsys, metaIndexPath(m), enc, 0o644); err != nil {
		return err
	}

	fstBytes, err := fst.BuildSortedFST(fstValues)
	if err != nil {
		return err
	}
	return hackpadfs.WriteFullFile(fsys, metaIndexFSTPath(m), fstBytes, 0o644)
}

// packMetaIndexValue packs a MetaIndexEntry into a single uint64 for FST
// storage: the high 16 bits hold the partition index, the low 48 bits the
// byte offset (ample headroom for any realistic index size).
func packMetaIndexValue(e MetaIndexEntry) uint64 {
	return uint64(e.Partition)<<48 | uint64(e.Offset)&0xFFFFFFFFFFFF
}

// UnpackMetaIndexValue reverses packMetaIndexValue, for the Query Engine's
// FST-backed lookup path.
func UnpackMetaIndexValue(v uint64) MetaIndexEntry {
	return MetaIndexEntry{
		Offset:    int64(v & 0xFFFFFFFFFFFF),
		Partition: int(v >> 48),
	}
}
