// Package query implements the Query Engine (C7, spec §4.6): it opens the
// finalized index artifacts, answers free-text searches with the
// cosine+field-boost+conjunctive+authority composite score, and exposes the
// supplemental C9 vocabulary-suggestion and C10 related-documents
// capabilities. It is grounded on the teacher's pkg/resorank/scorer.go
// (Scorer struct shape: config + indexes + caches + Search/Score methods),
// generalized from BM25F to the spec's fixed scoring formula, and
// pkg/qgram/wand.go's sorted-postings-iteration style for the conjunctive
// intersection.
package query

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/corpusrank/pkg/config"
	"github.com/kittclouds/corpusrank/pkg/ferrors"
	"github.com/kittclouds/corpusrank/pkg/finalize"
	"github.com/kittclouds/corpusrank/pkg/fst"
	"github.com/kittclouds/corpusrank/pkg/logging"
	"github.com/kittclouds/corpusrank/pkg/posting"
	"github.com/kittclouds/corpusrank/pkg/stem"
	"github.com/kittclouds/corpusrank/pkg/suggest"
	"github.com/kittclouds/corpusrank/pkg/text"
	"github.com/kittclouds/corpusrank/pkg/vectorindex"
)

// DocEntry is one document's in-memory record, loaded from documents.csv
// (spec §6).
type DocEntry struct {
	DocID        int64
	URL          string
	VectorLength float64
	Title        string
	Summary      string
	PageRank     float64

	// ordinal is this document's dense index, assigned at load time in
	// docId-ascending order, used by the conjunctive-set Roaring bitmap and
	// by the Vector Neighbors lookup (spec §4.9 feature vectors are keyed
	// by this ordinal, not the raw doc-id).
	ordinal uint32
}

// Result is one ranked hit returned by Search.
type Result struct {
	DocID   int64
	URL     string
	Title   string
	Summary string
	Score   float64
}

// SearchResponse is searchIndex's full return value (spec §4.6 step 9),
// plus the C9 vocabulary-suggestion supplement (spec §4.8).
type SearchResponse struct {
	Results             []Result
	TotalCandidateCount int
	Suggestions         []string
}

// Engine is the Query Engine: it owns every partition file handle for its
// lifetime (spec §5) and must be closed when done.
type Engine struct {
	cfg    config.Config
	stem   stem.Stemmer
	stop   *text.StopwordSet
	logger logging.Logger

	fs     hackpadfs.FS
	folder string

	meta      finalize.Meta
	metaIndex map[string]finalize.MetaIndexEntry
	fstReader *fst.IndexReader // optional accelerated sidecar; nil if absent

	docs        map[int64]*DocEntry
	ordinalToID []int64 // ordinal -> doc-id, ascending docId order

	partitions []hackpadfs.File

	cache *Cache

	suggestIdx *suggest.Index

	vectorPath  string
	vectorStore *vectorindex.Store // lazily loaded, spec §4.9

	ledger Ledger
}

// Ledger is the subset of internal/ledger.Ledger's surface the Query
// Engine depends on (spec §4.6: "appends one row to the C11 build ledger
// ... when a ledger is attached; the ledger is optional").
type Ledger interface {
	RecordQuery(record LedgerQueryRecord) error
}

// LedgerQueryRecord mirrors internal/ledger.QueryRecord's fields, kept as
// a local type so this package doesn't import internal/ledger (which in
// turn would pull in the sqlite driver for every Query Engine user, even
// those that never attach a ledger).
type LedgerQueryRecord struct {
	QueryText      string
	TermCount      int
	CandidateCount int
	TopDocID       *int64
	ElapsedNS      int64
}

// Open initializes a Query Engine: loads meta.json, documents.csv, and
// meta_index.json (plus meta_index.fst if present) fully into memory, and
// opens every partition file as a seekable read handle (spec §4.6 init).
func Open(fs hackpadfs.FS, folder string, cfg config.Config, stemmer stem.Stemmer, stopwords *text.StopwordSet, cacheSize int, cacheStrategy Strategy, logger logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	metaRaw, err := hackpadfs.ReadFile(fs, folder+"/meta.json")
	if err != nil {
		return nil, ferrors.NotFound(fmt.Sprintf("meta.json: %v", err))
	}
	var meta finalize.Meta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, ferrors.Malformed(fmt.Sprintf("meta.json: %v", err))
	}

	docs, ordinalToID, err := loadDocuments(fs, folder)
	if err != nil {
		return nil, err
	}

	metaIndexRaw, err := hackpadfs.ReadFile(fs, folder+"/meta_index.json")
	if err != nil {
		return nil, ferrors.NotFound(fmt.Sprintf("meta_index.json: %v", err))
	}
	var rawIndex map[string][2]int64
	if err := json.Unmarshal(metaIndexRaw, &rawIndex); err != nil {
		return nil, ferrors.Malformed(fmt.Sprintf("meta_index.json: %v", err))
	}
	metaIndex := make(map[string]finalize.MetaIndexEntry, len(rawIndex))
	for term, pair := range rawIndex {
		metaIndex[term] = finalize.MetaIndexEntry{Offset: pair[0], Partition: int(pair[1])}
	}

	var fstReader *fst.IndexReader
	if fstBytes, err := hackpadfs.ReadFile(fs, folder+"/meta_index.fst"); err == nil {
		if r, err := fst.OpenIndex(fstBytes); err == nil {
			fstReader = r
		}
	}

	partitionCount := len(meta.Breakpoints) + 1
	partitions := make([]hackpadfs.File, partitionCount)
	for i := 0; i < partitionCount; i++ {
		path := fmt.Sprintf("%s/%s_%d.csv", folder, meta.Filename, i)
		f, err := hackpadfs.OpenFile(fs, path, hackpadfs.FlagReadOnly, 0)
		if err != nil {
			closePartitions(partitions)
			return nil, ferrors.NotFound(fmt.Sprintf("partition file %s: %v", path, err))
		}
		partitions[i] = f
	}

	vocabulary := make([]string, 0, len(metaIndex))
	for term := range metaIndex {
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)

	return &Engine{
		cfg:         cfg,
		stem:        stemmer,
		stop:        stopwords,
		logger:      logger,
		fs:          fs,
		folder:      folder,
		meta:        meta,
		metaIndex:   metaIndex,
		fstReader:   fstReader,
		docs:        docs,
		ordinalToID: ordinalToID,
		partitions:  partitions,
		cache:       NewCache(cacheSize, cacheStrategy),
		suggestIdx:  suggest.New(vocabulary),
		vectorPath:  folder + "/vectors.hnsw",
	}, nil
}

// AttachLedger sets the optional build ledger that searchIndex records
// query audit rows to (spec §4.6).
func (e *Engine) AttachLedger(l Ledger) { e.ledger = l }

// Close releases every open partition file handle.
func (e *Engine) Close() error {
	closePartitions(e.partitions)
	return nil
}

func closePartitions(files []hackpadfs.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

func loadDocuments(fs hackpadfs.FS, folder string) (map[int64]*DocEntry, []int64, error) {
	raw, err := hackpadfs.ReadFile(fs, folder+"/documents.csv")
	if err != nil {
		return nil, nil, ferrors.NotFound(fmt.Sprintf("documents.csv: %v", err))
	}
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1

	var entries []*DocEntry
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, ferrors.Malformed(fmt.Sprintf("documents.csv: %v", err))
		}
		if len(rec) < 6 {
			return nil, nil, ferrors.Malformed("documents.csv: row with fewer than 6 columns")
		}
		docID, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, nil, ferrors.Malformed(fmt.Sprintf("documents.csv: bad docId %q: %v", rec[0], err))
		}
		vecLen, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, nil, ferrors.Malformed(fmt.Sprintf("documents.csv: bad vectorLength %q: %v", rec[2], err))
		}
		rank, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, nil, ferrors.Malformed(fmt.Sprintf("documents.csv: bad pageRank %q: %v", rec[5], err))
		}
		entries = append(entries, &DocEntry{
			DocID:        docID,
			URL:          rec[1],
			VectorLength: vecLen,
			Title:        rec[3],
			Summary:      rec[4],
			PageRank:     rank,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].DocID < entries[j].DocID })

	docs := make(map[int64]*DocEntry, len(entries))
	ordinalToID := make([]int64, len(entries))
	for i, d := range entries {
		d.ordinal = uint32(i)
		docs[d.DocID] = d
		ordinalToID[i] = d.DocID
	}
	return docs, ordinalToID, nil
}

// termLookup is the per-term result of MetaIndex/cache resolution: the
// term's document frequency and its (possibly r_docs-capped) postings.
type termLookup struct {
	term     string
	df       int
	postings []posting.Posting
}

// resolveTerm implements spec §4.6 step 2: cache-check, then MetaIndex
// lookup (through the FST sidecar when loaded, else the JSON map) + seek +
// parse on miss. A term absent from the MetaIndex yields
// empty postings with df = documentCount-1 (spec §4.6 step 2, §7
// NotIndexed) and is never a fatal error.
func (e *Engine) resolveTerm(term string) (termLookup, error) {
	if df, postings, ok := e.cache.Get(term); ok {
		return termLookup{term: term, df: df, postings: postings}, nil
	}

	var entry finalize.MetaIndexEntry
	var ok bool
	if e.fstReader != nil {
		if v, found, err := e.fstReader.Get([]byte(term)); err == nil && found {
			entry, ok = finalize.UnpackMetaIndexValue(v), true
		}
	}
	if !ok {
		entry, ok = e.metaIndex[term]
	}
	if !ok {
		return termLookup{term: term, df: len(e.docs) - 1}, nil
	}

	if entry.Partition < 0 || entry.Partition >= len(e.partitions) {
		return termLookup{}, ferrors.Invariant(fmt.Sprintf("term %q: partition index %d out of range", term, entry.Partition))
	}

	row, err := readLineAt(e.partitions[entry.Partition], entry.Offset)
	if err != nil {
		return termLookup{}, ferrors.Malformed(fmt.Sprintf("term %q: %v", term, err))
	}

	rec, err := csv.NewReader(strings.NewReader(row)).Read()
	if err != nil {
		return termLookup{}, ferrors.Malformed(fmt.Sprintf("term %q: parse row: %v", term, err))
	}
	if len(rec) < 2 || rec[0] != term {
		return termLookup{}, ferrors.Invariant(fmt.Sprintf("meta-index fidelity violated for term %q", term))
	}

	df, err := strconv.Atoi(rec[1])
	if err != nil {
		return termLookup{}, ferrors.Malformed(fmt.Sprintf("term %q: bad df %q", term, rec[1]))
	}

	postings := make([]posting.Posting, 0, len(rec)-2)
	for _, raw := range rec[2:] {
		var p posting.Posting
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return termLookup{}, ferrors.Malformed(fmt.Sprintf("term %q: bad posting: %v", term, err))
		}
		postings = append(postings, p)
	}
	if len(postings) != df {
		return termLookup{}, ferrors.Invariant(fmt.Sprintf("term %q: |postings|=%d does not match df=%d", term, len(postings), df))
	}

	if e.cfg.RDocs > 0 && len(postings) > e.cfg.RDocs {
		postings = postings[:e.cfg.RDocs]
	}

	e.cache.Put(term, df, postings)
	return termLookup{term: term, df: df, postings: postings}, nil
}

// readLineAt seeks f to offset and reads one newline-terminated line.
func readLineAt(f hackpadfs.File, offset int64) (string, error) {
	seeker, ok := f.(interface {
		Seek(offset int64, whence int) (int64, error)
	})
	if !ok {
		return "", fmt.Errorf("partition file handle does not support Seek")
	}
	if _, err := seeker.Seek(offset, 0); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(f.(interface {
		Read(p []byte) (int, error)
	})).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Search executes searchIndex (spec §4.6). useStopWords controls whether
// configured stopwords are kept in the query: when false they are filtered
// out before scoring, and if that removed at least one term and left fewer
// than KResults results, the search is retried once with them kept.
func (e *Engine) Search(query string, useStopWords bool) (SearchResponse, error) {
	tokens := text.Tokenize(query)
	stemmed := stem.StemAll(e.stem, tokens)

	var droppedAny bool
	terms := stemmed
	if !useStopWords && e.stop != nil {
		terms, droppedAny = e.stop.FilterTokens(stemmed)
	}

	if len(terms) == 0 {
		return SearchResponse{}, nil
	}

	resp, err := e.search(terms)
	if err != nil {
		return SearchResponse{}, err
	}

	if len(resp.Results) < e.cfg.KResults && droppedAny {
		// Retry once with the stopwords kept, per spec §4.6 step 8.
		if retryResp, err := e.search(stemmed); err == nil && len(retryResp.Results) > len(resp.Results) {
			e.logger.Info("search retried with stopwords", "query", query, "before", len(resp.Results), "after", len(retryResp.Results))
			resp = retryResp
		}
	}

	if len(e.metaIndex) > 0 {
		for _, t := range terms {
			if _, ok := e.metaIndex[t]; !ok {
				resp.Suggestions = e.suggestIdx.Suggest(t, 3)
				break
			}
		}
	}

	if e.ledger != nil {
		var topDocID *int64
		if len(resp.Results) > 0 {
			id := resp.Results[0].DocID
			topDocID = &id
		}
		if err := e.ledger.RecordQuery(LedgerQueryRecord{
			QueryText:      query,
			TermCount:      len(terms),
			CandidateCount: resp.TotalCandidateCount,
			TopDocID:       topDocID,
		}); err != nil {
			e.logger.Error("ledger write failed", err, "query", query)
		}
	}

	return resp, nil
}

// search runs steps 2-9 of spec §4.6 over an already tokenized/stemmed
// term list.
func (e *Engine) search(terms []string) (SearchResponse, error) {
	qtf := make(map[string]int)
	var distinctTerms []string
	for _, t := range terms {
		if _, seen := qtf[t]; !seen {
			distinctTerms = append(distinctTerms, t)
		}
		qtf[t]++
	}

	lookups := make(map[string]termLookup, len(distinctTerms))
	for _, t := range distinctTerms {
		lu, err := e.resolveTerm(t)
		if err != nil {
			return SearchResponse{}, err
		}
		lookups[t] = lu
	}

	n := len(e.docs)
	weights := make(map[string]float64, len(distinctTerms))
	qNormSq := 0.0
	for _, t := range distinctTerms {
		df := lookups[t].df
		idf := math.Log10(float64(n) / float64(maxInt(df, 1)))
		w := (1 + math.Log10(float64(qtf[t]))) * idf
		weights[t] = w
		qNormSq += w * w
	}
	qNorm := math.Sqrt(qNormSq)

	cosine := make(map[int64]float64)
	header := make(map[int64]float64)
	title := make(map[int64]float64)
	bold := make(map[int64]float64)

	termBitmaps := make([]*roaring.Bitmap, 0, len(distinctTerms))
	for _, t := range distinctTerms {
		bm := roaring.New()
		for _, p := range lookups[t].postings {
			d, ok := e.docs[p.DocID]
			if !ok {
				continue
			}
			bm.Add(d.ordinal)

			wtq := weights[t]
			if qNorm > 0 {
				cosine[p.DocID] += (wtq / qNorm) * (1 + math.Log10(float64(p.Frequency)))
			}
			if p.Header {
				header[p.DocID]++
			}
			if p.Title {
				title[p.DocID]++
			}
			if p.Bold {
				bold[p.DocID]++
			}
		}
		termBitmaps = append(termBitmaps, bm)
	}

	var conjunctive *roaring.Bitmap
	if len(termBitmaps) > 0 {
		conjunctive = termBitmaps[0].Clone()
		for _, bm := range termBitmaps[1:] {
			conjunctive = roaring.And(conjunctive, bm)
		}
	} else {
		conjunctive = roaring.New()
	}

	w := e.cfg.Weights
	scores := make(map[int64]float64)
	for docID, c := range cosine {
		d, ok := e.docs[docID]
		if !ok || d.VectorLength == 0 {
			continue
		}
		cos := c / d.VectorLength

		conj := 0.0
		if conjunctive.Contains(d.ordinal) {
			conj = 1
		}

		relevance := w.Alpha * (w.Cosine*cos + w.Header*header[docID] + w.Title*title[docID] + w.Bold*bold[docID] + w.Conjunctive*conj)
		scores[docID] = relevance + 1
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 {
			continue
		}
		d := e.docs[docID]
		results = append(results, Result{DocID: docID, URL: d.URL, Title: d.Title, Summary: d.Summary, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	total := len(results)
	if e.cfg.KResults > 0 && len(results) > e.cfg.KResults {
		results = results[:e.cfg.KResults]
	}

	return SearchResponse{Results: results, TotalCandidateCount: total}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RelatedDocuments returns up to k documents nearest docID by feature-vector
// cosine distance (spec §4.9/§4.6). The vector index is loaded lazily on
// first call.
func (e *Engine) RelatedDocuments(docID int64, k int) ([]Result, error) {
	if e.vectorStore == nil {
		store, err := vectorindex.NewStore(e.fs, e.vectorPath)
		if err != nil {
			return nil, ferrors.NotFound(fmt.Sprintf("vectors.hnsw: %v", err))
		}
		e.vectorStore = store
	}

	d, ok := e.docs[docID]
	if !ok {
		return nil, ferrors.NotFound(fmt.Sprintf("document %d", docID))
	}

	vec, ok := e.vectorStore.VectorByKey(d.ordinal)
	if !ok {
		return nil, ferrors.NotFound(fmt.Sprintf("document %d has no stored feature vector", docID))
	}

	neighbors, err := e.vectorStore.Neighbors(vec, k+1)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(neighbors))
	for _, ord := range neighbors {
		if int(ord) >= len(e.ordinalToID) {
			continue
		}
		id := e.ordinalToID[ord]
		if id == docID {
			continue
		}
		doc := e.docs[id]
		out = append(out, Result{DocID: doc.DocID, URL: doc.URL, Title: doc.Title, Summary: doc.Summary})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}
