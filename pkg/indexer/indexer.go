// Package indexer drives the build-time pipeline (spec §4.3): Parser over
// a dataset site, stemming, SimHash near-duplicate rejection, Matrix
// insertion, and LinkGraph updates. It is grounded on the teacher's
// QGramIndex construction flow (pkg/qgram/indexer.go's IndexDocumentScoped
// driving sequence: tokenize -> normalize -> per-field accumulate ->
// register), generalized from q-gram accumulation to the spec's
// tokenize/stem/simhash/post pipeline.
package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kittclouds/corpusrank/pkg/dataset"
	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/ferrors"
	"github.com/kittclouds/corpusrank/pkg/htmlparser"
	"github.com/kittclouds/corpusrank/pkg/linkgraph"
	"github.com/kittclouds/corpusrank/pkg/logging"
	"github.com/kittclouds/corpusrank/pkg/matrix"
	"github.com/kittclouds/corpusrank/pkg/posting"
	"github.com/kittclouds/corpusrank/pkg/stem"
	"github.com/kittclouds/corpusrank/pkg/text"
)

// page is the on-disk JSON document shape (spec §6): {"url", "content"}.
type page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// skippedExtensions are URL path suffixes the Indexer silently ignores
// (spec §4.3 step 2), matched case-insensitively.
var skippedExtensions = []string{".txt", ".log", ".xml", ".git"}

// Indexer drives the pipeline described above over a Matrix, Registry, and
// LinkGraph, all three owned exclusively by the builder during construction
// (spec §4.2 "Shared-resource policy").
type Indexer struct {
	Parser  htmlparser.Parser
	Stemmer stem.Stemmer
	Matrix  *matrix.Matrix
	Docs    *docreg.Registry
	Graph   *linkgraph.Graph
	Logger  logging.Logger

	SimThresh float64 // duplicate-detection Hamming-similarity threshold

	// TermFreqs holds each accepted document's stemmed-term frequencies,
	// keyed by docID. The Finalizer uses it to build the C10 Vector
	// Neighbors feature vectors (spec §4.9) once it knows every document's
	// final ordinal; the Indexer itself has no use for it beyond collecting
	// what it already computes for Matrix insertion.
	TermFreqs map[int64]map[string]int

	fingerprints []uint64
}

// New creates an Indexer. logger may be the zero-value logging.NopLogger.
func New(parser htmlparser.Parser, stemmer stem.Stemmer, m *matrix.Matrix, docs *docreg.Registry, graph *linkgraph.Graph, simThresh float64, logger logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Indexer{
		Parser:    parser,
		Stemmer:   stemmer,
		Matrix:    m,
		Docs:      docs,
		Graph:     graph,
		Logger:    logger,
		SimThresh: simThresh,
		TermFreqs: make(map[int64]map[string]int),
	}
}

// IndexSite runs the full per-document pipeline (spec §4.3 steps 1-7) for
// one dataset site. It returns (accepted=false, nil) when the document is
// skipped (filetype filter) or dropped as a near-duplicate — neither is an
// error.
func (ix *Indexer) IndexSite(site dataset.Site) (accepted bool, err error) {
	raw, err := os.ReadFile(site.Path)
	if err != nil {
		return false, ferrors.NotFound(fmt.Sprintf("dataset file %s: %v", site.Path, err))
	}

	var p page
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, ferrors.Malformed(fmt.Sprintf("dataset file %s: %v", site.Path, err))
	}

	canonicalURL := canonicalize(p.URL)
	if hasSkippedExtension(canonicalURL) {
		return false, nil
	}

	parsed, err := ix.Parser.Parse(p.Content)
	if err != nil {
		return false, ferrors.Malformed(fmt.Sprintf("parse %s: %v", canonicalURL, err))
	}

	stemmedTokens := stem.StemAll(ix.Stemmer, parsed.Tokens)
	freqs := text.WordFrequencies(stemmedTokens)

	fingerprint := text.SimHash(freqs)
	if ix.isDuplicate(fingerprint) {
		ix.Logger.Info("dropped near-duplicate document", "url", canonicalURL)
		return false, nil
	}
	ix.fingerprints = append(ix.fingerprints, fingerprint)

	docID := docreg.DocID(canonicalURL)
	ix.Docs.AddDocument(docID, canonicalURL, parsed.Title, parsed.Summary)
	ix.TermFreqs[docID] = freqs

	stemmedHeaders := stemSet(ix.Stemmer, parsed.Headers)
	stemmedBold := stemSet(ix.Stemmer, parsed.Bold)
	stemmedTitles := stemSet(ix.Stemmer, parsed.Titles)

	for term, freq := range freqs {
		_, inHeader := stemmedHeaders[term]
		_, inBold := stemmedBold[term]
		_, inTitle := stemmedTitles[term]
		ix.Matrix.Add(term, posting.Posting{
			DocID:     docID,
			Frequency: freq,
			Header:    inHeader,
			Bold:      inBold,
			Title:     inTitle,
		})
	}

	targets := make([]int64, 0, len(parsed.Links))
	for _, link := range parsed.Links {
		if link == "" {
			continue
		}
		targets = append(targets, docreg.DocID(canonicalize(link)))
	}
	ix.Graph.AddOutbound(docID, targets)
	ix.Graph.EnsureDoc(docID)

	return true, nil
}

// isDuplicate reports whether fingerprint equals, or is within
// Hamming-similarity SimThresh of, any previously accepted fingerprint.
func (ix *Indexer) isDuplicate(fingerprint uint64) bool {
	for _, seen := range ix.fingerprints {
		if seen == fingerprint {
			return true
		}
		if text.SimHashSimilarity(seen, fingerprint) > ix.SimThresh {
			return true
		}
	}
	return false
}

// Run drives the Indexer across every site the Walker yields, spilling the
// Matrix every chunkSize accepted documents and once more at the end of
// the corpus, regardless of where the last chunk boundary fell (spec §4.3:
// "At end of corpus it always spills once more").
func (ix *Indexer) Run(w *dataset.Walker, chunkSize int) (accepted int, err error) {
	sinceSpill := 0
	for {
		site, ok := w.Next()
		if !ok {
			break
		}
		ok, err := ix.IndexSite(site)
		if err != nil {
			return accepted, err
		}
		if !ok {
			continue
		}
		accepted++
		sinceSpill++
		if chunkSize > 0 && sinceSpill >= chunkSize {
			if err := ix.Matrix.Save(); err != nil {
				return accepted, err
			}
			sinceSpill = 0
			ix.Logger.Info("spilled matrix", "accepted", accepted)
		}
	}
	if err := ix.Matrix.Save(); err != nil {
		return accepted, err
	}
	return accepted, nil
}

func canonicalize(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func hasSkippedExtension(canonicalURL string) bool {
	lower := strings.ToLower(canonicalURL)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func stemSet(s stem.Stemmer, tokens map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for t := range tokens {
		out[s.Stem(t)] = struct{}{}
	}
	return out
}
