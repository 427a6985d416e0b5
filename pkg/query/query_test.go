package query

import (
	"testing"

	"github.com/hack-pad/hackpadfs/mem"

	"github.com/kittclouds/corpusrank/pkg/config"
	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/finalize"
	"github.com/kittclouds/corpusrank/pkg/linkgraph"
	"github.com/kittclouds/corpusrank/pkg/matrix"
	"github.com/kittclouds/corpusrank/pkg/pagerank"
	"github.com/kittclouds/corpusrank/pkg/posting"
	"github.com/kittclouds/corpusrank/pkg/stem"
)

type fakeStemmer struct{}

func (fakeStemmer) Stem(token string) string { return token }

func buildFixture(t *testing.T) *Engine {
	t.Helper()

	fs, err := mem.NewFS()
	if err != nil {
		t.Fatalf("mem.NewFS: %v", err)
	}
	docs := docreg.NewRegistry()
	m, err := matrix.New(fs, docs, []string{"m"}, "work", "index", true)
	if err != nil {
		t.Fatalf("matrix.New: %v", err)
	}

	dCat := docreg.DocID("https://a.example/cat")
	dDog := docreg.DocID("https://a.example/dog")
	dBoth := docreg.DocID("https://a.example/both")

	catDoc := docs.AddDocument(dCat, "https://a.example/cat", "All About Cats", "a page about cats")
	dogDoc := docs.AddDocument(dDog, "https://a.example/dog", "All About Dogs", "a page about dogs")
	bothDoc := docs.AddDocument(dBoth, "https://a.example/both", "Cats and Dogs", "pets of all kinds")

	add := func(term string, docID int64, doc *docreg.Document, freq int, header, bold, title bool) {
		m.Add(term, posting.Posting{DocID: docID, Frequency: freq, Header: header, Bold: bold, Title: title})
		doc.AddTermWeight(freq)
	}

	add("cat", dCat, catDoc, 5, true, false, true)
	add("cat", dBoth, bothDoc, 2, false, false, true)
	add("dog", dDog, dogDoc, 5, true, false, true)
	add("dog", dBoth, bothDoc, 2, false, false, true)
	add("pet", dBoth, bothDoc, 3, false, true, false)

	g := linkgraph.New()
	g.EnsureDoc(dCat)
	g.EnsureDoc(dDog)
	g.EnsureDoc(dBoth)
	ranks := pagerank.Compute(g, 10, 0.85)

	termFreqs := map[int64]map[string]int{
		dCat:  {"cat": 5},
		dDog:  {"dog": 5},
		dBoth: {"cat": 2, "dog": 2, "pet": 3},
	}

	if _, err := finalize.Run(fs, m, docs, ranks, termFreqs, nil); err != nil {
		t.Fatalf("finalize.Run: %v", err)
	}

	cfg := config.Default()
	cfg.KResults = 10
	engine, err := Open(fs, "work", cfg, fakeStemmer{}, nil, 8, Timely, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestSearchExactSingleTermMatch(t *testing.T) {
	e := buildFixture(t)

	resp, err := e.Search("cat", true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatalf("expected at least one result for 'cat'")
	}
	found := false
	for _, r := range resp.Results {
		if r.URL == "https://a.example/cat" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cat document among results, got %+v", resp.Results)
	}
}

func TestSearchConjunctiveRankingPrefersBothTerms(t *testing.T) {
	e := buildFixture(t)

	resp, err := e.Search("cat dog", true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatalf("expected results for 'cat dog'")
	}
	if resp.Results[0].URL != "https://a.example/both" {
		t.Fatalf("expected the document containing both terms to rank first, got %+v", resp.Results[0])
	}
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	e := buildFixture(t)

	resp, err := e.Search("   ", true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results for an empty query, got %+v", resp.Results)
	}
}

func TestSearchUnknownTermYieldsSuggestion(t *testing.T) {
	e := buildFixture(t)

	resp, err := e.Search("catt", true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Suggestions) == 0 {
		t.Fatalf("expected a vocabulary suggestion for the unindexed term 'catt'")
	}
}

func TestResolveTermCachesAcrossCalls(t *testing.T) {
	e := buildFixture(t)

	if _, err := e.Search("cat", true); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if e.cache.Len() == 0 {
		t.Fatalf("expected the postings cache to be populated after a search")
	}

	lu, err := e.resolveTerm("cat")
	if err != nil {
		t.Fatalf("resolveTerm: %v", err)
	}
	if lu.df == 0 {
		t.Fatalf("expected a nonzero document frequency for 'cat'")
	}
}

func TestRelatedDocumentsFindsNeighborsByFeatureVector(t *testing.T) {
	e := buildFixture(t)

	bothID := docreg.DocID("https://a.example/both")
	results, err := e.RelatedDocuments(bothID, 2)
	if err != nil {
		t.Fatalf("RelatedDocuments: %v", err)
	}
	for _, r := range results {
		if r.URL == "https://a.example/both" {
			t.Fatalf("expected the query document to be excluded from its own neighbors, got %+v", results)
		}
	}
}

func TestStemAllIsIdentityForFakeStemmer(t *testing.T) {
	out := stem.StemAll(fakeStemmer{}, []string{"Cats", "Dogs"})
	if out[0] != "Cats" || out[1] != "Dogs" {
		t.Fatalf("expected identity stemming, got %v", out)
	}
}
