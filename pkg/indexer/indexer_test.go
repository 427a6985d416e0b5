package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"

	"github.com/kittclouds/corpusrank/pkg/dataset"
	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/htmlparser"
	"github.com/kittclouds/corpusrank/pkg/linkgraph"
	"github.com/kittclouds/corpusrank/pkg/logging"
	"github.com/kittclouds/corpusrank/pkg/matrix"
	"github.com/kittclouds/corpusrank/pkg/stem"
)

type upperStemmer struct{}

func (upperStemmer) Stem(token string) string { return token }

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	fs, err := mem.NewFS()
	if err != nil {
		t.Fatal(err)
	}
	docs := docreg.NewRegistry()
	m, err := matrix.New(fs, docs, []string{"m"}, "work", "index", true)
	if err != nil {
		t.Fatal(err)
	}
	graph := linkgraph.New()
	return New(htmlparser.New(nil), upperStemmer{}, m, docs, graph, 0.9, logging.NopLogger{})
}

func writePage(t *testing.T, dir, name, url, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := `{"url":"` + url + `","content":"` + content + `"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexSiteRegistersDocumentAndPostings(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "a.json", "https://a.example/page",
		"<html><body><h1>Cats</h1><p>Cats are great animals.</p></body></html>")

	ix := newTestIndexer(t)
	ok, err := ix.IndexSite(dataset.Site{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected document to be accepted")
	}
	if ix.Docs.Len() != 1 {
		t.Fatalf("expected 1 registered document, got %d", ix.Docs.Len())
	}

	docID := docreg.DocID("https://a.example/page")
	l, ok := ix.Matrix.InMemoryList(ix.Matrix.PartitionIndexOf("Cats"), "Cats")
	if !ok {
		t.Fatal("expected postings for term Cats")
	}
	p, ok := l.Get(docID)
	if !ok {
		t.Fatal("expected a posting for the indexed document")
	}
	if !p.Header {
		t.Fatalf("expected Cats to be flagged as a header term, got %+v", p)
	}

	if freqs, ok := ix.TermFreqs[docID]; !ok || freqs["Cats"] == 0 {
		t.Fatalf("expected TermFreqs[%d] to record a nonzero frequency for 'Cats', got %v", docID, freqs)
	}
}

func TestFiletypeFilterSkipsSilently(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "a.json", "https://a.example/file.txt", "<p>hi</p>")

	ix := newTestIndexer(t)
	ok, err := ix.IndexSite(dataset.Site{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected .txt URL to be skipped")
	}
	if ix.Docs.Len() != 0 {
		t.Fatal("expected no document registered for a skipped URL")
	}
}

func TestDuplicateDetectionDropsSecondCopy(t *testing.T) {
	dir := t.TempDir()
	content := "<p>The quick brown fox jumps over the lazy dog repeatedly every single day without fail</p>"
	path1 := writePage(t, dir, "a.json", "https://a.example/1", content)
	path2 := writePage(t, dir, "b.json", "https://a.example/2", content)

	ix := newTestIndexer(t)
	ok1, err := ix.IndexSite(dataset.Site{Path: path1})
	if err != nil {
		t.Fatal(err)
	}
	if !ok1 {
		t.Fatal("expected first document to be accepted")
	}

	ok2, err := ix.IndexSite(dataset.Site{Path: path2})
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("expected identical second document to be dropped as a duplicate")
	}
	if ix.Docs.Len() != 1 {
		t.Fatalf("expected only 1 registered document, got %d", ix.Docs.Len())
	}
}

func TestLinkGraphUpdatedOnIndex(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "a.json", "https://a.example/1",
		`<p>text</p><a href=\"https://a.example/2\">next</a>`)

	ix := newTestIndexer(t)
	if _, err := ix.IndexSite(dataset.Site{Path: path}); err != nil {
		t.Fatal(err)
	}

	src := docreg.DocID("https://a.example/1")
	if ix.Graph.OutDegree(src) != 1 {
		t.Fatalf("outDegree = %d, want 1", ix.Graph.OutDegree(src))
	}
}
