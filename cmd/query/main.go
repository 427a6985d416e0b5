// Command query opens a finalized index and answers searches against it
// (spec §4.6): one-shot if a query string is given on the command line,
// otherwise an interactive read-eval-print loop. Grounded on
// cmd/storetest/main.go's style: a plain func main, sequential
// log.Fatalf on setup failure, fmt.Println for results.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	hackos "github.com/hack-pad/hackpadfs/os"

	"github.com/kittclouds/corpusrank/internal/ledger"
	"github.com/kittclouds/corpusrank/pkg/config"
	"github.com/kittclouds/corpusrank/pkg/query"
	"github.com/kittclouds/corpusrank/pkg/stem"
	"github.com/kittclouds/corpusrank/pkg/text"
)

func main() {
	configPath := flag.String("config", "config.ini", "path to config.ini")
	cacheSize := flag.Int("cache", 64, "postings cache capacity")
	ledgerPath := flag.String("ledger", "", "optional path to a build ledger sqlite file (default: <index>/ledger.db)")
	related := flag.Int64("related", 0, "if set, print documents related to this doc-id instead of searching")
	flag.Parse()
	queryText := strings.Join(flag.Args(), " ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("no usable config at %s (%v), using defaults\n", *configPath, err)
		cfg = config.Default()
	}

	stopwords := text.NewStopwordSet(stem.StemAll(stem.Snowball{}, text.DefaultEnglishStopwords()))

	fsys := hackos.NewFS()
	engine, err := query.Open(fsys, cfg.IndexFolder, cfg, stem.Snowball{}, stopwords, *cacheSize, query.Timely, nil)
	if err != nil {
		log.Fatalf("query: open index at %s: %v", cfg.IndexFolder, err)
	}
	defer engine.Close()

	path := *ledgerPath
	if path == "" {
		path = cfg.IndexFolder + "/ledger.db"
	}
	if l, err := ledger.Open(path); err == nil {
		defer l.Close()
		engine.AttachLedger(queryLedger{l})
	}

	if *related > 0 {
		printRelated(engine, *related)
		return
	}
	if queryText != "" {
		runSearch(engine, queryText)
		return
	}

	fmt.Println("interactive query mode; empty line or Ctrl-D to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		runSearch(engine, line)
	}
}

func runSearch(engine *query.Engine, queryText string) {
	start := time.Now()
	resp, err := engine.Search(queryText, false)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}

	fmt.Printf("%d candidates, %d shown, %s\n", resp.TotalCandidateCount, len(resp.Results), time.Since(start))
	for i, r := range resp.Results {
		fmt.Printf("%2d. [%.4f] %s — %s\n", i+1, r.Score, r.Title, r.URL)
		if r.Summary != "" {
			fmt.Printf("      %s\n", r.Summary)
		}
	}
	if len(resp.Suggestions) > 0 {
		fmt.Printf("did you mean: %s\n", strings.Join(resp.Suggestions, ", "))
	}
}

func printRelated(engine *query.Engine, docID int64) {
	related, err := engine.RelatedDocuments(docID, 10)
	if err != nil {
		fmt.Printf("related-documents failed: %v\n", err)
		return
	}
	for i, r := range related {
		fmt.Printf("%2d. %s — %s\n", i+1, r.Title, r.URL)
	}
}

// queryLedger adapts *ledger.Ledger to query.Ledger, converting between
// the two packages' independently-defined (but field-identical) record
// types — pkg/query deliberately avoids importing internal/ledger
// directly (see query.LedgerQueryRecord's doc comment).
type queryLedger struct{ l *ledger.Ledger }

func (q queryLedger) RecordQuery(r query.LedgerQueryRecord) error {
	return q.l.RecordQuery(ledger.QueryRecord{
		QueryText:      r.QueryText,
		TermCount:      r.TermCount,
		CandidateCount: r.CandidateCount,
		TopDocID:       r.TopDocID,
		ElapsedNS:      r.ElapsedNS,
	})
}
