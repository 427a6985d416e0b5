// Command build drives the index builder end to end (spec §4.2-§4.5):
// walk a dataset, index every page into the Matrix and LinkGraph, compute
// PageRank, and finalize the result into a queryable index folder. It is
// grounded on cmd/storetest/main.go's style: a plain func main, no
// flag-parsing library beyond the standard library's own flag package,
// sequential log.Fatalf on any hard failure, fmt.Println progress lines.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	hackos "github.com/hack-pad/hackpadfs/os"

	"github.com/kittclouds/corpusrank/internal/ledger"
	"github.com/kittclouds/corpusrank/pkg/analysis"
	"github.com/kittclouds/corpusrank/pkg/config"
	"github.com/kittclouds/corpusrank/pkg/dataset"
	"github.com/kittclouds/corpusrank/pkg/docreg"
	"github.com/kittclouds/corpusrank/pkg/finalize"
	"github.com/kittclouds/corpusrank/pkg/htmlparser"
	"github.com/kittclouds/corpusrank/pkg/indexer"
	"github.com/kittclouds/corpusrank/pkg/linkgraph"
	"github.com/kittclouds/corpusrank/pkg/logging"
	"github.com/kittclouds/corpusrank/pkg/matrix"
	"github.com/kittclouds/corpusrank/pkg/pagerank"
	"github.com/kittclouds/corpusrank/pkg/stem"
)

func main() {
	configPath := flag.String("config", "config.ini", "path to config.ini")
	datasetRoot := flag.String("dataset", "dataset", "root directory of *.json corpus files")
	chunkSize := flag.Int("chunk", 5000, "documents per Matrix spill (spec §4.3)")
	ledgerPath := flag.String("ledger", "", "optional path to a build ledger sqlite file (default: <index>/ledger.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("no usable config at %s (%v), using defaults\n", *configPath, err)
		cfg = config.Default()
	}

	logger := logging.New(nil)
	fsys := hackos.NewFS()

	docs := docreg.NewRegistry()
	m, err := matrix.New(fsys, docs, []string{"f", "m", "s"}, cfg.IndexFolder, "index", true)
	if err != nil {
		log.Fatalf("build: matrix.New: %v", err)
	}

	graph := linkgraph.New()
	parser := htmlparser.New(analysis.NewSummarizer())
	ix := indexer.New(parser, stem.Snowball{}, m, docs, graph, cfg.SimThresh, logger)

	walker, err := dataset.NewWalker([]string{*datasetRoot})
	if err != nil {
		log.Fatalf("build: dataset.NewWalker: %v", err)
	}
	fmt.Printf("discovered %d candidate documents under %s\n", walker.Len(), *datasetRoot)

	start := time.Now()
	accepted, err := ix.Run(walker, *chunkSize)
	if err != nil {
		log.Fatalf("build: indexer.Run: %v", err)
	}
	fmt.Printf("accepted %d of %d documents (%d dropped: filetype filter or near-duplicate)\n",
		accepted, walker.Len(), walker.Len()-accepted)

	ranks := pagerank.Compute(graph, cfg.PageRankMaxIters, cfg.DampingFactor)
	fmt.Printf("computed PageRank over %d linked documents\n", graph.Len())

	metaIndex, err := finalize.Run(fsys, m, docs, ranks, ix.TermFreqs, logger)
	if err != nil {
		log.Fatalf("build: finalize.Run: %v", err)
	}
	elapsed := time.Since(start)
	fmt.Printf("finalized %d terms across %d documents in %s\n", len(metaIndex), docs.Len(), elapsed)

	path := *ledgerPath
	if path == "" {
		path = cfg.IndexFolder + "/ledger.db"
	}
	l, err := ledger.Open(path)
	if err != nil {
		logger.Warn("build ledger unavailable, skipping", "path", path, "error", err.Error())
	} else {
		defer l.Close()
		record := ledger.BuildRecord{
			StartedAt:             start.UnixNano(),
			DocumentCount:         accepted,
			DroppedDuplicateCount: walker.Len() - accepted,
			ElapsedNS:             elapsed.Nanoseconds(),
		}
		if err := l.RecordBuild(record); err != nil {
			logger.Warn("build ledger write failed", "error", err.Error())
		}
	}

	fmt.Println("build complete")
}
