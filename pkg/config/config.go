// Package config loads the engine's config.ini (spec §6): the relevance
// scoring weights, duplicate threshold, result sizing, and PageRank
// parameters shared by the builder and the query engine. No teacher file
// parses configuration — gopkg.in/ini.v1 is pinned here because spec §6
// fixes the format to INI directly and it's the INI library the rest of
// the retrieved pack's search/index-adjacent repos use.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Weights holds the five relevance sub-weights, already normalized to sum
// to 1 (spec §4.6 step 7), plus ALPHA.
type Weights struct {
	Cosine      float64
	Header      float64
	Bold        float64
	Title       float64
	Conjunctive float64
	Alpha       float64
}

// Config is the engine's full runtime configuration.
type Config struct {
	Weights Weights

	SimThresh        float64 // duplicate-detection Hamming-similarity threshold
	KResults         int     // top-k results returned per query
	RDocs            int     // per-term postings cap; <=0 means unlimited
	PageRankMaxIters int     // <=0 means |V|
	DampingFactor    float64
	IndexFolder      string // default index/ directory
}

// Default returns a Config with the engine's documented defaults, used
// when no config.ini is supplied.
func Default() Config {
	return Config{
		Weights: Weights{
			Cosine:      0.4,
			Header:      0.2,
			Bold:        0.1,
			Title:       0.2,
			Conjunctive: 0.1,
			Alpha:       1.0,
		},
		SimThresh:        0.9,
		KResults:         10,
		RDocs:            0,
		PageRankMaxIters: 20,
		DampingFactor:    0.85,
		IndexFolder:      "index",
	}
}

// Load reads config.ini from path, normalizing the five WEIGHTS.* floats
// to sum to 1 (spec §6). Missing keys fall back to Default()'s values.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	weights := f.Section("WEIGHTS")
	cfg.Weights.Cosine = weights.Key("COSINE_SIMILARITY").MustFloat64(cfg.Weights.Cosine)
	cfg.Weights.Header = weights.Key("HEADER").MustFloat64(cfg.Weights.Header)
	cfg.Weights.Bold = weights.Key("BOLD").MustFloat64(cfg.Weights.Bold)
	cfg.Weights.Title = weights.Key("TITLE").MustFloat64(cfg.Weights.Title)
	cfg.Weights.Conjunctive = weights.Key("CONJUNCTIVE").MustFloat64(cfg.Weights.Conjunctive)
	cfg.Weights.Alpha = weights.Key("ALPHA").MustFloat64(cfg.Weights.Alpha)
	normalizeWeights(&cfg.Weights)

	general := f.Section("GENERAL")
	cfg.SimThresh = general.Key("SIM_THRESH").MustFloat64(cfg.SimThresh)
	cfg.KResults = general.Key("KRESULTS").MustInt(cfg.KResults)
	cfg.RDocs = general.Key("RDOCS").MustInt(cfg.RDocs)
	cfg.PageRankMaxIters = general.Key("PAGERANK_MAX_ITERS").MustInt(cfg.PageRankMaxIters)
	cfg.DampingFactor = general.Key("DAMPING_FACTOR").MustFloat64(cfg.DampingFactor)
	cfg.IndexFolder = general.Key("INDEX").MustString(cfg.IndexFolder)

	return cfg, nil
}

// normalizeWeights scales the five relevance sub-weights so they sum to 1,
// leaving them untouched if they sum to exactly zero.
func normalizeWeights(w *Weights) {
	sum := w.Cosine + w.Header + w.Bold + w.Title + w.Conjunctive
	if sum == 0 {
		return
	}
	w.Cosine /= sum
	w.Header /= sum
	w.Bold /= sum
	w.Title /= sum
	w.Conjunctive /= sum
}
