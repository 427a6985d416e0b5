// Package pagerank computes the fixed-iteration PageRank power method over
// a linkgraph.Graph (spec §4.4). No teacher file computes PageRank; the
// plain numeric accumulation style here follows pkg/resorank/scorer.go's
// straight-line float64 loops rather than anything graph-library-shaped —
// the algorithm itself is simple enough that no third-party library in the
// pack or ecosystem improves on a direct implementation of the spec's
// snapshot-update formula.
package pagerank

import "github.com/kittclouds/corpusrank/pkg/linkgraph"

// Compute runs the power method over g for up to min(len(docIDs), maxIters)
// iterations (maxIters<=0 means len(docIDs)), with damping factor d, and
// returns doc-id -> PageRank normalized so the values sum to 1.
//
// The update is a simultaneous snapshot (every R'[i] is computed from the
// previous iteration's R, never the partially-updated R'), runs the full
// fixed iteration count with no early-convergence check, and does not
// redistribute dangling-node mass — all per spec §4.4 and §9.
func Compute(g *linkgraph.Graph, maxIters int, d float64) map[int64]float64 {
	docIDs := g.DocIDs()
	n := len(docIDs)
	if n == 0 {
		return map[int64]float64{}
	}

	iters := maxIters
	if iters <= 0 || iters > n {
		iters = n
	}

	r := make(map[int64]float64, n)
	for _, id := range docIDs {
		r[id] = 1
	}

	for iter := 0; iter < iters; iter++ {
		next := make(map[int64]float64, n)
		for _, id := range docIDs {
			sum := 0.0
			for _, j := range g.Incoming(id) {
				deg := g.OutDegree(j)
				if deg == 0 {
					continue
				}
				sum += r[j] / float64(deg)
			}
			next[id] = (1 - d) + d*sum
		}
		r = next
	}

	total := 0.0
	for _, v := range r {
		total += v
	}
	if total == 0 {
		return r
	}
	for id := range r {
		r[id] /= total
	}
	return r
}
