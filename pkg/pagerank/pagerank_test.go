package pagerank

import (
	"math"
	"testing"

	"github.com/kittclouds/corpusrank/pkg/linkgraph"
)

// TestThreeCycle mirrors the spec's S6 sanity property: a 1->2->3->1 cycle
// with d=0.85 and maxIters=20 (Compute caps this at |V|=3 iterations)
// should leave all three PageRanks equal within tolerance.
func TestThreeCycle(t *testing.T) {
	g := linkgraph.New()
	g.AddOutbound(1, []int64{2})
	g.AddOutbound(2, []int64{3})
	g.AddOutbound(3, []int64{1})

	r := Compute(g, 20, 0.85)

	if len(r) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(r))
	}
	want := r[1]
	for _, id := range []int64{1, 2, 3} {
		if math.Abs(r[id]-want) > 1e-9 {
			t.Fatalf("PageRank(%d) = %v, want ~%v", id, r[id], want)
		}
	}
}

func TestDistributionSumsToOne(t *testing.T) {
	g := linkgraph.New()
	g.AddOutbound(1, []int64{2, 3})
	g.AddOutbound(2, []int64{3})
	g.EnsureDoc(3)

	r := Compute(g, 0, 0.85)
	sum := 0.0
	for _, v := range r {
		sum += v
	}
	if math.Abs(sum-1) >= 1e-9 {
		t.Fatalf("sum of PageRank = %v, want 1 within 1e-9", sum)
	}
}

func TestDanglingNodeContributesNothing(t *testing.T) {
	g := linkgraph.New()
	g.EnsureDoc(1) // dangling, outDegree 0
	g.AddOutbound(2, []int64{1})

	r := Compute(g, 10, 0.85)
	// 1 has no outgoing links, so it never feeds mass back to 2; 2 has no
	// incoming links and keeps only its base (1-d) = 0.15 term, while 1
	// ends at 0.15 + 0.85*0.15, so r[1]/r[2] = 1+d after normalization.
	if r[1] <= 0 {
		t.Fatalf("dangling node should still receive a PageRank > 0, got %v", r[1])
	}
	if math.Abs(r[1]/r[2]-1.85) > 1e-9 {
		t.Fatalf("PageRank(1)/PageRank(2) = %v, want 1.85 (2 keeps only its base term)", r[1]/r[2])
	}
}
