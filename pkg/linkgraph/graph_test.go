package linkgraph

import (
	"sort"
	"testing"
)

func TestAddOutboundUpdatesOutDegreeAndIncoming(t *testing.T) {
	g := New()
	g.AddOutbound(1, []int64{2, 3, 2})

	if got := g.OutDegree(1); got != 3 {
		t.Fatalf("outDegree(1) = %d, want 3 (counts emissions, not distinct targets)", got)
	}

	in2 := g.Incoming(2)
	if len(in2) != 1 || in2[0] != 1 {
		t.Fatalf("incoming(2) = %v, want [1]", in2)
	}
}

func TestSelfLoop(t *testing.T) {
	g := New()
	g.AddOutbound(1, []int64{1})
	if got := g.OutDegree(1); got != 1 {
		t.Fatalf("outDegree = %d, want 1", got)
	}
	in := g.Incoming(1)
	if len(in) != 1 || in[0] != 1 {
		t.Fatalf("incoming(1) = %v, want [1]", in)
	}
}

func TestDanglingNodeRetained(t *testing.T) {
	g := New()
	g.EnsureDoc(5)
	if g.OutDegree(5) != 0 {
		t.Fatal("expected dangling doc to have outDegree 0")
	}
	ids := g.DocIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 1 || ids[0] != 5 {
		t.Fatalf("DocIDs() = %v, want [5]", ids)
	}
}
