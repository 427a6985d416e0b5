// Package linkgraph holds the directed link graph the Indexer builds
// during a crawl (spec §3: "LinkGraph"); the PageRank power-iteration
// computer that consumes it lives in pkg/pagerank. It is grounded on the teacher's
// ConceptGraph (pkg/graph/graph.go) — the same "node map plus adjacency"
// shape — re-keyed from string entity IDs to int64 doc-ids and trimmed of
// the narrative-specific edge modifiers (Manner/Location/Time/Recipient),
// which have no meaning for a hyperlink.
package linkgraph

import "github.com/bits-and-blooms/bitset"

// node is one doc-id's entry: its incoming set and out-degree.
type node struct {
	incoming  *bitset.BitSet // indexed by dense ordinal, not raw doc-id
	outDegree int
}

// Graph is the directed link graph, keyed by doc-id (spec §3). Self-loops
// and duplicate outbound links (outDegree counts link emissions, not
// distinct targets) are both permitted.
type Graph struct {
	nodes map[int64]*node

	// ordinal assigns each doc-id a dense index so incoming sets can use a
	// bitset instead of an unbounded-by-raw-docID array (doc-ids are
	// 64-bit hashes, not small integers).
	ordinal    map[int64]uint
	ordinalRev []int64
}

// New creates an empty link graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[int64]*node),
		ordinal: make(map[int64]uint),
	}
}

func (g *Graph) ensure(docID int64) *node {
	if n, ok := g.nodes[docID]; ok {
		return n
	}
	g.ordinal[docID] = uint(len(g.ordinalRev))
	g.ordinalRev = append(g.ordinalRev, docID)
	n := &node{incoming: bitset.New(0)}
	g.nodes[docID] = n
	return n
}

// AddOutbound records that source emitted len(targets) links, updating
// source's outDegree and every target's incoming set (spec §4.3 step 7).
// A target is added to the graph (with outDegree 0) the first time it's
// seen as a link destination, even if it's never indexed as a source
// itself (a dangling reference).
func (g *Graph) AddOutbound(source int64, targets []int64) {
	src := g.ensure(source)
	src.outDegree += len(targets)
	srcOrd := g.ordinal[source]
	for _, t := range targets {
		tn := g.ensure(t)
		tn.incoming.Set(srcOrd)
	}
}

// EnsureDoc registers docID with zero out-degree if not already present,
// so isolated documents (no outbound or inbound links) still get a
// PageRank value.
func (g *Graph) EnsureDoc(docID int64) {
	g.ensure(docID)
}

// OutDegree returns docID's recorded out-degree.
func (g *Graph) OutDegree(docID int64) int {
	if n, ok := g.nodes[docID]; ok {
		return n.outDegree
	}
	return 0
}

// Incoming returns the doc-ids with an outbound link to docID.
func (g *Graph) Incoming(docID int64) []int64 {
	n, ok := g.nodes[docID]
	if !ok {
		return nil
	}
	out := make([]int64, 0, n.incoming.Count())
	for i, ok := n.incoming.NextSet(0); ok; i, ok = n.incoming.NextSet(i + 1) {
		out = append(out, g.ordinalRev[i])
	}
	return out
}

// DocIDs returns every doc-id known to the graph, order unspecified.
func (g *Graph) DocIDs() []int64 {
	out := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	return out
}

// Len returns the number of doc-ids recorded in the graph.
func (g *Graph) Len() int { return len(g.nodes) }
