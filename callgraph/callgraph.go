// Package callgraph is the exposed call-graph result type the PTA
// solver builds on the fly: context-sensitive method nodes connected by
// kind-tagged edges at a context-sensitive call site.
//
// Deduplication and DOT export reuse the
// github.com/zboralski/lattice dependency: its string-keyed Graph/Edge
// shape and Dedup() are a natural fit for a diagnostic rendering of the
// call graph once method identities are projected down to label
// strings, even though the solver's own edge bookkeeping (new-edge
// detection during solve()) needs the richer CSMethod/CSCallSite
// identity lattice.Graph doesn't carry.
package callgraph

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"

	"wpa/csmanager"
	"wpa/ir"
)

// Edge is one call-graph edge discovered during solve().
type Edge struct {
	Caller   *csmanager.CSMethod
	CallSite *csmanager.CSCallSite
	Callee   *csmanager.CSMethod
	Kind     ir.InvokeKind
}

type edgeKey struct {
	site   uint32
	callee uint32
}

// Graph is the on-the-fly call graph the PTA solver populates.
type Graph struct {
	nodeSet map[uint32]*csmanager.CSMethod
	edgeSet map[edgeKey]Edge
}

// New returns an empty call graph.
func New() *Graph {
	return &Graph{
		nodeSet: make(map[uint32]*csmanager.CSMethod),
		edgeSet: make(map[edgeKey]Edge),
	}
}

// AddNode registers a reachable method, idempotently.
func (g *Graph) AddNode(m *csmanager.CSMethod) { g.nodeSet[m.ID] = m }

// AddEdge records an edge at a call site, returning true iff it was
// new — the PTA solver gates parameter/return-edge wiring on this, so
// a call is only wired into the caller/callee's var graph once.
func (g *Graph) AddEdge(caller *csmanager.CSMethod, site *csmanager.CSCallSite, callee *csmanager.CSMethod, kind ir.InvokeKind) bool {
	k := edgeKey{site.ID, callee.ID}
	if _, ok := g.edgeSet[k]; ok {
		return false
	}
	g.edgeSet[k] = Edge{Caller: caller, CallSite: site, Callee: callee, Kind: kind}
	return true
}

// Nodes returns every reachable method, in interned-id order
// (deterministic, for reproducible diagnostics).
func (g *Graph) Nodes() []*csmanager.CSMethod {
	out := make([]*csmanager.CSMethod, 0, len(g.nodeSet))
	for _, m := range g.nodeSet {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns every edge, in deterministic (site, callee) order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeSet))
	for _, e := range g.edgeSet {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CallSite.ID != out[j].CallSite.ID {
			return out[i].CallSite.ID < out[j].CallSite.ID
		}
		return out[i].Callee.ID < out[j].Callee.ID
	})
	return out
}

// toLattice projects the call graph down to zboralski/lattice's
// string-keyed shape, which only needs node/edge identity, not the
// full CSMethod/CSCallSite structure — sufficient for dedup and DOT
// rendering.
func (g *Graph) toLattice() *lattice.Graph {
	lg := &lattice.Graph{}
	for _, m := range g.Nodes() {
		lg.Nodes = append(lg.Nodes, label(m))
	}
	for _, e := range g.Edges() {
		lg.Edges = append(lg.Edges, lattice.Edge{
			Caller: label(e.Caller),
			Callee: label(e.Callee),
		})
	}
	lg.Dedup()
	return lg
}

func label(m *csmanager.CSMethod) string {
	return fmt.Sprintf("%s@%d", m.Method.ID, m.ID)
}

// DOT renders the call graph as Graphviz DOT, using lattice's
// deduplicated node/edge set as the source of truth for what to draw.
func (g *Graph) DOT(title string) string {
	lg := g.toLattice()
	var b []byte
	b = append(b, fmt.Sprintf("digraph %q {\n", title)...)
	for _, n := range lg.Nodes {
		b = append(b, fmt.Sprintf("  %q;\n", n)...)
	}
	for _, e := range lg.Edges {
		b = append(b, fmt.Sprintf("  %q -> %q;\n", e.Caller, e.Callee)...)
	}
	b = append(b, "}\n"...)
	return string(b)
}
