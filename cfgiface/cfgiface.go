// Package cfgiface defines the consumed Graph/ICFG contracts plus a
// small in-memory Builder sufficient for tests and the demo CLI.
//
// Builder is grounded on a three-phase leader/partition CFG
// construction algorithm (find leaders → partition into blocks →
// compute successor edges from each block's last instruction),
// generalized from machine instructions to ir.Stmt and from
// basic-block successors to per-statement successors, since the
// dataflow engine exposes getInFact/getOutFact per statement, not per
// block.
package cfgiface

import (
	"fmt"
	"sort"

	"wpa/ir"
)

// EdgeKind tags a CFG/ICFG edge.
type EdgeKind int

const (
	NORMAL EdgeKind = iota
	IF_TRUE
	IF_FALSE
	SWITCH_CASE
	SWITCH_DEFAULT
	CALL
	CALL_TO_RETURN
	RETURN
)

func (k EdgeKind) String() string {
	switch k {
	case NORMAL:
		return "NORMAL"
	case IF_TRUE:
		return "IF_TRUE"
	case IF_FALSE:
		return "IF_FALSE"
	case SWITCH_CASE:
		return "SWITCH_CASE"
	case SWITCH_DEFAULT:
		return "SWITCH_DEFAULT"
	case CALL:
		return "CALL"
	case CALL_TO_RETURN:
		return "CALL_TO_RETURN"
	case RETURN:
		return "RETURN"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Edge is one successor/predecessor edge, qualified by kind. CaseValue
// is only meaningful when Kind == SWITCH_CASE. Aux is an opaque,
// edge-kind-specific payload interprocedural builders may attach (e.g.
// icp stashes the callee's parameter list on a CALL edge, and the
// caller's result variable on a RETURN edge) so a generic
// dataflow.EdgeTransfer can act on one edge without needing the whole
// call graph in scope.
type Edge struct {
	Stmt      ir.Stmt
	Kind      EdgeKind
	CaseValue int32
	Aux       any
}

// Graph is the consumed intraprocedural CFG contract: entry/exit plus
// per-statement successor/predecessor edges.
type Graph interface {
	Entry() ir.Stmt
	Exits() []ir.Stmt
	Stmts() []ir.Stmt
	Succs(ir.Stmt) []Edge
	Preds(ir.Stmt) []Edge
}

// ICFG additionally exposes the interprocedural CALL/CALL_TO_RETURN/
// RETURN edges that let the dataflow engine cross method boundaries at
// invoke statements.
type ICFG interface {
	Graph
	CFGOf(m *ir.Method) Graph
}

// concreteGraph is the in-memory Builder output.
type concreteGraph struct {
	entry ir.Stmt
	exits []ir.Stmt
	stmts []ir.Stmt
	succs map[int][]Edge
	preds map[int][]Edge
}

func (g *concreteGraph) Entry() ir.Stmt    { return g.entry }
func (g *concreteGraph) Exits() []ir.Stmt  { return g.exits }
func (g *concreteGraph) Stmts() []ir.Stmt  { return g.stmts }
func (g *concreteGraph) Succs(s ir.Stmt) []Edge { return g.succs[s.Index()] }
func (g *concreteGraph) Preds(s ir.Stmt) []Edge { return g.preds[s.Index()] }

// Builder constructs a Graph from a method's flat statement list using
// the leader/partition algorithm: find leaders (index 0, every branch
// target, every statement following a branch/return/invoke), partition
// into blocks, then wire block-internal statements with NORMAL edges and
// block-boundary statements with the edge kind implied by the block's
// terminator (If/Switch/Goto/Return/Invoke/fallthrough).
type Builder struct{}

// Build constructs the Graph for a single method's statement list.
// Statements are assumed already indexed 0..len(stmts)-1 in program
// order (ir.NewXStmt callers are expected to number them that way).
func (Builder) Build(stmts []ir.Stmt) Graph {
	g := &concreteGraph{
		stmts: stmts,
		succs: make(map[int][]Edge),
		preds: make(map[int][]Edge),
	}
	if len(stmts) == 0 {
		return g
	}
	g.entry = stmts[0]

	leaders := map[int]bool{0: true}
	for i, s := range stmts {
		switch t := s.(type) {
		case *ir.IfStmt:
			leaders[t.TargetTrue] = true
			leaders[t.TargetFalse] = true
			if i+1 < len(stmts) {
				leaders[i+1] = true
			}
		case *ir.SwitchStmt:
			for _, tgt := range t.Cases {
				leaders[tgt] = true
			}
			leaders[t.Default] = true
			if i+1 < len(stmts) {
				leaders[i+1] = true
			}
		case *ir.GotoStmt:
			leaders[t.Target] = true
			if i+1 < len(stmts) {
				leaders[i+1] = true
			}
		case *ir.ReturnStmt:
			if i+1 < len(stmts) {
				leaders[i+1] = true
			}
		case *ir.InvokeStmt:
			// An invoke always ends its block so its successor edge is
			// tagged CALL_TO_RETURN by the per-block terminator switch
			// below, even when nothing else would have split the block
			// here.
			if i+1 < len(stmts) {
				leaders[i+1] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		if idx >= 0 && idx < len(stmts) {
			sorted = append(sorted, idx)
		}
	}
	sort.Ints(sorted)

	addEdge := func(from, to int, kind EdgeKind, caseVal int32) {
		if to < 0 || to >= len(stmts) {
			return
		}
		e := Edge{Stmt: stmts[to], Kind: kind, CaseValue: caseVal}
		g.succs[from] = append(g.succs[from], e)
		g.preds[to] = append(g.preds[to], Edge{Stmt: stmts[from], Kind: kind, CaseValue: caseVal})
	}

	for bi, start := range sorted {
		end := len(stmts)
		if bi+1 < len(sorted) {
			end = sorted[bi+1]
		}
		// NORMAL edges within the block.
		for i := start; i+1 < end; i++ {
			addEdge(i, i+1, NORMAL, 0)
		}
		last := end - 1
		switch t := stmts[last].(type) {
		case *ir.IfStmt:
			addEdge(last, t.TargetTrue, IF_TRUE, 0)
			addEdge(last, t.TargetFalse, IF_FALSE, 0)
		case *ir.SwitchStmt:
			cases := make([]int32, 0, len(t.Cases))
			for v := range t.Cases {
				cases = append(cases, v)
			}
			sort.Slice(cases, func(a, b int) bool { return cases[a] < cases[b] })
			for _, v := range cases {
				addEdge(last, t.Cases[v], SWITCH_CASE, v)
			}
			addEdge(last, t.Default, SWITCH_DEFAULT, 0)
		case *ir.GotoStmt:
			addEdge(last, t.Target, NORMAL, 0)
		case *ir.ReturnStmt:
			g.exits = append(g.exits, stmts[last])
		case *ir.InvokeStmt:
			if end < len(stmts) {
				addEdge(last, end, CALL_TO_RETURN, 0)
			} else {
				g.exits = append(g.exits, stmts[last])
			}
		default:
			if end < len(stmts) {
				addEdge(last, end, NORMAL, 0)
			} else {
				g.exits = append(g.exits, stmts[last])
			}
		}
	}
	if len(g.exits) == 0 {
		g.exits = append(g.exits, stmts[len(stmts)-1])
	}
	return g
}
