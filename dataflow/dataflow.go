// Package dataflow implements component H: a generic forward/backward
// worklist solver over a cfgiface.Graph (or cfgiface.ICFG). icp and
// livevar are both thin instantiations of this engine; it knows
// nothing about constants or liveness itself.
//
// Grounded on godoctor-godoctor's bitset-backed reaching-definitions/
// live-variable worklist (cfg-df.go: GEN/KILL per node, IN/OUT
// convergence loop) generalized from a fixed GEN/KILL transfer to an
// arbitrary caller-supplied Transfer function, and on the Go compiler's
// SCCP worklist (sccp.go) for the edge-aware propagation shape ICP's
// per-edge transfer needs that plain live-variable analysis doesn't.
package dataflow

import (
	"wpa/cfgiface"
	"wpa/ir"
)

// Direction selects forward (IN derived from predecessors' OUT) or
// backward (OUT derived from successors' IN) propagation.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Fact is any lattice value the engine propagates; Engine never
// inspects it beyond calling Meet/Transfer/EdgeTransfer.
type Fact any

// Meet combines two facts (commutative, idempotent, monotone).
type Meet func(a, b Fact) Fact

// Transfer computes the node's output fact (forward) or input fact
// (backward) from its counterpart input — the per-node transfer
// function.
type Transfer func(stmt ir.Stmt, in Fact) Fact

// EdgeTransfer adjusts a fact as it crosses one specific CFG/ICFG edge
// (e.g. ICP's call-to-return kill, or a call/return projection). nil
// means identity on every edge.
type EdgeTransfer func(e cfgiface.Edge, fact Fact) Fact

// Engine runs one forward or backward dataflow problem to a fixed
// point over a single Graph (or ICFG, which satisfies Graph too).
//
// Facts are keyed by the ir.Stmt value itself, not by its Index: Index
// is only unique within one method's statement list, while an ICFG's
// Stmts() spans many methods whose indices restart at 0. Statement
// pointers are globally unique, so they serve as the fact-table key
// across the whole interprocedural graph without extra bookkeeping.
type Engine struct {
	Graph        cfgiface.Graph
	Direction    Direction
	Bottom       Fact
	Meet         Meet
	Transfer     Transfer
	EdgeTransfer EdgeTransfer

	in  map[ir.Stmt]Fact
	out map[ir.Stmt]Fact
}

// NewEngine constructs an Engine; In/Out are seeded to Bottom for every
// statement currently in Graph.Stmts().
func NewEngine(g cfgiface.Graph, dir Direction, bottom Fact, meet Meet, transfer Transfer, edge EdgeTransfer) *Engine {
	e := &Engine{
		Graph:        g,
		Direction:    dir,
		Bottom:       bottom,
		Meet:         meet,
		Transfer:     transfer,
		EdgeTransfer: edge,
		in:           make(map[ir.Stmt]Fact),
		out:          make(map[ir.Stmt]Fact),
	}
	for _, s := range g.Stmts() {
		e.in[s] = bottom
		e.out[s] = bottom
	}
	return e
}

// AddNode registers a statement not originally in the graph (e.g. one
// discovered reachable only after an interprocedural edge is added),
// seeding its facts to Bottom so a subsequent Run() picks it up.
func (e *Engine) AddNode(stmt ir.Stmt) {
	if _, ok := e.in[stmt]; !ok {
		e.in[stmt] = e.Bottom
		e.out[stmt] = e.Bottom
	}
}

func (e *Engine) edgeFact(edge cfgiface.Edge, fact Fact) Fact {
	if e.EdgeTransfer == nil {
		return fact
	}
	return e.EdgeTransfer(edge, fact)
}

// Run iterates the worklist until no IN/OUT fact changes.
func (e *Engine) Run(equal func(a, b Fact) bool) {
	stmts := e.Graph.Stmts()
	queue := make([]ir.Stmt, len(stmts))
	copy(queue, stmts)
	queued := make(map[ir.Stmt]bool, len(stmts))
	for _, s := range stmts {
		queued[s] = true
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		queued[s] = false

		var changed bool
		if e.Direction == Forward {
			before := e.out[s]
			e.stepForward(s)
			changed = !equal(before, e.out[s])
		} else {
			before := e.in[s]
			e.stepBackward(s)
			changed = !equal(before, e.in[s])
		}
		if !changed {
			continue
		}

		for _, nbr := range e.frontier(s) {
			if !queued[nbr] {
				queued[nbr] = true
				queue = append(queue, nbr)
			}
		}
	}
}

// frontier returns the statements that should be re-examined after s
// changes: successors in the forward direction, predecessors backward.
func (e *Engine) frontier(s ir.Stmt) []ir.Stmt {
	var out []ir.Stmt
	if e.Direction == Forward {
		for _, edge := range e.Graph.Succs(s) {
			out = append(out, edge.Stmt)
		}
	} else {
		for _, edge := range e.Graph.Preds(s) {
			out = append(out, edge.Stmt)
		}
	}
	return out
}

func (e *Engine) stepForward(s ir.Stmt) {
	merged := e.Bottom
	for i, edge := range e.Graph.Preds(s) {
		f := e.edgeFact(edge, e.out[edge.Stmt])
		if i == 0 {
			merged = f
		} else {
			merged = e.Meet(merged, f)
		}
	}
	e.in[s] = merged
	e.out[s] = e.Transfer(s, merged)
}

func (e *Engine) stepBackward(s ir.Stmt) {
	merged := e.Bottom
	for i, edge := range e.Graph.Succs(s) {
		f := e.edgeFact(edge, e.in[edge.Stmt])
		if i == 0 {
			merged = f
		} else {
			merged = e.Meet(merged, f)
		}
	}
	e.out[s] = merged
	e.in[s] = e.Transfer(s, merged)
}

// GetInFact returns stmt's current IN fact.
func (e *Engine) GetInFact(stmt ir.Stmt) Fact { return e.in[stmt] }

// GetOutFact returns stmt's current OUT fact.
func (e *Engine) GetOutFact(stmt ir.Stmt) Fact { return e.out[stmt] }
