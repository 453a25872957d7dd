// Package icp implements component I: interprocedural constant
// propagation as a dataflow.Engine instantiation, extended with
// heap-alias reasoning derived from a completed pta.Result.
//
// Call/return edges project/meet only integer-typed parameters and
// results across method boundaries; the per-node transfer is otherwise
// ordinary intraprocedural constant propagation (value.Evaluate on the
// right-hand side).
package icp

import (
	"sort"

	"wpa/cfgiface"
	"wpa/dataflow"
	"wpa/ir"
	"wpa/pta"
	"wpa/value"
)

// Config bundles everything a whole-program ICP run needs.
type Config struct {
	// Methods is every reachable method to analyze, flat (no context) —
	// the same method may have been reached under several PTA contexts,
	// but ICP reasons about one shared fact per Var, matching the flat
	// projection pta.Result exposes.
	Methods []*ir.Method
	PTA     *pta.Result
}

// Result exposes the per-statement IN/OUT facts.
type Result struct {
	engine *dataflow.Engine
	icfg   *icfg
}

func (r *Result) InFact(stmt ir.Stmt) value.Fact  { return asFact(r.engine.GetInFact(stmt)) }
func (r *Result) OutFact(stmt ir.Stmt) value.Fact { return asFact(r.engine.GetOutFact(stmt)) }

func asFact(f dataflow.Fact) value.Fact {
	if f == nil {
		return nil
	}
	return f.(value.Fact)
}

// Run builds the merged ICFG, derives alias/static-field indexes from
// cfg.PTA, and runs the engine to a fixed point.
//
// Field loads read the store's own OUT fact directly (via idx.eng,
// wired up right after the engine exists) rather than the load's local
// IN fact, since the value a field carries was established at the
// store's program point, not the load's. That means a store's effect
// on a load is invisible to the engine's own CFG-frontier propagation,
// so Run is called repeatedly until no store-derived load value changes
// between passes — a small outer fixed point around the engine's own
// inner one.
func Run(cfg Config) *Result {
	g := buildICFG(cfg.Methods)
	wireCallGraph(g, cfg.PTA)
	idx := buildIndexes(cfg.Methods, cfg.PTA)

	transfer := func(stmt ir.Stmt, in dataflow.Fact) dataflow.Fact {
		return nodeTransfer(stmt, asFact(in), idx)
	}
	edgeTransfer := func(e cfgiface.Edge, f dataflow.Fact) dataflow.Fact {
		return edgeTransferFn(e, asFact(f))
	}

	e := dataflow.NewEngine(g, dataflow.Forward, value.Fact{}, meetFacts, transfer, edgeTransfer)
	idx.eng = e

	for i, limit := 0, len(g.stmts)+4; i < limit; i++ {
		before := snapshotLoadValues(g, idx)
		e.Run(equalFacts)
		if equalSnapshots(before, snapshotLoadValues(g, idx)) {
			break
		}
	}

	return &Result{engine: e, icfg: g}
}

// snapshotLoadValues captures every field/array load's current value so
// Run's outer loop can detect when store-driven recomputation has
// settled.
func snapshotLoadValues(g *icfg, idx *indexes) []value.Value {
	out := make([]value.Value, 0, len(g.stmts))
	for _, s := range g.stmts {
		switch t := s.(type) {
		case *ir.LoadFieldStmt:
			if t.Base == nil {
				out = append(out, idx.staticLoadValue(t.Field))
			} else {
				out = append(out, idx.instanceLoadValue(t.Base, t.Field))
			}
		case *ir.LoadArrayStmt:
			loadIdx := value.Evaluate(t.Index, asFact(idx.eng.GetInFact(t)))
			out = append(out, idx.arrayLoadValue(t.Base, loadIdx))
		}
	}
	return out
}

func equalSnapshots(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func meetFacts(a, b dataflow.Fact) dataflow.Fact {
	return value.MeetFact(asFact(a), asFact(b))
}

func equalFacts(a, b dataflow.Fact) bool {
	return value.Equal(asFact(a), asFact(b))
}

// nodeTransfer is the per-statement transfer: evaluate the right-hand
// side of assignment-shaped statements; everything else passes IN
// through unchanged except where heap-alias reasoning re-derives a
// load's value from its aliased stores.
func nodeTransfer(stmt ir.Stmt, in value.Fact, idx *indexes) value.Fact {
	out := in.Clone()
	switch t := stmt.(type) {
	case *ir.AssignStmt:
		if t.X.Type.Kind.Integral() {
			out.Set(t.X, value.Evaluate(t.Rhs, in))
		}
	case *ir.CopyStmt:
		if t.X.Type.Kind.Integral() {
			out.Set(t.X, in.Get(t.Y))
		}
	case *ir.NewStmt:
		if t.X.Type.Kind.Integral() {
			out.Set(t.X, value.Top)
		}
	case *ir.LoadFieldStmt:
		if !t.X.Type.Kind.Integral() {
			break
		}
		if t.Base == nil {
			out.Set(t.X, idx.staticLoadValue(t.Field))
		} else {
			out.Set(t.X, idx.instanceLoadValue(t.Base, t.Field))
		}
	case *ir.LoadArrayStmt:
		if !t.X.Type.Kind.Integral() {
			break
		}
		loadIdx := value.Evaluate(t.Index, in)
		out.Set(t.X, idx.arrayLoadValue(t.Base, loadIdx))
	case *ir.InvokeStmt:
		if t.Result != nil && t.Result.Type.Kind.Integral() {
			out.Set(t.Result, value.BottomUndef)
		}
	}
	return out
}

// edgeTransferFn implements the CALL/CALL_TO_RETURN/RETURN projections
// across method-boundary edges.
func edgeTransferFn(e cfgiface.Edge, f value.Fact) value.Fact {
	switch e.Kind {
	case cfgiface.CALL_TO_RETURN:
		invoke := e.Stmt.(*ir.InvokeStmt)
		out := f.Clone()
		if invoke.Result != nil {
			out.Set(invoke.Result, value.BottomUndef)
		}
		return out
	case cfgiface.CALL:
		params, _ := e.Aux.([]*ir.Var)
		invoke := e.Stmt.(*ir.InvokeStmt)
		out := value.Fact{}
		for i, p := range params {
			if i >= len(invoke.Args) || !p.Type.Kind.Integral() {
				continue
			}
			out.Set(p, f.Get(invoke.Args[i]))
		}
		return out
	case cfgiface.RETURN:
		ret := e.Stmt.(*ir.ReturnStmt)
		resultVar, _ := e.Aux.(*ir.Var)
		out := value.Fact{}
		if resultVar == nil {
			return out
		}
		vals := make([]value.Value, 0, len(ret.Results))
		for _, r := range ret.Results {
			vals = append(vals, f.Get(r))
		}
		out.Set(resultVar, value.MeetAll(vals))
		return out
	default:
		return f
	}
}

// sortedMethods returns methods in a deterministic (by ID) order, so
// the merged ICFG's Stmts() iteration order — and therefore tie-broken
// worklist behavior — is reproducible across runs.
func sortedMethods(ms []*ir.Method) []*ir.Method {
	out := append([]*ir.Method(nil), ms...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
