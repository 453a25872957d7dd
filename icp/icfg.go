package icp

import (
	"wpa/cfgiface"
	"wpa/ir"
	"wpa/pta"
)

// icfg merges one cfgiface.Graph per reachable method into a single
// interprocedural graph by layering CALL/RETURN edges over each
// invoke/return statement, on top of the intraprocedural CALL_TO_RETURN
// edge the per-method Builder already produces for the invoke's
// fallthrough. It satisfies cfgiface.ICFG.
type icfg struct {
	stmts       []ir.Stmt
	methodOf    map[ir.Stmt]*ir.Method
	graphOf     map[*ir.Method]cfgiface.Graph
	extraSuccs  map[ir.Stmt][]cfgiface.Edge
	extraPreds  map[ir.Stmt][]cfgiface.Edge
	entryMethod *ir.Method
}

func (g *icfg) Entry() ir.Stmt   { return g.graphOf[g.entryMethod].Entry() }
func (g *icfg) Exits() []ir.Stmt { return g.graphOf[g.entryMethod].Exits() }
func (g *icfg) Stmts() []ir.Stmt { return g.stmts }

func (g *icfg) Succs(s ir.Stmt) []cfgiface.Edge {
	m := g.methodOf[s]
	out := append([]cfgiface.Edge(nil), g.graphOf[m].Succs(s)...)
	return append(out, g.extraSuccs[s]...)
}

func (g *icfg) Preds(s ir.Stmt) []cfgiface.Edge {
	m := g.methodOf[s]
	out := append([]cfgiface.Edge(nil), g.graphOf[m].Preds(s)...)
	return append(out, g.extraPreds[s]...)
}

func (g *icfg) CFGOf(m *ir.Method) cfgiface.Graph { return g.graphOf[m] }

// buildICFG constructs the per-method subgraphs, flattens their
// statements, and wires CALL/RETURN edges for every (invoke, callee)
// pair still present in the merged method set. Methods not in the
// supplied set (never found reachable) are simply absent, so any
// dangling call-graph edge into them is skipped.
func buildICFG(methods []*ir.Method) *icfg {
	ordered := sortedMethods(methods)
	g := &icfg{
		methodOf:   make(map[ir.Stmt]*ir.Method),
		graphOf:    make(map[*ir.Method]cfgiface.Graph),
		extraSuccs: make(map[ir.Stmt][]cfgiface.Edge),
		extraPreds: make(map[ir.Stmt][]cfgiface.Edge),
	}
	if len(ordered) > 0 {
		g.entryMethod = ordered[0]
	}
	for _, m := range ordered {
		cg := cfgiface.Builder{}.Build(m.Body)
		g.graphOf[m] = cg
		for _, s := range cg.Stmts() {
			g.methodOf[s] = m
			g.stmts = append(g.stmts, s)
		}
	}
	return g
}

// wireCallGraph layers CALL/RETURN edges for every distinct (invoke
// stmt, callee method) pair found in res.CallGraph.Edges(), deduped
// since several contexts may share one call site/callee pair.
func wireCallGraph(g *icfg, res *pta.Result) {
	type pairKey struct {
		invoke ir.Stmt
		callee *ir.Method
	}
	seen := make(map[pairKey]bool)
	for _, e := range res.CallGraph.Edges() {
		invoke := ir.Stmt(e.CallSite.Site.Stmt)
		callee := e.Callee.Method
		k := pairKey{invoke, callee}
		if seen[k] {
			continue
		}
		seen[k] = true

		calleeGraph, ok := g.graphOf[callee]
		if !ok {
			continue
		}
		callerMethod, ok := g.methodOf[invoke]
		if !ok {
			continue
		}
		invokeStmt := e.CallSite.Site.Stmt

		g.extraSuccs[invoke] = append(g.extraSuccs[invoke], cfgiface.Edge{
			Stmt: calleeGraph.Entry(), Kind: cfgiface.CALL, Aux: callee.Params,
		})
		g.extraPreds[calleeGraph.Entry()] = append(g.extraPreds[calleeGraph.Entry()], cfgiface.Edge{
			Stmt: invoke, Kind: cfgiface.CALL, Aux: callee.Params,
		})

		postCall := postCallTarget(g.graphOf[callerMethod], invoke)
		if postCall == nil {
			continue
		}
		for _, exit := range calleeGraph.Exits() {
			ret, ok := exit.(*ir.ReturnStmt)
			if !ok {
				continue
			}
			g.extraSuccs[ret] = append(g.extraSuccs[ret], cfgiface.Edge{
				Stmt: postCall, Kind: cfgiface.RETURN, Aux: invokeStmt.Result,
			})
			g.extraPreds[postCall] = append(g.extraPreds[postCall], cfgiface.Edge{
				Stmt: ret, Kind: cfgiface.RETURN, Aux: invokeStmt.Result,
			})
		}
	}
}

// postCallTarget returns the statement the intraprocedural
// CALL_TO_RETURN edge already points at, or nil if invoke is its
// method's final statement (no fallthrough to return to).
func postCallTarget(callerGraph cfgiface.Graph, invoke ir.Stmt) ir.Stmt {
	for _, e := range callerGraph.Succs(invoke) {
		if e.Kind == cfgiface.CALL_TO_RETURN {
			return e.Stmt
		}
	}
	return nil
}
