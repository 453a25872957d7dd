// Package livevar is a thin dataflow.Engine instantiation for backward
// live-variable analysis, feeding deadcode's useless-assignment check.
//
// Grounded on the same godoctor-godoctor backward GEN/KILL shape
// dataflow itself is grounded on, specialized here to the one GEN/KILL
// rule live-variable analysis needs: a use of v generates liveness, a
// definition of v kills it.
package livevar

import (
	"wpa/cfgiface"
	"wpa/dataflow"
	"wpa/ir"
)

// Set is the live-variable fact: the set of variables live at a
// program point.
type Set map[*ir.Var]bool

func (s Set) clone() Set {
	c := make(Set, len(s))
	for v := range s {
		c[v] = true
	}
	return c
}

func meet(a, b dataflow.Fact) dataflow.Fact {
	sa, sb := asSet(a), asSet(b)
	out := make(Set, len(sa)+len(sb))
	for v := range sa {
		out[v] = true
	}
	for v := range sb {
		out[v] = true
	}
	return out
}

func equal(a, b dataflow.Fact) bool {
	sa, sb := asSet(a), asSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for v := range sa {
		if !sb[v] {
			return false
		}
	}
	return true
}

func asSet(f dataflow.Fact) Set {
	if f == nil {
		return nil
	}
	return f.(Set)
}

// transfer computes IN(s) = (OUT(s) - KILL(s)) ∪ USE(s) for one
// statement.
func transfer(stmt ir.Stmt, out dataflow.Fact) dataflow.Fact {
	in := asSet(out).clone()
	kill(stmt, in)
	use(stmt, func(v *ir.Var) { in[v] = true })
	return in
}

// kill removes a statement's defined variable(s) from the live set —
// a definition makes whatever was live for that variable upstream dead.
func kill(stmt ir.Stmt, in Set) {
	switch t := stmt.(type) {
	case *ir.NewStmt:
		delete(in, t.X)
	case *ir.CopyStmt:
		delete(in, t.X)
	case *ir.LoadFieldStmt:
		delete(in, t.X)
	case *ir.LoadArrayStmt:
		delete(in, t.X)
	case *ir.AssignStmt:
		delete(in, t.X)
	case *ir.InvokeStmt:
		if t.Result != nil {
			delete(in, t.Result)
		}
	}
}

// use reports every variable a statement reads.
func use(stmt ir.Stmt, mark func(*ir.Var)) {
	switch t := stmt.(type) {
	case *ir.CopyStmt:
		mark(t.Y)
	case *ir.StoreFieldStmt:
		if t.Base != nil {
			mark(t.Base)
		}
		mark(t.Y)
	case *ir.LoadFieldStmt:
		if t.Base != nil {
			mark(t.Base)
		}
	case *ir.StoreArrayStmt:
		mark(t.Base)
		mark(t.Y)
		useExpr(t.Index, mark)
	case *ir.LoadArrayStmt:
		mark(t.Base)
		useExpr(t.Index, mark)
	case *ir.InvokeStmt:
		if t.Recv != nil {
			mark(t.Recv)
		}
		for _, a := range t.Args {
			mark(a)
		}
	case *ir.AssignStmt:
		useExpr(t.Rhs, mark)
	case *ir.IfStmt:
		useExpr(t.Cond, mark)
	case *ir.SwitchStmt:
		mark(t.Tag)
	case *ir.ReturnStmt:
		for _, r := range t.Results {
			mark(r)
		}
	}
}

func useExpr(e ir.Expr, mark func(*ir.Var)) {
	switch e := e.(type) {
	case ir.VarExpr:
		mark(e.Var)
	case ir.BinExpr:
		useExpr(e.X, mark)
		useExpr(e.Y, mark)
	}
}

// Result exposes live-in/live-out sets per statement.
type Result struct{ engine *dataflow.Engine }

func (r *Result) LiveIn(stmt ir.Stmt) Set  { return asSet(r.engine.GetInFact(stmt)) }
func (r *Result) LiveOut(stmt ir.Stmt) Set { return asSet(r.engine.GetOutFact(stmt)) }

// Run solves backward liveness over g.
func Run(g cfgiface.Graph) *Result {
	e := dataflow.NewEngine(g, dataflow.Backward, Set{}, meet, transfer, nil)
	e.Run(equal)
	return &Result{engine: e}
}
