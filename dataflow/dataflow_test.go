package dataflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/cfgiface"
	"wpa/ir"
)

// reachSet is a tiny Fact: the set of statement indices known reachable
// so far, used to test forward propagation and loop termination.
type reachSet map[int]bool

func meetUnion(a, b Fact) Fact {
	ra, rb := a.(reachSet), b.(reachSet)
	out := make(reachSet, len(ra)+len(rb))
	for k := range ra {
		out[k] = true
	}
	for k := range rb {
		out[k] = true
	}
	return out
}

func equalReachSet(a, b Fact) bool {
	ra, rb := a.(reachSet), b.(reachSet)
	if len(ra) != len(rb) {
		return false
	}
	for k := range ra {
		if !rb[k] {
			return false
		}
	}
	return true
}

func TestForwardPropagationThroughLoopTerminates(t *testing.T) {
	// 0: if (cond) goto 2 else goto 1   (loop header)
	// 1: goto 0                          (back edge)
	// 2: return
	cond := ir.VarExpr{Var: &ir.Var{Name: "c"}}
	stmts := []ir.Stmt{
		ir.NewIfStmt(0, cond, 2, 1),
		ir.NewGotoStmt(1, 0),
		ir.NewReturnStmt(2, nil),
	}
	g := cfgiface.Builder{}.Build(stmts)

	transfer := func(stmt ir.Stmt, in Fact) Fact {
		r := in.(reachSet)
		out := make(reachSet, len(r)+1)
		for k := range r {
			out[k] = true
		}
		out[stmt.Index()] = true
		return out
	}

	e := NewEngine(g, Forward, reachSet{}, meetUnion, transfer, nil)
	e.Run(equalReachSet)

	out := e.GetOutFact(stmts[0]).(reachSet)
	require.True(t, out[0])
}

type varSet map[*ir.Var]bool

func meetUnionVars(a, b Fact) Fact {
	ra, rb := a.(varSet), b.(varSet)
	out := make(varSet, len(ra)+len(rb))
	for k := range ra {
		out[k] = true
	}
	for k := range rb {
		out[k] = true
	}
	return out
}

func equalVarSet(a, b Fact) bool {
	ra, rb := a.(varSet), b.(varSet)
	if len(ra) != len(rb) {
		return false
	}
	for k := range ra {
		if !rb[k] {
			return false
		}
	}
	return true
}

func TestBackwardLiveVariableShape(t *testing.T) {
	// 0: x = 1
	// 1: y = x
	// 2: return y
	x := &ir.Var{Name: "x"}
	y := &ir.Var{Name: "y"}
	stmts := []ir.Stmt{
		ir.NewAssignStmt(0, x, ir.ConstExpr{Value: 1}),
		ir.NewCopyStmt(1, y, x),
		ir.NewReturnStmt(2, []*ir.Var{y}),
	}
	g := cfgiface.Builder{}.Build(stmts)

	transfer := func(stmt ir.Stmt, out Fact) Fact {
		o := out.(varSet)
		in := make(varSet, len(o))
		for k := range o {
			in[k] = true
		}
		switch t := stmt.(type) {
		case *ir.ReturnStmt:
			for _, r := range t.Results {
				in[r] = true
			}
		case *ir.CopyStmt:
			delete(in, t.X)
			in[t.Y] = true
		case *ir.AssignStmt:
			delete(in, t.X)
		}
		return in
	}

	e := NewEngine(g, Backward, varSet{}, meetUnionVars, transfer, nil)
	e.Run(equalVarSet)

	inAtCopy := e.GetInFact(stmts[1]).(varSet)
	require.True(t, inAtCopy[x], "x is live before y = x")
	require.False(t, inAtCopy[y], "y is not yet live before its own definition")
}
