package cfgiface

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/ir"
)

func TestBuildStraightLine(t *testing.T) {
	x := &ir.Var{Name: "x"}
	stmts := []ir.Stmt{
		ir.NewNewStmt(0, x, ir.Type{Name: "Dog"}),
		ir.NewCopyStmt(1, x, x),
		ir.NewReturnStmt(2, nil),
	}
	g := Builder{}.Build(stmts)
	require.Equal(t, stmts[0], g.Entry())

	succs := g.Succs(stmts[0])
	require.Len(t, succs, 1)
	require.Equal(t, NORMAL, succs[0].Kind)
	require.Equal(t, stmts[1], succs[0].Stmt)

	require.Equal(t, []ir.Stmt{stmts[2]}, g.Exits())
}

func TestBuildIfBranches(t *testing.T) {
	cond := ir.VarExpr{Var: &ir.Var{Name: "c"}}
	stmts := []ir.Stmt{
		ir.NewIfStmt(0, cond, 2, 1),
		ir.NewReturnStmt(1, nil),
		ir.NewReturnStmt(2, nil),
	}
	g := Builder{}.Build(stmts)
	succs := g.Succs(stmts[0])
	require.Len(t, succs, 2)

	var sawTrue, sawFalse bool
	for _, e := range succs {
		switch e.Kind {
		case IF_TRUE:
			sawTrue = true
			require.Equal(t, stmts[2], e.Stmt)
		case IF_FALSE:
			sawFalse = true
			require.Equal(t, stmts[1], e.Stmt)
		}
	}
	require.True(t, sawTrue)
	require.True(t, sawFalse)
}

func TestBuildSwitchCasesAndDefault(t *testing.T) {
	tag := &ir.Var{Name: "t"}
	stmts := []ir.Stmt{
		ir.NewSwitchStmt(0, tag, map[int32]int{1: 2, 5: 3}, 1),
		ir.NewReturnStmt(1, nil), // default
		ir.NewReturnStmt(2, nil), // case 1
		ir.NewReturnStmt(3, nil), // case 5
	}
	g := Builder{}.Build(stmts)
	succs := g.Succs(stmts[0])
	require.Len(t, succs, 3)

	var sawDefault bool
	caseTargets := map[int32]ir.Stmt{}
	for _, e := range succs {
		if e.Kind == SWITCH_DEFAULT {
			sawDefault = true
			require.Equal(t, stmts[1], e.Stmt)
		}
		if e.Kind == SWITCH_CASE {
			caseTargets[e.CaseValue] = e.Stmt
		}
	}
	require.True(t, sawDefault)
	require.Equal(t, stmts[2], caseTargets[1])
	require.Equal(t, stmts[3], caseTargets[5])
}

func TestBuildInvokeFallsThroughAsCallToReturn(t *testing.T) {
	stmts := []ir.Stmt{
		ir.NewInvokeStmt(0, nil, ir.StaticCall, nil, &ir.Method{ID: "C.m"}, nil),
		ir.NewReturnStmt(1, nil),
	}
	g := Builder{}.Build(stmts)
	succs := g.Succs(stmts[0])
	require.Len(t, succs, 1)
	require.Equal(t, CALL_TO_RETURN, succs[0].Kind)
}

func TestPredsMirrorSuccs(t *testing.T) {
	stmts := []ir.Stmt{
		ir.NewGotoStmt(0, 2),
		ir.NewReturnStmt(1, nil),
		ir.NewReturnStmt(2, nil),
	}
	g := Builder{}.Build(stmts)
	preds := g.Preds(stmts[2])
	require.Len(t, preds, 1)
	require.Equal(t, stmts[0], preds[0].Stmt)
}
