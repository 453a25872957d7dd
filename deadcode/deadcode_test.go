package deadcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/cfgiface"
	"wpa/ctxsel"
	"wpa/hierarchy"
	"wpa/icp"
	"wpa/ir"
	"wpa/pta"
)

// buildConstantBranchProgram builds:
//
//	a = 1;
//	if (a < 0) { x = 1; } else { x = 2; }
//	return x;
//
// a < 0 is a known-false constant condition, so the true arm (x = 1,
// index 2) is unreachable.
func buildConstantBranchProgram() *ir.Method {
	a := &ir.Var{Name: "a", Type: ir.Type{Kind: ir.KindInt32}}
	x := &ir.Var{Name: "x", Type: ir.Type{Kind: ir.KindInt32}}
	stmts := []ir.Stmt{
		ir.NewAssignStmt(0, a, ir.ConstExpr{Value: 1}),
		ir.NewIfStmt(1, ir.BinExpr{Op: ir.LT, X: ir.VarExpr{Var: a}, Y: ir.ConstExpr{Value: 0}}, 2, 3),
		ir.NewAssignStmt(2, x, ir.ConstExpr{Value: 1}),
		ir.NewAssignStmt(3, x, ir.ConstExpr{Value: 2}),
		ir.NewReturnStmt(4, []*ir.Var{x}),
	}
	return &ir.Method{ID: "Main.entry", Body: stmts}
}

func runICPFor(t *testing.T, entry *ir.Method) *icp.Result {
	t.Helper()
	res, err := pta.Solve(pta.Config{
		Hierarchy: hierarchy.NewSimpleHierarchy(),
		Heap:      hierarchy.SimpleHeapModel{},
		CtxSel:    ctxsel.Insensitive{},
		Entry:     entry,
	})
	require.NoError(t, err)
	return icp.Run(icp.Config{Methods: res.ReachableFlatMethods(), PTA: res})
}

func TestConstantBranchPrunesDeadArm(t *testing.T) {
	entry := buildConstantBranchProgram()
	g := cfgiface.Builder{}.Build(entry.Body)
	icpRes := runICPFor(t, entry)

	findings := Find(Config{Graph: g, ICP: icpRes})

	require.Len(t, findings, 1)
	require.Equal(t, entry.Body[2], findings[0].Stmt)
	require.Equal(t, Unreachable, findings[0].Reason)
}

// x = 1; y = 2; return x;
//
// y is assigned but never used on any path — a useless assignment.
func TestUselessAssignmentDetected(t *testing.T) {
	x := &ir.Var{Name: "x", Type: ir.Type{Kind: ir.KindInt32}}
	y := &ir.Var{Name: "y", Type: ir.Type{Kind: ir.KindInt32}}
	stmts := []ir.Stmt{
		ir.NewAssignStmt(0, x, ir.ConstExpr{Value: 1}),
		ir.NewAssignStmt(1, y, ir.ConstExpr{Value: 2}),
		ir.NewReturnStmt(2, []*ir.Var{x}),
	}
	g := cfgiface.Builder{}.Build(stmts)
	findings := Find(Config{Graph: g, ICP: nil})

	require.Len(t, findings, 1)
	require.Equal(t, stmts[1], findings[0].Stmt)
	require.Equal(t, UselessAssignment, findings[0].Reason)
}

// TestSideEffectfulDeadLvaluesNotReportedAsUseless builds a sequence of
// statements whose lvalue is dead (never read afterward) but whose
// right-hand side is not side-effect-free: object allocation, a field
// load, an array load, and an integer division. None of these may be
// reported as useless assignments even though their result is unused.
func TestSideEffectfulDeadLvaluesNotReportedAsUseless(t *testing.T) {
	boxTy := ir.Type{Name: "Box"}
	intTy := ir.Type{Kind: ir.KindInt32}
	f := &ir.Field{Class: "Box", Name: "f", Type: intTy}

	b := &ir.Var{Name: "b", Type: boxTy}
	arr := &ir.Var{Name: "arr", Type: boxTy}
	dead1 := &ir.Var{Name: "dead1", Type: boxTy}
	dead2 := &ir.Var{Name: "dead2", Type: intTy}
	dead3 := &ir.Var{Name: "dead3", Type: intTy}
	dead4 := &ir.Var{Name: "dead4", Type: intTy}
	x := &ir.Var{Name: "x", Type: intTy}

	stmts := []ir.Stmt{
		ir.NewNewStmt(0, b, boxTy),
		ir.NewNewStmt(1, dead1, boxTy),                             // allocation, never read
		ir.NewLoadFieldStmt(2, dead2, b, f),                        // field load, never read
		ir.NewLoadArrayStmt(3, dead3, arr, ir.ConstExpr{Value: 0}), // array load, never read
		ir.NewAssignStmt(4, dead4, ir.BinExpr{Op: ir.DIV, X: ir.ConstExpr{Value: 4}, Y: ir.ConstExpr{Value: 2}}), // division, never read
		ir.NewAssignStmt(5, x, ir.ConstExpr{Value: 1}),
		ir.NewReturnStmt(6, []*ir.Var{x}),
	}
	g := cfgiface.Builder{}.Build(stmts)
	findings := Find(Config{Graph: g, ICP: nil})

	require.Empty(t, findings)
}
