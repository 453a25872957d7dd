package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/ctxsel"
	"wpa/hierarchy"
	"wpa/ir"
	"wpa/taint"
)

// buildPipelineProgram builds a tiny program exercising every stage:
//
//	Callee.identity(p) { return p; }
//	Source.get() { return; }
//	Sink.consume(q) { return; }
//	Main.entry() {
//	  a = 1;
//	  if (a < 0) { x = 1; } else { x = 2; }   // true arm is dead
//	  r = Callee.identity(a);                 // folds to a constant
//	  t = Source.get();
//	  Sink.consume(t);                        // taint flow
//	  return r, x;
//	}
func buildPipelineProgram() *ir.Method {
	p := &ir.Var{Name: "p", Type: ir.Type{Kind: ir.KindInt32}}
	callee := &ir.Method{ID: "Callee.identity", Static: true, Params: []*ir.Var{p}, Body: []ir.Stmt{
		ir.NewReturnStmt(0, []*ir.Var{p}),
	}}
	source := &ir.Method{ID: "Source.get", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	sinkParam := &ir.Var{Name: "q", Type: ir.Type{Name: "Tainted"}}
	sink := &ir.Method{ID: "Sink.consume", Static: true, Params: []*ir.Var{sinkParam}, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}

	a := &ir.Var{Name: "a", Type: ir.Type{Kind: ir.KindInt32}}
	x := &ir.Var{Name: "x", Type: ir.Type{Kind: ir.KindInt32}}
	r := &ir.Var{Name: "r", Type: ir.Type{Kind: ir.KindInt32}}
	tv := &ir.Var{Name: "t", Type: ir.Type{Name: "Tainted"}}
	body := []ir.Stmt{
		ir.NewAssignStmt(0, a, ir.ConstExpr{Value: 1}),
		ir.NewIfStmt(1, ir.BinExpr{Op: ir.LT, X: ir.VarExpr{Var: a}, Y: ir.ConstExpr{Value: 0}}, 2, 3),
		ir.NewAssignStmt(2, x, ir.ConstExpr{Value: 1}),
		ir.NewAssignStmt(3, x, ir.ConstExpr{Value: 2}),
		ir.NewInvokeStmt(4, r, ir.StaticCall, nil, callee, []*ir.Var{a}),
		ir.NewInvokeStmt(5, tv, ir.StaticCall, nil, source, nil),
		ir.NewInvokeStmt(6, nil, ir.StaticCall, nil, sink, []*ir.Var{tv}),
		ir.NewReturnStmt(7, []*ir.Var{r, x}),
	}
	return &ir.Method{ID: "Main.entry", Static: true, Body: body}
}

func TestRunWiresEveryStage(t *testing.T) {
	entry := buildPipelineProgram()
	cfg := Config{
		Entry:     entry,
		Hierarchy: hierarchy.NewSimpleHierarchy(),
		Heap:      hierarchy.SimpleHeapModel{},
		CtxSel:    ctxsel.Insensitive{},
		Taint: &taint.Config{
			Sources: []taint.Source{{Method: "Source.get", Type: ir.Type{Name: "Tainted"}}},
			Sinks:   []taint.Sink{{Method: "Sink.consume", ArgIndex: 0}},
		},
	}

	report, err := Run(cfg)
	require.NoError(t, err)
	require.NotNil(t, report.PTA)
	require.NotNil(t, report.ICP)
	require.NotNil(t, report.Taint)
	require.Len(t, report.Taint.Flows, 1)

	unreachable, _ := report.TotalFindings()
	require.Equal(t, 1, unreachable) // the true-arm assignment x = 1
}

func TestRunWithoutTaintConfigSkipsTaintStage(t *testing.T) {
	entry := &ir.Method{ID: "Main.entry", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	report, err := Run(Config{
		Entry:     entry,
		Hierarchy: hierarchy.NewSimpleHierarchy(),
		Heap:      hierarchy.SimpleHeapModel{},
	})
	require.NoError(t, err)
	require.Nil(t, report.Taint)
}
