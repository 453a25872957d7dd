package taint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/ctxsel"
	"wpa/hierarchy"
	"wpa/ir"
	"wpa/pta"
)

// buildSourceSinkProgram builds:
//
//	Main.entry() { t = Source.get(); Sink.consume(t); }
//
// Source.get/Sink.consume are static methods with no interesting body —
// taint propagation doesn't depend on their PTA value flow, only on the
// call graph reaching them.
func buildSourceSinkProgram() (entry, source, sink *ir.Method) {
	source = &ir.Method{ID: "Source.get", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	p := &ir.Var{Name: "p", Type: ir.Type{Name: "Tainted"}}
	sink = &ir.Method{ID: "Sink.consume", Static: true, Params: []*ir.Var{p}, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}

	tv := &ir.Var{Name: "t", Type: ir.Type{Name: "Tainted"}}
	body := []ir.Stmt{
		ir.NewInvokeStmt(0, tv, ir.StaticCall, nil, source, nil),
		ir.NewInvokeStmt(1, nil, ir.StaticCall, nil, sink, []*ir.Var{tv}),
		ir.NewReturnStmt(2, nil),
	}
	entry = &ir.Method{ID: "Main.entry", Static: true, Body: body}
	return entry, source, sink
}

func solveEntry(t *testing.T, entry *ir.Method) *pta.Result {
	t.Helper()
	res, err := pta.Solve(pta.Config{
		Hierarchy: hierarchy.NewSimpleHierarchy(),
		Heap:      hierarchy.SimpleHeapModel{},
		CtxSel:    ctxsel.Insensitive{},
		Entry:     entry,
	})
	require.NoError(t, err)
	return res
}

// TestDirectSourceToSinkFlow covers the simplest flow: a value returned
// by a source call flows unmodified into a sink argument.
func TestDirectSourceToSinkFlow(t *testing.T) {
	entry, _, _ := buildSourceSinkProgram()
	res := solveEntry(t, entry)

	cfg := Config{
		Sources: []Source{{Method: "Source.get", Type: ir.Type{Name: "Tainted"}}},
		Sinks:   []Sink{{Method: "Sink.consume", ArgIndex: 0}},
	}
	out := Run(res, cfg)

	require.Len(t, out.Flows, 1)
	flow := out.Flows[0]
	require.Equal(t, 0, flow.ArgIndex)
	require.Equal(t, entry.Body[0].(*ir.InvokeStmt), flow.Source.Stmt)
	require.Equal(t, entry.Body[1].(*ir.InvokeStmt), flow.Sink.Stmt)
}

// TestNoFlowWithoutSourceCall confirms an untainted argument never
// produces a flow.
func TestNoFlowWithoutSourceCall(t *testing.T) {
	sink := &ir.Method{ID: "Sink.consume", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	clean := &ir.Var{Name: "c", Type: ir.Type{Name: "Clean"}}
	body := []ir.Stmt{
		ir.NewAssignStmt(0, clean, ir.ConstExpr{Value: 1}),
		ir.NewInvokeStmt(1, nil, ir.StaticCall, nil, sink, []*ir.Var{clean}),
		ir.NewReturnStmt(2, nil),
	}
	entry := &ir.Method{ID: "Main.entry", Static: true, Body: body}
	res := solveEntry(t, entry)

	cfg := Config{
		Sources: []Source{{Method: "Source.get", Type: ir.Type{Name: "Tainted"}}},
		Sinks:   []Sink{{Method: "Sink.consume", ArgIndex: 0}},
	}
	out := Run(res, cfg)
	require.Empty(t, out.Flows)
}

// TestLaunderTransferRekeysTaintToReturnValue covers the "launder(arg0
// -> ret)" shape: a transfer rule whose target is the call's own return
// value, exercising the RET sentinel.
func TestLaunderTransferRekeysTaintToReturnValue(t *testing.T) {
	source := &ir.Method{ID: "Source.get", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	p := &ir.Var{Name: "p", Type: ir.Type{Name: "Tainted"}}
	launder := &ir.Method{ID: "Launder.wash", Static: true, Params: []*ir.Var{p}, Body: []ir.Stmt{ir.NewReturnStmt(0, []*ir.Var{p})}}
	sinkParam := &ir.Var{Name: "q", Type: ir.Type{Name: "Cleaned"}}
	sink := &ir.Method{ID: "Sink.consume", Static: true, Params: []*ir.Var{sinkParam}, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}

	tv := &ir.Var{Name: "t", Type: ir.Type{Name: "Tainted"}}
	uv := &ir.Var{Name: "u", Type: ir.Type{Name: "Cleaned"}}
	body := []ir.Stmt{
		ir.NewInvokeStmt(0, tv, ir.StaticCall, nil, source, nil),
		ir.NewInvokeStmt(1, uv, ir.StaticCall, nil, launder, []*ir.Var{tv}),
		ir.NewInvokeStmt(2, nil, ir.StaticCall, nil, sink, []*ir.Var{uv}),
		ir.NewReturnStmt(3, nil),
	}
	entry := &ir.Method{ID: "Main.entry", Static: true, Body: body}
	res := solveEntry(t, entry)

	cfg := Config{
		Sources:   []Source{{Method: "Source.get", Type: ir.Type{Name: "Tainted"}}},
		Sinks:     []Sink{{Method: "Sink.consume", ArgIndex: 0}},
		Transfers: []Transfer{{Method: "Launder.wash", From: 0, To: RET, Type: ir.Type{Name: "Cleaned"}}},
	}
	out := Run(res, cfg)

	require.Len(t, out.Flows, 1)
	require.Equal(t, entry.Body[0].(*ir.InvokeStmt), out.Flows[0].Source.Stmt)
	require.Equal(t, entry.Body[2].(*ir.InvokeStmt), out.Flows[0].Sink.Stmt)
}
