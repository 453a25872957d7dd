package main

import (
	"wpa/hierarchy"
	"wpa/ir"
	"wpa/taint"
)

// toyProgram is the bundled demo program `wpa demo`/`wpa dot` run
// against: small enough to read in one sitting, but touching every
// analysis the pipeline implements — virtual dispatch, a heap-aliased
// field, a statically-dead branch, and a source-to-sink taint flow
// laundered through an intermediate call.
//
//	class Animal { speak() }
//	class Dog extends Animal { speak() }
//	class Box { value }
//
//	Main.entry() {
//	  a = new Dog();
//	  r = a.speak();          // virtual dispatch resolves to Dog.speak
//	  b = new Box();
//	  v = 5;
//	  b.value = v;
//	  w = b.value;             // heap-aliased constant propagates to w
//	  flag = 1;
//	  if (flag < 0) { dead = 1; } else { live = 2; }   // true arm is dead
//	  t = Source.get();
//	  u = Launder.wash(t);
//	  Sink.consume(u);          // taint flow, laundered through wash()
//	}
func toyProgram() (entry *ir.Method, h *hierarchy.SimpleHierarchy, tcfg taint.Config) {
	dogSpeak := &ir.Method{ID: "Dog.speak", Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	declaredSpeak := &ir.Method{ID: "Animal.speak"}
	h = hierarchy.NewSimpleHierarchy()
	h.AddClass("Animal", "", map[string]*ir.Method{"speak": dogSpeak})
	h.AddClass("Dog", "Animal", map[string]*ir.Method{"speak": dogSpeak})

	p := &ir.Var{Name: "p", Type: ir.Type{Name: "Tainted"}}
	source := &ir.Method{ID: "Source.get", Static: true, Body: []ir.Stmt{ir.NewReturnStmt(0, nil)}}
	launder := &ir.Method{ID: "Launder.wash", Static: true, Params: []*ir.Var{p}, Body: []ir.Stmt{
		ir.NewReturnStmt(0, []*ir.Var{p}),
	}}
	sinkParam := &ir.Var{Name: "q", Type: ir.Type{Name: "Cleaned"}}
	sink := &ir.Method{ID: "Sink.consume", Static: true, Params: []*ir.Var{sinkParam}, Body: []ir.Stmt{
		ir.NewReturnStmt(0, nil),
	}}

	a := &ir.Var{Name: "a", Type: ir.Type{Name: "Animal"}}
	r := &ir.Var{Name: "r", Type: ir.Type{Name: "Object"}}
	b := &ir.Var{Name: "b", Type: ir.Type{Name: "Box"}}
	v := &ir.Var{Name: "v", Type: ir.Type{Kind: ir.KindInt32}}
	w := &ir.Var{Name: "w", Type: ir.Type{Kind: ir.KindInt32}}
	valueField := &ir.Field{Class: "Box", Name: "value", Type: ir.Type{Kind: ir.KindInt32}}
	flag := &ir.Var{Name: "flag", Type: ir.Type{Kind: ir.KindInt32}}
	dead := &ir.Var{Name: "dead", Type: ir.Type{Kind: ir.KindInt32}}
	live := &ir.Var{Name: "live", Type: ir.Type{Kind: ir.KindInt32}}
	tv := &ir.Var{Name: "t", Type: ir.Type{Name: "Tainted"}}
	uv := &ir.Var{Name: "u", Type: ir.Type{Name: "Cleaned"}}

	body := []ir.Stmt{
		ir.NewNewStmt(0, a, ir.Type{Name: "Dog"}),
		ir.NewInvokeStmt(1, r, ir.VirtualCall, a, declaredSpeak, nil),
		ir.NewNewStmt(2, b, ir.Type{Name: "Box"}),
		ir.NewAssignStmt(3, v, ir.ConstExpr{Value: 5}),
		ir.NewStoreFieldStmt(4, b, valueField, v),
		ir.NewLoadFieldStmt(5, w, b, valueField),
		ir.NewAssignStmt(6, flag, ir.ConstExpr{Value: 1}),
		ir.NewIfStmt(7, ir.BinExpr{Op: ir.LT, X: ir.VarExpr{Var: flag}, Y: ir.ConstExpr{Value: 0}}, 8, 9),
		ir.NewAssignStmt(8, dead, ir.ConstExpr{Value: 1}),
		ir.NewAssignStmt(9, live, ir.ConstExpr{Value: 2}),
		ir.NewInvokeStmt(10, tv, ir.StaticCall, nil, source, nil),
		ir.NewInvokeStmt(11, uv, ir.StaticCall, nil, launder, []*ir.Var{tv}),
		ir.NewInvokeStmt(12, nil, ir.StaticCall, nil, sink, []*ir.Var{uv}),
		ir.NewReturnStmt(13, []*ir.Var{r, w, live}),
	}
	entry = &ir.Method{ID: "Main.entry", Static: true, Body: body}

	tcfg = taint.Config{
		Sources:   []taint.Source{{Method: "Source.get", Type: ir.Type{Name: "Tainted"}}},
		Sinks:     []taint.Sink{{Method: "Sink.consume", ArgIndex: 0}},
		Transfers: []taint.Transfer{{Method: "Launder.wash", From: 0, To: taint.RET, Type: ir.Type{Name: "Cleaned"}}},
	}
	return entry, h, tcfg
}
