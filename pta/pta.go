// Package pta implements component F: the pointer analysis solver, in
// both its context-insensitive and context-sensitive variants, with
// on-the-fly call-graph construction.
//
// Structure is grounded on the constraint-generation and worklist
// shape of golang.org/x/tools' pointer.gen.go (nodeid-based node
// creation, addReachable/addOneNode idioms) adapted from Andersen-style
// whole-program constraint generation to a delta-propagating,
// per-object worklist.
package pta

import (
	"fmt"
	"sort"

	"wpa/callgraph"
	"wpa/csmanager"
	"wpa/ctxsel"
	"wpa/hierarchy"
	"wpa/ir"
	"wpa/pfg"
	"wpa/ptset"
	"wpa/worklist"
)

// Config bundles every external collaborator the solver consumes.
type Config struct {
	Hierarchy hierarchy.ClassHierarchy
	Heap      hierarchy.HeapModel
	CtxSel    ctxsel.ContextSelector
	Entry     *ir.Method
}

// Result is what Solve exposes once the fixed point is reached:
// the final PFG, call graph, and per-pointer points-to sets.
type Result struct {
	PFG       *pfg.Graph
	CallGraph *callgraph.Graph
	CS        *csmanager.Manager
	PointsTo  map[uint32]*ptset.Set
}

// PointsToOf returns the points-to set of a context-sensitive variable,
// or an empty set if it was never touched.
func (r *Result) PointsToOf(ctx csmanager.Ctx, v *ir.Var) *ptset.Set {
	id := r.CS.VarPtr(ctx, v)
	if s, ok := r.PointsTo[id]; ok {
		return s
	}
	return ptset.New()
}

type solver struct {
	cfg Config
	cs  *csmanager.Manager
	pfg *pfg.Graph
	cg  *callgraph.Graph
	pts map[uint32]*ptset.Set
	wl  worklist.Worklist[uint32, *ptset.Set]

	reachable map[uint32]bool // CSMethod.ID -> reachable

	indexed map[*ir.Method]bool // per-method var-access index already built

	instFieldStores map[*ir.Var][]*ir.StoreFieldStmt
	instFieldLoads  map[*ir.Var][]*ir.LoadFieldStmt
	arrayStores     map[*ir.Var][]*ir.StoreArrayStmt
	arrayLoads      map[*ir.Var][]*ir.LoadArrayStmt
	instanceInvokes map[*ir.Var][]*ir.InvokeStmt
	methodOf        map[*ir.Var]*ir.Method
}

// Solve runs the PTA to a fixed point starting from cfg.Entry and
// returns the final result. It returns an error only for a nil
// Config.Entry or malformed IR; missing callee resolution is handled
// silently, not as an error.
func Solve(cfg Config) (*Result, error) {
	s := &solver{
		cfg:             cfg,
		cs:              csmanager.New(),
		pfg:             pfg.New(),
		cg:              callgraph.New(),
		pts:             make(map[uint32]*ptset.Set),
		reachable:       make(map[uint32]bool),
		indexed:         make(map[*ir.Method]bool),
		instFieldStores: make(map[*ir.Var][]*ir.StoreFieldStmt),
		instFieldLoads:  make(map[*ir.Var][]*ir.LoadFieldStmt),
		arrayStores:     make(map[*ir.Var][]*ir.StoreArrayStmt),
		arrayLoads:      make(map[*ir.Var][]*ir.LoadArrayStmt),
		instanceInvokes: make(map[*ir.Var][]*ir.InvokeStmt),
		methodOf:        make(map[*ir.Var]*ir.Method),
	}
	if cfg.Entry == nil {
		return nil, fmt.Errorf("pta: Solve: Config.Entry is nil")
	}

	entryCtx := cfg.CtxSel.EmptyContext()
	entryCM := s.cs.CSMethodFor(entryCtx, cfg.Entry)
	if err := s.addReachable(entryCM); err != nil {
		return nil, err
	}
	if err := s.run(); err != nil {
		return nil, err
	}

	return &Result{PFG: s.pfg, CallGraph: s.cg, CS: s.cs, PointsTo: s.pts}, nil
}

func (s *solver) ptsOf(n uint32) *ptset.Set {
	p, ok := s.pts[n]
	if !ok {
		p = ptset.New()
		s.pts[n] = p
	}
	return p
}

// indexMethod precomputes the per-var access lists needed to find
// "store/load on v" and "instance invoke r = v.m(...)"
// for a given variable v — a property of the method's body, independent
// of calling context, so it is only built once no matter how many
// contexts reach this method.
func (s *solver) indexMethod(m *ir.Method) {
	if s.indexed[m] {
		return
	}
	s.indexed[m] = true
	index := func(v *ir.Var) {
		if v != nil {
			s.methodOf[v] = m
		}
	}
	index(m.Recv)
	for _, p := range m.Params {
		index(p)
	}
	for _, stmt := range m.Body {
		switch t := stmt.(type) {
		case *ir.NewStmt:
			index(t.X)
		case *ir.CopyStmt:
			index(t.X)
			index(t.Y)
		case *ir.StoreFieldStmt:
			index(t.Y)
			if t.Base != nil {
				index(t.Base)
				s.instFieldStores[t.Base] = append(s.instFieldStores[t.Base], t)
			}
		case *ir.LoadFieldStmt:
			index(t.X)
			if t.Base != nil {
				index(t.Base)
				s.instFieldLoads[t.Base] = append(s.instFieldLoads[t.Base], t)
			}
		case *ir.StoreArrayStmt:
			index(t.Base)
			index(t.Y)
			s.arrayStores[t.Base] = append(s.arrayStores[t.Base], t)
		case *ir.LoadArrayStmt:
			index(t.X)
			index(t.Base)
			s.arrayLoads[t.Base] = append(s.arrayLoads[t.Base], t)
		case *ir.InvokeStmt:
			index(t.Result)
			index(t.Recv)
			for _, a := range t.Args {
				index(a)
			}
			if t.Recv != nil {
				s.instanceInvokes[t.Recv] = append(s.instanceInvokes[t.Recv], t)
			}
		case *ir.AssignStmt:
			index(t.X)
		}
	}
}

// addReachable marks a context-sensitive method reachable, indexes its
// body, and seeds its allocation/static-access statements.
func (s *solver) addReachable(csMethod *csmanager.CSMethod) error {
	if s.reachable[csMethod.ID] {
		return nil
	}
	s.reachable[csMethod.ID] = true
	s.cg.AddNode(csMethod)
	s.indexMethod(csMethod.Method)

	for _, stmt := range csMethod.Method.Body {
		switch t := stmt.(type) {
		case *ir.NewStmt:
			obj := s.cfg.Heap.GetObj(t)
			hc := s.cfg.CtxSel.SelectHeapContext(csMethod, obj)
			cso := s.cs.CSObjFor(hc, obj)
			xid := s.cs.VarPtr(csMethod.Ctx, t.X)
			delta := ptset.New()
			delta.Add(cso.ID)
			s.wl.Push(xid, delta)

		case *ir.CopyStmt:
			yid := s.cs.VarPtr(csMethod.Ctx, t.Y)
			xid := s.cs.VarPtr(csMethod.Ctx, t.X)
			s.addPFGEdge(yid, xid)

		case *ir.StoreFieldStmt:
			if t.Base == nil { // static store: T.f = y
				yid := s.cs.VarPtr(csMethod.Ctx, t.Y)
				fid := s.cs.StaticField(t.Field)
				s.addPFGEdge(yid, fid)
			}

		case *ir.LoadFieldStmt:
			if t.Base == nil { // static load: x = T.f
				fid := s.cs.StaticField(t.Field)
				xid := s.cs.VarPtr(csMethod.Ctx, t.X)
				s.addPFGEdge(fid, xid)
			}

		case *ir.InvokeStmt:
			if t.Recv == nil { // static invoke
				if err := s.processStaticInvoke(csMethod, t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// processStaticInvoke resolves and wires a static call ("x = T.m(...)").
func (s *solver) processStaticInvoke(caller *csmanager.CSMethod, stmt *ir.InvokeStmt) error {
	callee := stmt.Method
	if callee == nil {
		return &ir.MalformedIRError{Stmt: stmt, Method: caller.Method, Reason: "static invoke with no resolved target"}
	}
	site := &ir.CallSite{Caller: caller.Method, Stmt: stmt}
	csCallSite := s.cs.CSCallSiteFor(caller.Ctx, site)
	calleeCtx := s.cfg.CtxSel.SelectContext(csCallSite, callee)
	calleeCM := s.cs.CSMethodFor(calleeCtx, callee)

	if err := s.addReachable(calleeCM); err != nil {
		return err
	}
	if s.cg.AddEdge(caller, csCallSite, calleeCM, ir.StaticCall) {
		s.wireParamsAndReturns(caller, calleeCM, stmt)
	}
	return nil
}

// wireParamsAndReturns adds parameter edges (caller arg -> callee
// param) and return edges (callee result -> caller result var), shared
// between static and virtual calls.
func (s *solver) wireParamsAndReturns(caller, callee *csmanager.CSMethod, stmt *ir.InvokeStmt) {
	params := callee.Method.Params
	for i, arg := range stmt.Args {
		if i >= len(params) {
			break
		}
		argID := s.cs.VarPtr(caller.Ctx, arg)
		paramID := s.cs.VarPtr(callee.Ctx, params[i])
		s.addPFGEdge(argID, paramID)
	}
	if stmt.Result == nil {
		return
	}
	resultID := s.cs.VarPtr(caller.Ctx, stmt.Result)
	for _, ret := range calleeReturnVars(callee.Method) {
		retID := s.cs.VarPtr(callee.Ctx, ret)
		s.addPFGEdge(retID, resultID)
	}
}

func calleeReturnVars(m *ir.Method) []*ir.Var {
	var out []*ir.Var
	for _, stmt := range m.Body {
		if r, ok := stmt.(*ir.ReturnStmt); ok {
			out = append(out, r.Results...)
		}
	}
	return out
}

// addPFGEdge adds a PFG edge and, if the source already has a
// non-empty points-to set, pushes it across the new edge immediately.
func (s *solver) addPFGEdge(src, dst uint32) {
	if !s.pfg.AddEdge(src, dst) {
		return
	}
	if p := s.ptsOf(src); p.Len() > 0 {
		s.wl.Push(dst, p)
	}
}

// run drains the worklist to a fixed point.
func (s *solver) run() error {
	for {
		e, ok := s.wl.Poll()
		if !ok {
			return nil
		}
		n, inc := e.Node, e.Delta
		cur := s.ptsOf(n)
		delta := cur.Diff(inc)
		if delta.Len() == 0 {
			continue
		}
		cur.UnionInPlace(delta)

		for _, t := range s.pfg.Succs(n) {
			s.wl.Push(t, delta)
		}

		node := s.cs.Node(n)
		if node.Kind != csmanager.VarPtrKind {
			continue
		}
		ctx, v := node.Ctx, node.Var
		for _, o := range delta.Iter() {
			cso := s.cs.ObjByID(o)
			if err := s.processVarObject(ctx, v, cso); err != nil {
				return err
			}
		}
	}
}

// processVarObject wires instance field/array store-load edges and
// drives processCall for one newly-discovered (v, o) pair.
func (s *solver) processVarObject(ctx csmanager.Ctx, v *ir.Var, o csmanager.CSObj) error {
	for _, st := range s.instFieldStores[v] {
		yid := s.cs.VarPtr(ctx, st.Y)
		fid := s.cs.InstanceField(o, st.Field)
		s.addPFGEdge(yid, fid)
	}
	for _, ld := range s.instFieldLoads[v] {
		fid := s.cs.InstanceField(o, ld.Field)
		xid := s.cs.VarPtr(ctx, ld.X)
		s.addPFGEdge(fid, xid)
	}
	for _, st := range s.arrayStores[v] {
		yid := s.cs.VarPtr(ctx, st.Y)
		aid := s.cs.ArrayIndex(o)
		s.addPFGEdge(yid, aid)
	}
	for _, ld := range s.arrayLoads[v] {
		aid := s.cs.ArrayIndex(o)
		xid := s.cs.VarPtr(ctx, ld.X)
		s.addPFGEdge(aid, xid)
	}
	return s.processCall(ctx, v, o)
}

// processCall resolves and wires every virtual invoke rooted at v once
// v is known to point at object o.
func (s *solver) processCall(ctx csmanager.Ctx, v *ir.Var, o csmanager.CSObj) error {
	caller := s.cs.CSMethodFor(ctx, s.methodOf[v])
	for _, invoke := range s.instanceInvokes[v] {
		site := &ir.CallSite{Caller: caller.Method, Stmt: invoke}
		csCallSite := s.cs.CSCallSiteFor(ctx, site)

		callee, ok := s.cfg.Hierarchy.ResolveCallee(o.Type(), site)
		if !ok {
			continue // abstract/unresolved target: no edge, no error.
		}
		calleeCtx := s.cfg.CtxSel.SelectContextVirtual(csCallSite, o, callee)
		calleeCM := s.cs.CSMethodFor(calleeCtx, callee)

		if callee.Recv != nil {
			thisID := s.cs.VarPtr(calleeCtx, callee.Recv)
			delta := ptset.New()
			delta.Add(o.ID)
			s.wl.Push(thisID, delta)
		}
		if err := s.addReachable(calleeCM); err != nil {
			return err
		}

		kind := invoke.Kind
		if s.cg.AddEdge(caller, csCallSite, calleeCM, kind) {
			s.wireParamsAndReturns(caller, calleeCM, invoke)
		}
	}
	return nil
}

// ReachableMethods returns every method the solver marked reachable,
// in a deterministic order, for diagnostics and tests.
func (r *Result) ReachableMethods() []*csmanager.CSMethod {
	ms := r.CallGraph.Nodes()
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms
}

// ReachableFlatMethods dedups ReachableMethods down to the distinct
// *ir.Method values reached under any context — the flat method set
// icp walks to build its merged ICFG, since ICP's per-Var facts don't
// distinguish PTA contexts.
func (r *Result) ReachableFlatMethods() []*ir.Method {
	seen := make(map[*ir.Method]bool)
	var out []*ir.Method
	for _, cm := range r.ReachableMethods() {
		if !seen[cm.Method] {
			seen[cm.Method] = true
			out = append(out, cm.Method)
		}
	}
	return out
}

// Vars returns every *ir.Var the solver ever created a VarPtr node for,
// across every context — the flat "vars()" projection icp's consumed
// pointer-analysis-result contract expects.
func (r *Result) Vars() []*ir.Var {
	seen := make(map[*ir.Var]bool)
	var out []*ir.Var
	for _, n := range r.CS.AllNodes() {
		if n.Kind == csmanager.VarPtrKind && !seen[n.Var] {
			seen[n.Var] = true
			out = append(out, n.Var)
		}
	}
	return out
}

// PointsToOfVarFlat unions a variable's points-to set across every
// context it was analyzed under — the flat "pointsToSet(var)"
// projection icp consumes, since icp reasons about aliasing at the Var
// level, not the context-sensitive VarPtr level.
func (r *Result) PointsToOfVarFlat(v *ir.Var) *ptset.Set {
	union := ptset.New()
	for _, n := range r.CS.AllNodes() {
		if n.Kind == csmanager.VarPtrKind && n.Var == v {
			if s, ok := r.PointsTo[n.ID]; ok {
				union.UnionInPlace(s)
			}
		}
	}
	return union
}
