// Package taint implements component G: the taint-flow tracker that
// runs after the PTA fixed point. It maintains an independent
// taint-points-to map over the same CS pointer-node space PTA already
// interned, propagated with the identical diff-driven worklist shape.
//
// Grounded on an on-the-fly call-graph walk (edge iteration over the
// solved call graph) generalized from "visit every call edge once" to
// "re-visit every call edge whenever a new taint object reaches one of
// its arguments", and on pta's own worklist.Worklist[uint32, *ptset.Set]
// solver shape, reused verbatim for taint objects instead of heap
// objects.
package taint

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"wpa/csmanager"
	"wpa/ir"
	"wpa/pta"
	"wpa/ptset"
	"wpa/worklist"
)

// BASE and RET are the argument-index sentinels a Transfer's From/To
// may carry instead of a non-negative argument index: BASE names the
// call's receiver, RET names its result variable. RET resolves the
// ambiguous case where a transfer's target is itself the call's return
// value rather than one of its arguments (e.g. "launder(arg0) -> ret").
const (
	BASE = -1
	RET  = -2
)

// MethodRef identifies a method by its qualified ir.Method.ID, matching
// config entries against call-graph edges without needing the
// collaborator to hand back live *ir.Method pointers.
type MethodRef = string

// Source marks calls to Method as producing a fresh taint object of
// Type at the call's result variable.
type Source struct {
	Method MethodRef
	Type   ir.Type
}

// Sink marks argument ArgIndex of calls to Method as reportable: any
// taint reaching it is a flow.
type Sink struct {
	Method   MethodRef
	ArgIndex int
}

// Transfer propagates a taint already at argument/receiver From to
// argument/receiver/result To, re-keyed to Type, whenever Method is
// called.
type Transfer struct {
	Method   MethodRef
	From, To int
	Type     ir.Type
}

// Config is the parsed taint specification: which methods are sources,
// sinks, and transfers.
type Config struct {
	Sources   []Source
	Sinks     []Sink
	Transfers []Transfer
}

// yamlConfig mirrors Config's field shape for gopkg.in/yaml.v3
// unmarshaling; BASE/RET are accepted as the literal strings "BASE" and
// "RET" in addition to their integer encodings, so a hand-written
// config file reads naturally.
type yamlConfig struct {
	Sources []struct {
		Method string `yaml:"method"`
		Type   string `yaml:"type"`
	} `yaml:"sources"`
	Sinks []struct {
		Method string `yaml:"method"`
		Arg    string `yaml:"arg"`
	} `yaml:"sinks"`
	Transfers []struct {
		Method string `yaml:"method"`
		From   string `yaml:"from"`
		To     string `yaml:"to"`
		Type   string `yaml:"type"`
	} `yaml:"transfers"`
}

// ConfigFromYAML parses a taint specification document.
func ConfigFromYAML(data []byte) (Config, error) {
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Config{}, fmt.Errorf("taint: ConfigFromYAML: %w", err)
	}
	var cfg Config
	for _, s := range y.Sources {
		cfg.Sources = append(cfg.Sources, Source{Method: s.Method, Type: ir.Type{Name: s.Type}})
	}
	for _, s := range y.Sinks {
		idx, err := parseSlot(s.Arg)
		if err != nil {
			return Config{}, fmt.Errorf("taint: ConfigFromYAML: sink %s: %w", s.Method, err)
		}
		cfg.Sinks = append(cfg.Sinks, Sink{Method: s.Method, ArgIndex: idx})
	}
	for _, t := range y.Transfers {
		from, err := parseSlot(t.From)
		if err != nil {
			return Config{}, fmt.Errorf("taint: ConfigFromYAML: transfer %s: %w", t.Method, err)
		}
		to, err := parseSlot(t.To)
		if err != nil {
			return Config{}, fmt.Errorf("taint: ConfigFromYAML: transfer %s: %w", t.Method, err)
		}
		cfg.Transfers = append(cfg.Transfers, Transfer{Method: t.Method, From: from, To: to, Type: ir.Type{Name: t.Type}})
	}
	return cfg, nil
}

func parseSlot(s string) (int, error) {
	switch s {
	case "BASE":
		return BASE, nil
	case "RET":
		return RET, nil
	default:
		var idx int
		if _, err := fmt.Sscanf(s, "%d", &idx); err != nil {
			return 0, fmt.Errorf("invalid slot %q", s)
		}
		return idx, nil
	}
}

// Obj is one interned taint object, keyed by (sourceCallSite, Type).
type Obj struct {
	ID     uint32
	Source *ir.CallSite
	Type   ir.Type
}

type objKey struct {
	site *ir.CallSite
	typ  string
}

// Manager interns Obj values so equal (site, Type) keys always resolve
// to the same taint-object identity, mirroring csmanager's pointer-node
// interning.
type Manager struct {
	objs  []Obj
	index map[objKey]uint32
}

func newManager() *Manager { return &Manager{index: make(map[objKey]uint32)} }

func (m *Manager) intern(site *ir.CallSite, t ir.Type) uint32 {
	k := objKey{site, t.Name}
	if id, ok := m.index[k]; ok {
		return id
	}
	id := uint32(len(m.objs))
	m.objs = append(m.objs, Obj{ID: id, Source: site, Type: t})
	m.index[k] = id
	return id
}

func (m *Manager) ObjByID(id uint32) Obj { return m.objs[id] }

// Flow is one reported source-to-sink taint flow.
type Flow struct {
	Source   *ir.CallSite
	Sink     *ir.CallSite
	ArgIndex int
}

// Result exposes the taint-points-to map and the discovered flows.
type Result struct {
	Manager *Manager
	TPts    map[uint32]*ptset.Set
	Flows   []Flow
}

// Run tracks taint over an already-solved pta.Result per cfg, returning
// every distinct source-to-sink flow in deterministic order.
func Run(res *pta.Result, cfg Config) *Result {
	r := &solver{
		res:  res,
		cfg:  cfg,
		mgr:  newManager(),
		tpts: make(map[uint32]*ptset.Set),
	}
	r.seedSources()
	r.propagate()
	r.scanSinks()
	// Sort by statement index, not pointer identity, so the report is
	// reproducible across runs regardless of allocation order.
	sort.Slice(r.flows, func(i, j int) bool {
		a, b := r.flows[i], r.flows[j]
		if a.Source.Stmt.Index() != b.Source.Stmt.Index() {
			return a.Source.Stmt.Index() < b.Source.Stmt.Index()
		}
		if a.Sink.Stmt.Index() != b.Sink.Stmt.Index() {
			return a.Sink.Stmt.Index() < b.Sink.Stmt.Index()
		}
		return a.ArgIndex < b.ArgIndex
	})
	return &Result{Manager: r.mgr, TPts: r.tpts, Flows: r.flows}
}

type solver struct {
	res   *pta.Result
	cfg   Config
	mgr   *Manager
	tpts  map[uint32]*ptset.Set
	wl    worklist.Worklist[uint32, *ptset.Set]
	flows []Flow
}

func (s *solver) tptsOf(n uint32) *ptset.Set {
	p, ok := s.tpts[n]
	if !ok {
		p = ptset.New()
		s.tpts[n] = p
	}
	return p
}

func (s *solver) sourceFor(methodID MethodRef) (Source, bool) {
	for _, src := range s.cfg.Sources {
		if src.Method == methodID {
			return src, true
		}
	}
	return Source{}, false
}

func (s *solver) transfersFor(methodID MethodRef) []Transfer {
	var out []Transfer
	for _, tr := range s.cfg.Transfers {
		if tr.Method == methodID {
			out = append(out, tr)
		}
	}
	return out
}

// seedSources seeds a fresh taint object at the result variable of
// every reachable call to a source method.
func (s *solver) seedSources() {
	for _, e := range s.res.CallGraph.Edges() {
		src, ok := s.sourceFor(e.Callee.Method.ID)
		if !ok {
			continue
		}
		invoke := e.CallSite.Site.Stmt
		if invoke.Result == nil {
			continue
		}
		objID := s.mgr.intern(e.CallSite.Site, src.Type)
		csVar := s.res.CS.VarPtr(e.Caller.Ctx, invoke.Result)
		delta := ptset.New()
		delta.Add(objID)
		s.wl.Push(csVar, delta)
	}
}

// propagate drains the worklist: for every delta landing at a csVar,
// re-scan every reachable call whose transfer rule's `from`
// slot is that same Var (aliased by Var identity under the same
// context) and push re-keyed taint objects at the `to` slot.
func (s *solver) propagate() {
	for {
		entry, ok := s.wl.Poll()
		if !ok {
			return
		}
		cur := s.tptsOf(entry.Node)
		delta := cur.Diff(entry.Delta)
		if delta.Len() == 0 {
			continue
		}
		cur.UnionInPlace(delta)

		node := s.res.CS.Node(entry.Node)
		if node.Kind != csmanager.VarPtrKind {
			continue
		}
		s.fireTransfers(node, delta)
	}
}

func (s *solver) fireTransfers(node *csmanager.PtrNode, delta *ptset.Set) {
	for _, e := range s.res.CallGraph.Edges() {
		if e.Caller.Ctx != node.Ctx {
			continue
		}
		for _, tr := range s.transfersFor(e.Callee.Method.ID) {
			fromVar := slotVar(e.CallSite.Site.Stmt, tr.From)
			if fromVar == nil || fromVar != node.Var {
				continue
			}
			toVar := slotVar(e.CallSite.Site.Stmt, tr.To)
			if toVar == nil {
				continue
			}
			toCSVar := s.res.CS.VarPtr(e.Caller.Ctx, toVar)
			out := ptset.New()
			for _, id := range delta.Iter() {
				src := s.mgr.ObjByID(id).Source
				out.Add(s.mgr.intern(src, tr.Type))
			}
			s.wl.Push(toCSVar, out)
		}
	}
}

// slotVar resolves a From/To slot to the concrete *ir.Var it names:
// BASE is the receiver, RET is the result, anything else is an
// argument index.
func slotVar(invoke *ir.InvokeStmt, slot int) *ir.Var {
	switch slot {
	case BASE:
		return invoke.Recv
	case RET:
		return invoke.Result
	default:
		if slot < 0 || slot >= len(invoke.Args) {
			return nil
		}
		return invoke.Args[slot]
	}
}

// scanSinks runs after quiescence: every reachable call to a sink
// method reports one flow per taint object
// reaching its marked argument.
func (s *solver) scanSinks() {
	for _, e := range s.res.CallGraph.Edges() {
		for _, sink := range s.sinksFor(e.Callee.Method.ID) {
			argVar := slotVar(e.CallSite.Site.Stmt, sink.ArgIndex)
			if argVar == nil {
				continue
			}
			csVar := s.res.CS.VarPtr(e.Caller.Ctx, argVar)
			pts, ok := s.tpts[csVar]
			if !ok {
				continue
			}
			for _, id := range pts.Iter() {
				obj := s.mgr.ObjByID(id)
				s.flows = append(s.flows, Flow{
					Source:   obj.Source,
					Sink:     e.CallSite.Site,
					ArgIndex: sink.ArgIndex,
				})
			}
		}
	}
}

func (s *solver) sinksFor(methodID MethodRef) []Sink {
	var out []Sink
	for _, sk := range s.cfg.Sinks {
		if sk.Method == methodID {
			out = append(out, sk)
		}
	}
	return out
}
