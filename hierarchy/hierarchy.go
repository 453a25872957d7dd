// Package hierarchy defines the consumed ClassHierarchy and HeapModel
// contracts, plus a small in-memory reference implementation sufficient
// to drive virtual dispatch and object allocation for tests and the
// demo CLI.
package hierarchy

import (
	"strings"

	"wpa/ir"
)

// ClassHierarchy resolves virtual dispatch. receiverType may be the
// zero Type (meaning "unknown"/static context); implementations should
// treat that as "no narrowing available" rather than panic.
type ClassHierarchy interface {
	ResolveCallee(receiverType ir.Type, site *ir.CallSite) (*ir.Method, bool)
}

// HeapModel abstracts allocation sites into Obj handles. GetObj must be
// deterministic per statement: the same *ir.NewStmt always yields an
// Obj that compares equal to itself.
type HeapModel interface {
	GetObj(site *ir.NewStmt) ir.Obj
}

// AllocSite is the HeapModel-produced Obj for SimpleHeapModel: one
// object per allocation site, i.e. the classic allocation-site
// abstraction.
type AllocSite struct {
	stmt *ir.NewStmt
	typ  ir.Type
}

func (a AllocSite) Type() ir.Type { return a.typ }

// SimpleHeapModel implements the allocation-site abstraction: it
// never distinguishes two objects created by the same NewStmt, however
// many times execution reaches it.
type SimpleHeapModel struct{}

func (SimpleHeapModel) GetObj(site *ir.NewStmt) ir.Obj {
	return AllocSite{stmt: site, typ: site.Type}
}

// classInfo is one class's hierarchy entry: its superclass name (empty
// for the root) and its declared methods, keyed by signature.
type classInfo struct {
	super   string
	methods map[string]*ir.Method
}

// SimpleHierarchy is a map-based class hierarchy: superclass links plus
// a per-class method table, searched from the most-derived class
// upward — the textbook single-inheritance virtual dispatch algorithm.
type SimpleHierarchy struct {
	classes map[string]*classInfo
}

// NewSimpleHierarchy returns an empty hierarchy; populate it with
// AddClass before use.
func NewSimpleHierarchy() *SimpleHierarchy {
	return &SimpleHierarchy{classes: make(map[string]*classInfo)}
}

// AddClass registers class with the given superclass (empty string for
// none) and its declared methods, keyed by signature (e.g. method
// name, or name+arity if the program allows overloading).
func (h *SimpleHierarchy) AddClass(class, super string, methods map[string]*ir.Method) {
	h.classes[class] = &classInfo{super: super, methods: methods}
}

// ResolveCallee implements ClassHierarchy by walking from
// receiverType's class up the superclass chain until a method matching
// the call site's signature is found. If receiverType is the zero
// Type, or the class is unknown, or no class in the chain declares the
// signature, it returns (nil, false): an unresolved virtual call is a
// valid outcome, not an error.
func (h *SimpleHierarchy) ResolveCallee(receiverType ir.Type, site *ir.CallSite) (*ir.Method, bool) {
	sig := methodSignature(site.Stmt.Method)
	class := receiverType.Name
	for class != "" {
		info, ok := h.classes[class]
		if !ok {
			return nil, false
		}
		if m, ok := info.methods[sig]; ok {
			return m, true
		}
		class = info.super
	}
	return nil, false
}

// methodSignature extracts the dispatch-relevant suffix of a declared
// method's qualified ID (everything after the last '.'), e.g.
// "Animal.speak" and "Dog.speak" both resolve to signature "speak", the
// key AddClass's method tables are indexed by.
func methodSignature(declared *ir.Method) string {
	if declared == nil {
		return ""
	}
	if i := strings.LastIndex(declared.ID, "."); i >= 0 {
		return declared.ID[i+1:]
	}
	return declared.ID
}
