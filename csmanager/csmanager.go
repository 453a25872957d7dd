// Package csmanager implements interning of context-sensitive pointer
// nodes, methods, call sites, and objects. Every node is created lazily
// on first reference and never destroyed; equal keys always resolve to
// the same node identity.
//
// The context-insensitive variant of the PTA uses Unit as every
// method/call-site/object's context, collapsing context sensitivity to
// a single contour — the manager itself does not know which mode it is
// running in, it only interns whatever Ctx values it is given.
package csmanager

import "wpa/ir"

// Ctx is an opaque, hashable context token. The context selector
// produces these; the manager only ever compares them for equality as
// map keys.
type Ctx any

// Unit is the distinguished empty/context-insensitive context.
var Unit Ctx = struct{}{}

// PtrKind tags which pointer-node variant an interned id represents.
type PtrKind int

const (
	VarPtrKind PtrKind = iota
	InstanceFieldKind
	StaticFieldKind
	ArrayIndexKind
)

// PtrNode is the information recorded for one interned pointer-node
// id. Exactly the fields relevant to Kind are populated.
type PtrNode struct {
	ID    uint32
	Kind  PtrKind
	Ctx   Ctx     // VarPtrKind only
	Var   *ir.Var // VarPtrKind only
	Obj   CSObj   // InstanceFieldKind, ArrayIndexKind
	Field *ir.Field
}

// CSObj is a context-sensitive abstract object: a heap-context-
// qualified wrapper around the opaque Obj the heap model produced.
type CSObj struct {
	ID      uint32
	HeapCtx any
	Obj     ir.Obj
}

func (o CSObj) Type() ir.Type { return o.Obj.Type() }

// CSMethod is a context-sensitive method (Ctx, Method).
type CSMethod struct {
	ID     uint32
	Ctx    Ctx
	Method *ir.Method
}

func (m *CSMethod) String() string { return m.Method.ID }

// CSCallSite is a context-sensitive call site (Ctx, CallSite).
type CSCallSite struct {
	ID   uint32
	Ctx  Ctx
	Site *ir.CallSite
}

type fieldKey struct{ class, name string }

func keyOf(f *ir.Field) fieldKey { return fieldKey{f.Class, f.Name} }

type varKey struct {
	ctx Ctx
	v   *ir.Var
}

type instFieldKey struct {
	objID uint32
	field fieldKey
}

type objKey struct {
	heapCtx any
	obj     ir.Obj
}

type methodKey struct {
	ctx Ctx
	m   *ir.Method
}

type callSiteKey struct {
	ctx  Ctx
	stmt *ir.InvokeStmt
}

// Manager owns every interning table for a single solve() run. It is
// not safe for concurrent use: the solver owns this instance
// exclusively.
type Manager struct {
	nodes     []*PtrNode
	varPtrs   map[varKey]uint32
	instField map[instFieldKey]uint32
	statField map[fieldKey]uint32
	arrayIdx  map[uint32]uint32 // keyed by owning CSObj id

	objs      []CSObj
	objIndex  map[objKey]uint32

	methods   map[methodKey]*CSMethod
	callsites map[callSiteKey]*CSCallSite
}

// New returns an empty manager.
func New() *Manager {
	return &Manager{
		varPtrs:   make(map[varKey]uint32),
		instField: make(map[instFieldKey]uint32),
		statField: make(map[fieldKey]uint32),
		arrayIdx:  make(map[uint32]uint32),
		objIndex:  make(map[objKey]uint32),
		methods:   make(map[methodKey]*CSMethod),
		callsites: make(map[callSiteKey]*CSCallSite),
	}
}

func (m *Manager) alloc(n *PtrNode) uint32 {
	id := uint32(len(m.nodes))
	n.ID = id
	m.nodes = append(m.nodes, n)
	return id
}

// VarPtr interns VarPtr(ctx, v).
func (m *Manager) VarPtr(ctx Ctx, v *ir.Var) uint32 {
	k := varKey{ctx, v}
	if id, ok := m.varPtrs[k]; ok {
		return id
	}
	id := m.alloc(&PtrNode{Kind: VarPtrKind, Ctx: ctx, Var: v})
	m.varPtrs[k] = id
	return id
}

// InstanceField interns InstanceField(obj, f).
func (m *Manager) InstanceField(obj CSObj, f *ir.Field) uint32 {
	k := instFieldKey{obj.ID, keyOf(f)}
	if id, ok := m.instField[k]; ok {
		return id
	}
	id := m.alloc(&PtrNode{Kind: InstanceFieldKind, Obj: obj, Field: f})
	m.instField[k] = id
	return id
}

// StaticField interns StaticField(f); static fields are context-free,
// keyed only by (Class, Name).
func (m *Manager) StaticField(f *ir.Field) uint32 {
	k := keyOf(f)
	if id, ok := m.statField[k]; ok {
		return id
	}
	id := m.alloc(&PtrNode{Kind: StaticFieldKind, Field: f})
	m.statField[k] = id
	return id
}

// ArrayIndex interns the single index-collapsed slot of obj.
func (m *Manager) ArrayIndex(obj CSObj) uint32 {
	if id, ok := m.arrayIdx[obj.ID]; ok {
		return id
	}
	id := m.alloc(&PtrNode{Kind: ArrayIndexKind, Obj: obj})
	m.arrayIdx[obj.ID] = id
	return id
}

// Node returns the interned pointer-node info for id.
func (m *Manager) Node(id uint32) *PtrNode { return m.nodes[id] }

// NumNodes returns the number of interned pointer nodes.
func (m *Manager) NumNodes() int { return len(m.nodes) }

// AllNodes returns every interned pointer node, in id order.
func (m *Manager) AllNodes() []*PtrNode { return m.nodes }

// CSObjFor interns (heapCtx, obj) as a context-sensitive object,
// assigning it a dense object id for use as a ptset member.
func (m *Manager) CSObjFor(heapCtx any, obj ir.Obj) CSObj {
	k := objKey{heapCtx, obj}
	if id, ok := m.objIndex[k]; ok {
		return m.objs[id]
	}
	id := uint32(len(m.objs))
	cso := CSObj{ID: id, HeapCtx: heapCtx, Obj: obj}
	m.objs = append(m.objs, cso)
	m.objIndex[k] = id
	return cso
}

// ObjByID returns the CSObj previously interned with this id.
func (m *Manager) ObjByID(id uint32) CSObj { return m.objs[id] }

// NumObjs returns the number of interned objects.
func (m *Manager) NumObjs() int { return len(m.objs) }

// CSMethodFor interns (ctx, method).
func (m *Manager) CSMethodFor(ctx Ctx, method *ir.Method) *CSMethod {
	k := methodKey{ctx, method}
	if cm, ok := m.methods[k]; ok {
		return cm
	}
	cm := &CSMethod{ID: uint32(len(m.methods)), Ctx: ctx, Method: method}
	m.methods[k] = cm
	return cm
}

// CSCallSiteFor interns (ctx, site). Sites are keyed by their invoke
// statement, so separately built CallSite values for the same call
// instruction resolve to one CSCallSite under a given context.
func (m *Manager) CSCallSiteFor(ctx Ctx, site *ir.CallSite) *CSCallSite {
	k := callSiteKey{ctx, site.Stmt}
	if cs, ok := m.callsites[k]; ok {
		return cs
	}
	cs := &CSCallSite{ID: uint32(len(m.callsites)), Ctx: ctx, Site: site}
	m.callsites[k] = cs
	return cs
}
