// Package ir defines the concrete shape of the object-oriented,
// class-based intermediate representation the analyses in this module
// operate over. Building an IR from source, resolving the class
// hierarchy, and constructing CFGs are external concerns (see
// hierarchy and cfgiface); this package only fixes the vocabulary that
// the core algorithms pattern-match against.
package ir

// Kind classifies the handful of types constant propagation tracks.
// Everything that is not one of these kinds passes through ICP as
// identity/NAC rather than being folded.
type Kind int

const (
	KindOther Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
)

// Integral reports whether a variable of this kind participates in the
// integer lattice.
func (k Kind) Integral() bool { return k != KindOther }

// Type is a minimal type descriptor. Name is the qualified class/array
// element name; it is the projection `type(Obj)` resolves to for
// abstract objects.
type Type struct {
	Name string
	Kind Kind
}

func (t Type) String() string { return t.Name }

// Var is a local variable or parameter of a Method.
type Var struct {
	Name string
	Type Type
}

func (v *Var) String() string { return v.Name }

// Field is a class member. Static fields are identified by (Class,
// Name) alone, which is the context-free StaticField key from the
// spec; instance fields additionally need the receiver object, carried
// separately by the pointer-node key, not here.
type Field struct {
	Class string
	Name  string
	Type  Type
}

func (f *Field) String() string { return f.Class + "." + f.Name }

// Obj is an opaque abstract object handle produced by the heap model.
// The core never inspects an Obj beyond equality and Type(); anything
// richer (allocation site, heap context) is the heap model's business.
type Obj interface {
	Type() Type
}

// Method is a declared method, static or instance.
type Method struct {
	ID      string // qualified name, unique across the whole program
	Recv    *Var   // nil for static methods
	Params  []*Var
	Results []*Var
	Body    []Stmt
	Static  bool
}

func (m *Method) String() string { return m.ID }

// CallSite identifies one call instruction within its containing
// method, which is what context selectors key contexts on.
type CallSite struct {
	Caller *Method
	Stmt   *InvokeStmt
}
