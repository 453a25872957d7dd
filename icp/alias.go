package icp

import (
	"wpa/dataflow"
	"wpa/ir"
	"wpa/pta"
	"wpa/ptset"
	"wpa/value"
)

// indexes holds the heap-alias reasoning ICP needs:
// alias(v) — every variable whose flattened points-to set overlaps
// v's — plus per-field/per-var store indexes so a load can be
// re-derived as the meet of every aliased store's value. eng is wired
// up by Run once the dataflow.Engine exists, since store values are
// read from the store statement's own OUT fact.
type indexes struct {
	alias          map[*ir.Var][]*ir.Var
	instanceStores map[*ir.Var][]*ir.StoreFieldStmt // keyed by Base
	arrayStores    map[*ir.Var][]*ir.StoreArrayStmt // keyed by Base
	staticStores   map[*ir.Field][]*ir.StoreFieldStmt
	eng            *dataflow.Engine
}

// buildIndexes scans every method body for field/array stores and
// derives the may-alias partition from res's flattened points-to sets.
func buildIndexes(methods []*ir.Method, res *pta.Result) *indexes {
	idx := &indexes{
		instanceStores: make(map[*ir.Var][]*ir.StoreFieldStmt),
		arrayStores:    make(map[*ir.Var][]*ir.StoreArrayStmt),
		staticStores:   make(map[*ir.Field][]*ir.StoreFieldStmt),
	}
	for _, m := range methods {
		for _, s := range m.Body {
			switch t := s.(type) {
			case *ir.StoreFieldStmt:
				if t.Base == nil {
					idx.staticStores[t.Field] = append(idx.staticStores[t.Field], t)
				} else {
					idx.instanceStores[t.Base] = append(idx.instanceStores[t.Base], t)
				}
			case *ir.StoreArrayStmt:
				idx.arrayStores[t.Base] = append(idx.arrayStores[t.Base], t)
			}
		}
	}
	idx.alias = computeAlias(res)
	return idx
}

// computeAlias partitions res.Vars() into may-alias groups by union-
// find over pairwise points-to-set intersection — O(V²) but V is the
// number of integer/reference-typed locals in one analyzed program,
// never large enough for this to matter.
func computeAlias(res *pta.Result) map[*ir.Var][]*ir.Var {
	vars := res.Vars()
	parent := make(map[*ir.Var]*ir.Var, len(vars))
	var find func(v *ir.Var) *ir.Var
	find = func(v *ir.Var) *ir.Var {
		if parent[v] == nil {
			parent[v] = v
		}
		if parent[v] != v {
			parent[v] = find(parent[v])
		}
		return parent[v]
	}
	union := func(a, b *ir.Var) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, v := range vars {
		find(v)
	}
	for i, v := range vars {
		pv := res.PointsToOfVarFlat(v)
		for _, w := range vars[i+1:] {
			if ptsIntersect(pv, res.PointsToOfVarFlat(w)) {
				union(v, w)
			}
		}
	}

	groups := make(map[*ir.Var][]*ir.Var)
	for _, v := range vars {
		r := find(v)
		groups[r] = append(groups[r], v)
	}
	out := make(map[*ir.Var][]*ir.Var, len(vars))
	for _, v := range vars {
		out[v] = groups[find(v)]
	}
	return out
}

func ptsIntersect(a, b *ptset.Set) bool {
	for _, id := range a.Iter() {
		if b.Contains(id) {
			return true
		}
	}
	return false
}

func sameField(a, b *ir.Field) bool { return a.Class == b.Class && a.Name == b.Name }

func (idx *indexes) aliasClosure(v *ir.Var) []*ir.Var {
	if c := idx.alias[v]; c != nil {
		return c
	}
	return []*ir.Var{v}
}

func (idx *indexes) staticLoadValue(f *ir.Field) value.Value {
	vals := make([]value.Value, 0, len(idx.staticStores[f]))
	for _, st := range idx.staticStores[f] {
		vals = append(vals, asFact(idx.eng.GetOutFact(st)).Get(st.Y))
	}
	return value.MeetAll(vals)
}

func (idx *indexes) instanceLoadValue(base *ir.Var, f *ir.Field) value.Value {
	var vals []value.Value
	for _, w := range idx.aliasClosure(base) {
		for _, st := range idx.instanceStores[w] {
			if sameField(st.Field, f) {
				vals = append(vals, asFact(idx.eng.GetOutFact(st)).Get(st.Y))
			}
		}
	}
	return value.MeetAll(vals)
}

// arrayLoadValue meets the value of every aliased store whose index
// may (per match) target the same slot as loadIdx, the load's own
// index value.
func (idx *indexes) arrayLoadValue(base *ir.Var, loadIdx value.Value) value.Value {
	var vals []value.Value
	for _, w := range idx.aliasClosure(base) {
		for _, st := range idx.arrayStores[w] {
			storeFact := asFact(idx.eng.GetOutFact(st))
			storeIdx := value.Evaluate(st.Index, storeFact)
			if !match(loadIdx, storeIdx) {
				continue
			}
			vals = append(vals, storeFact.Get(st.Y))
		}
	}
	return value.MeetAll(vals)
}

// match is the array-index may-match predicate: two indices may refer
// to the same slot unless one is a known constant that disagrees with
// the other, or either is UNDEF (an index that can never be reached is
// never a match, regardless of what the other side is).
func match(i, j value.Value) bool {
	if i.IsUndef() || j.IsUndef() {
		return false
	}
	if i.IsNAC() || j.IsNAC() {
		return true
	}
	return i.C == j.C
}
