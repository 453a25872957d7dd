// Package ptset implements a monotonic set of abstract object ids,
// optimized for the common small case (an inline slice) with a bitset
// fallback once a pointer's points-to set grows large.
//
// Grounded on bitset-backed dataflow sets (github.com/willf/bitset, as
// used for GEN/KILL/IN/OUT bitsets in a CFG data-flow builder retrieved
// from the pack's godoctor material), favoring small-set representations
// inline until a set outgrows a handful of elements.
package ptset

import "github.com/willf/bitset"

// inlineCap is the element count at which a Set promotes from a small
// slice to a bitset.
const inlineCap = 8

// Set is a monotonic set of object ids (object identity is managed
// externally, e.g. by csmanager's interning tables, and handed to Set
// as a dense uint32 id space).
type Set struct {
	small []uint32
	big   *bitset.BitSet
}

// New returns an empty set.
func New() *Set { return &Set{} }

// Contains reports whether o is a member.
func (s *Set) Contains(o uint32) bool {
	if s == nil {
		return false
	}
	if s.big != nil {
		return s.big.Test(uint(o))
	}
	for _, v := range s.small {
		if v == o {
			return true
		}
	}
	return false
}

// Add inserts o, returning true iff it was not already present. Once
// the set would outgrow inlineCap it is promoted to a bitset.
func (s *Set) Add(o uint32) bool {
	if s.Contains(o) {
		return false
	}
	if s.big != nil {
		s.big.Set(uint(o))
		return true
	}
	if len(s.small) < inlineCap {
		s.small = append(s.small, o)
		return true
	}
	// Promote.
	b := bitset.New(uint(o) + 1)
	for _, v := range s.small {
		b.Set(uint(v))
	}
	b.Set(uint(o))
	s.small = nil
	s.big = b
	return true
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	if s.big != nil {
		return int(s.big.Count())
	}
	return len(s.small)
}

// Iter returns the members in a stable, ascending order — iteration
// order must be deterministic for reproducible test output.
func (s *Set) Iter() []uint32 {
	if s == nil {
		return nil
	}
	if s.big != nil {
		out := make([]uint32, 0, s.big.Count())
		for i, ok := s.big.NextSet(0); ok; i, ok = s.big.NextSet(i + 1) {
			out = append(out, uint32(i))
		}
		return out
	}
	out := append([]uint32(nil), s.small...)
	sortUint32(out)
	return out
}

func sortUint32(a []uint32) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

// Diff returns the members of other that are not members of s — the
// delta used to seed worklist propagation when merging other into s.
func (s *Set) Diff(other *Set) *Set {
	d := New()
	for _, o := range other.Iter() {
		if !s.Contains(o) {
			d.Add(o)
		}
	}
	return d
}

// UnionInPlace adds every member of other into s, returning the set of
// newly-added members (equivalent to s.Diff(other) computed before the
// union, but in one pass).
func (s *Set) UnionInPlace(other *Set) *Set {
	delta := s.Diff(other)
	for _, o := range delta.Iter() {
		s.Add(o)
	}
	return delta
}
