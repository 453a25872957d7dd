// Package ctxsel defines the consumed ContextSelector contract plus two
// concrete selectors: Insensitive (context-insensitive PTA) and
// CallSiteSensitive (k-CFA-style, for the CS variant).
package ctxsel

import (
	"wpa/csmanager"
	"wpa/ir"
)

// ContextSelector controls the identity contexts carry throughout the
// solver. HeapCtx is typed any because Insensitive and
// CallSiteSensitive use different token shapes (unit vs. string
// chain); the solver never inspects a context beyond equality.
type ContextSelector interface {
	EmptyContext() csmanager.Ctx
	SelectHeapContext(csMethod *csmanager.CSMethod, obj ir.Obj) any
	SelectContext(csCallSite *csmanager.CSCallSite, callee *ir.Method) csmanager.Ctx
	SelectContextVirtual(csCallSite *csmanager.CSCallSite, receiverObj csmanager.CSObj, callee *ir.Method) csmanager.Ctx
}

// Insensitive collapses every context to csmanager.Unit, giving the
// context-insensitive PTA variant.
type Insensitive struct{}

func (Insensitive) EmptyContext() csmanager.Ctx { return csmanager.Unit }

func (Insensitive) SelectHeapContext(*csmanager.CSMethod, ir.Obj) any { return csmanager.Unit }

func (Insensitive) SelectContext(*csmanager.CSCallSite, *ir.Method) csmanager.Ctx {
	return csmanager.Unit
}

func (Insensitive) SelectContextVirtual(*csmanager.CSCallSite, csmanager.CSObj, *ir.Method) csmanager.Ctx {
	return csmanager.Unit
}

// CallSiteSensitive implements classic k-CFA: a context is the chain of
// the k most recent call sites leading to the current method,
// represented as a string of call-site identifiers for simple,
// comparable hashing. Heap contexts are 0-CFA-style: the allocating
// method's own context (a common simplification that leaves the exact
// heap-context shape unspecified beyond "0-CFA-style").
type CallSiteSensitive struct {
	K int
}

// NewCallSiteSensitive returns a k-CFA selector with the given depth.
// k == 0 degenerates to Insensitive's behavior (every chain truncates
// to empty).
func NewCallSiteSensitive(k int) CallSiteSensitive { return CallSiteSensitive{K: k} }

func (CallSiteSensitive) EmptyContext() csmanager.Ctx { return chain("") }

func (s CallSiteSensitive) SelectHeapContext(csMethod *csmanager.CSMethod, _ ir.Obj) any {
	return csMethod.Ctx
}

func (s CallSiteSensitive) SelectContext(cs *csmanager.CSCallSite, _ *ir.Method) csmanager.Ctx {
	return s.extend(cs)
}

func (s CallSiteSensitive) SelectContextVirtual(cs *csmanager.CSCallSite, _ csmanager.CSObj, _ *ir.Method) csmanager.Ctx {
	return s.extend(cs)
}

func (s CallSiteSensitive) extend(cs *csmanager.CSCallSite) csmanager.Ctx {
	var segs []string
	if c, ok := cs.Ctx.(chain); ok && c != "" {
		segs = splitChain(c)
	}
	segs = append(segs, siteID(cs.Site))
	if len(segs) > s.K {
		segs = segs[len(segs)-s.K:]
	}
	return joinChain(segs)
}

// chain is a k-CFA context: the last k call-site ids, joined into a
// single comparable string so it can serve directly as a csmanager.Ctx
// map key (plain slices are not comparable).
type chain string

const chainSep = "\x00"

func splitChain(c chain) []string {
	var out []string
	s := string(c)
	for s != "" {
		i := indexByte(s, chainSep[0])
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i])
		s = s[i+1:]
	}
	return out
}

func joinChain(segs []string) chain {
	s := ""
	for i, seg := range segs {
		if i > 0 {
			s += chainSep
		}
		s += seg
	}
	return chain(s)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func siteID(site *ir.CallSite) string {
	if site == nil || site.Stmt == nil {
		return "<nil>"
	}
	return site.Caller.ID + "#" + itoa(site.Stmt.Index())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
