// Package deadcode implements component J: dead statement detection by
// combining CFG reachability (pruned by constant branch/switch
// conditions from icp) with useless-assignment detection (via
// livevar).
//
// Grounded on a plain BFS reachability walk over successor edges
// keyed by instruction, generalized from machine addresses to ir.Stmt,
// plus the explicit rule that a branch/switch with a known constant
// condition prunes its never-taken edge(s) rather than treating both
// successors as live.
package deadcode

import (
	"sort"

	"wpa/cfgiface"
	"wpa/icp"
	"wpa/ir"
	"wpa/livevar"
	"wpa/value"
)

// Reason tags why a statement was flagged dead.
type Reason int

const (
	Unreachable Reason = iota
	UselessAssignment
)

func (r Reason) String() string {
	if r == UselessAssignment {
		return "useless assignment"
	}
	return "unreachable"
}

// Finding is one dead statement.
type Finding struct {
	Stmt   ir.Stmt
	Reason Reason
}

// Config bundles the per-method CFG plus the whole-program ICP result
// driving constant-guided branch pruning.
type Config struct {
	Graph cfgiface.Graph
	ICP   *icp.Result
}

// Find returns every dead statement in Config.Graph, sorted by
// statement index for a reproducible, diffable report.
func Find(cfg Config) []Finding {
	reachable := reachableStmts(cfg.Graph, cfg.ICP)
	live := livevar.Run(cfg.Graph)

	var out []Finding
	for _, s := range cfg.Graph.Stmts() {
		if !reachable[s] {
			out = append(out, Finding{Stmt: s, Reason: Unreachable})
			continue
		}
		if isUselessAssignment(s, live) {
			out = append(out, Finding{Stmt: s, Reason: UselessAssignment})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stmt.Index() < out[j].Stmt.Index() })
	return out
}

// reachableStmts is a BFS from the graph's entry, skipping any branch
// successor icp proves can never be taken: an IfStmt whose condition is
// a known CONST only follows the taken edge; a SwitchStmt whose tag is
// a known CONST only follows the matching case (or default, if none
// match).
func reachableStmts(g cfgiface.Graph, res *icp.Result) map[ir.Stmt]bool {
	seen := make(map[ir.Stmt]bool)
	if g.Entry() == nil {
		return seen
	}
	queue := []ir.Stmt{g.Entry()}
	seen[g.Entry()] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, e := range succsPruned(g, s, res) {
			if !seen[e.Stmt] {
				seen[e.Stmt] = true
				queue = append(queue, e.Stmt)
			}
		}
	}
	return seen
}

// succsPruned returns s's successor edges, dropping any that icp
// proves unreachable given a constant branch condition.
func succsPruned(g cfgiface.Graph, s ir.Stmt, res *icp.Result) []cfgiface.Edge {
	edges := g.Succs(s)
	if res == nil {
		return edges
	}
	switch t := s.(type) {
	case *ir.IfStmt:
		cond := value.Evaluate(t.Cond, res.OutFact(s))
		if !cond.IsConst() {
			return edges
		}
		want := cfgiface.IF_FALSE
		if cond.C != 0 {
			want = cfgiface.IF_TRUE
		}
		return filterKind(edges, want)
	case *ir.SwitchStmt:
		tagVal := res.OutFact(s).Get(t.Tag)
		if !tagVal.IsConst() {
			return edges
		}
		var matched []cfgiface.Edge
		for _, e := range edges {
			if e.Kind == cfgiface.SWITCH_CASE && e.CaseValue == tagVal.C {
				matched = append(matched, e)
			}
		}
		if len(matched) > 0 {
			return matched
		}
		return filterKind(edges, cfgiface.SWITCH_DEFAULT)
	default:
		return edges
	}
}

func filterKind(edges []cfgiface.Edge, kind cfgiface.EdgeKind) []cfgiface.Edge {
	var out []cfgiface.Edge
	for _, e := range edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// isUselessAssignment reports whether s defines a variable that is not
// live immediately afterward — the assignment's value is never read on
// any path — restricted to statements whose right-hand side is
// side-effect-free: a dead lvalue alone is not enough to report object
// allocation, a field/array access, or a division/remainder as useless,
// since evaluating (or skipping) them is itself observable.
func isUselessAssignment(s ir.Stmt, live *livevar.Result) bool {
	if !sideEffectFree(s) {
		return false
	}
	v := definedVar(s)
	if v == nil {
		return false
	}
	return !live.LiveOut(s)[v]
}

// sideEffectFree reports whether s is a copy or an arithmetic/
// comparison AssignStmt with no division or remainder anywhere in its
// right-hand side. NewStmt, LoadFieldStmt, LoadArrayStmt, and any
// div/rem AssignStmt are never side-effect-free.
func sideEffectFree(s ir.Stmt) bool {
	switch t := s.(type) {
	case *ir.CopyStmt:
		return true
	case *ir.AssignStmt:
		return exprSideEffectFree(t.Rhs)
	default:
		return false
	}
}

func exprSideEffectFree(e ir.Expr) bool {
	switch e := e.(type) {
	case ir.VarExpr, ir.ConstExpr:
		return true
	case ir.BinExpr:
		if e.Op == ir.DIV || e.Op == ir.REM {
			return false
		}
		return exprSideEffectFree(e.X) && exprSideEffectFree(e.Y)
	default:
		return false
	}
}

func definedVar(s ir.Stmt) *ir.Var {
	switch t := s.(type) {
	case *ir.CopyStmt:
		return t.X
	case *ir.AssignStmt:
		return t.X
	default:
		return nil
	}
}
