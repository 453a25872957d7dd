// Package analysis is the top-level orchestration layer: it wires the
// pointer analysis, constant propagation, dead-code detection, and
// taint tracker together over a whole program into one pipeline.
package analysis

import (
	"fmt"
	"sort"

	"wpa/cfgiface"
	"wpa/ctxsel"
	"wpa/deadcode"
	"wpa/hierarchy"
	"wpa/icp"
	"wpa/ir"
	"wpa/pta"
	"wpa/taint"
)

// Config bundles everything a whole-program run needs: the entry
// method, the class hierarchy and heap model PTA consumes, which
// context selector to run the pointer analysis under, and an optional
// taint specification (a nil Taint runs PTA/ICP/deadcode only).
type Config struct {
	Entry     *ir.Method
	Hierarchy hierarchy.ClassHierarchy
	Heap      hierarchy.HeapModel
	CtxSel    ctxsel.ContextSelector
	Taint     *taint.Config
}

// MethodReport is one reachable method's dead-code findings.
type MethodReport struct {
	Method   *ir.Method
	Findings []deadcode.Finding
}

// Report is the full pipeline's output.
type Report struct {
	PTA      *pta.Result
	ICP      *icp.Result
	Methods  []MethodReport
	Taint    *taint.Result
}

// Run solves the pointer analysis, propagates constants across the
// resulting call graph, finds dead code in every reachable method, and
// — if cfg.Taint is set — tracks taint flows, returning one combined
// report.
func Run(cfg Config) (*Report, error) {
	if cfg.CtxSel == nil {
		cfg.CtxSel = ctxsel.Insensitive{}
	}
	ptaRes, err := pta.Solve(pta.Config{
		Hierarchy: cfg.Hierarchy,
		Heap:      cfg.Heap,
		CtxSel:    cfg.CtxSel,
		Entry:     cfg.Entry,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: Run: pta: %w", err)
	}

	methods := ptaRes.ReachableFlatMethods()
	icpRes := icp.Run(icp.Config{Methods: methods, PTA: ptaRes})

	report := &Report{PTA: ptaRes, ICP: icpRes}
	for _, m := range sortedByID(methods) {
		g := cfgiface.Builder{}.Build(m.Body)
		findings := deadcode.Find(deadcode.Config{Graph: g, ICP: icpRes})
		report.Methods = append(report.Methods, MethodReport{Method: m, Findings: findings})
	}

	if cfg.Taint != nil {
		report.Taint = taint.Run(ptaRes, *cfg.Taint)
	}
	return report, nil
}

func sortedByID(methods []*ir.Method) []*ir.Method {
	out := append([]*ir.Method(nil), methods...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TotalFindings counts dead-code findings across every method in the
// report, split by reason — a small summary cmd/wpa prints after a run.
func (r *Report) TotalFindings() (unreachable, useless int) {
	for _, mr := range r.Methods {
		for _, f := range mr.Findings {
			if f.Reason == deadcode.Unreachable {
				unreachable++
			} else {
				useless++
			}
		}
	}
	return unreachable, useless
}

// ReachableMethodCount reports how many distinct context-sensitive
// method nodes the PTA fixed point marked reachable — useful as a
// quick sanity signal distinct from ReachableFlatMethods' flattened
// count (a context-sensitive run can reach the same method under
// several contexts).
func (r *Report) ReachableMethodCount() int {
	return len(r.PTA.ReachableMethods())
}
