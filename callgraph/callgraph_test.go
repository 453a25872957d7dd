package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wpa/csmanager"
	"wpa/ir"
)

func TestAddEdgeIdempotentPerSiteCallee(t *testing.T) {
	g := New()
	caller := &csmanager.CSMethod{ID: 0, Method: &ir.Method{ID: "A.m"}}
	callee := &csmanager.CSMethod{ID: 1, Method: &ir.Method{ID: "B.n"}}
	site := &csmanager.CSCallSite{ID: 0}

	require.True(t, g.AddEdge(caller, site, callee, ir.VirtualCall))
	require.False(t, g.AddEdge(caller, site, callee, ir.VirtualCall))
	require.Len(t, g.Edges(), 1)
}

func TestDistinctCalleesAtSameSiteBothRecorded(t *testing.T) {
	g := New()
	caller := &csmanager.CSMethod{ID: 0, Method: &ir.Method{ID: "A.m"}}
	calleeDog := &csmanager.CSMethod{ID: 1, Method: &ir.Method{ID: "Dog.speak"}}
	calleeCat := &csmanager.CSMethod{ID: 2, Method: &ir.Method{ID: "Cat.speak"}}
	site := &csmanager.CSCallSite{ID: 0}

	g.AddEdge(caller, site, calleeDog, ir.VirtualCall)
	g.AddEdge(caller, site, calleeCat, ir.VirtualCall)
	require.Len(t, g.Edges(), 2)
}

func TestDOTRendersNodesAndEdges(t *testing.T) {
	g := New()
	caller := &csmanager.CSMethod{ID: 0, Method: &ir.Method{ID: "A.m"}}
	callee := &csmanager.CSMethod{ID: 1, Method: &ir.Method{ID: "B.n"}}
	g.AddNode(caller)
	g.AddNode(callee)
	g.AddEdge(caller, &csmanager.CSCallSite{ID: 0}, callee, ir.StaticCall)

	dot := g.DOT("demo")
	require.Contains(t, dot, "digraph")
	require.Contains(t, dot, "A.m")
	require.Contains(t, dot, "B.n")
	require.Contains(t, dot, "->")
}
