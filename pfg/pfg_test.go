package pfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddEdgeIdempotent(t *testing.T) {
	g := New()
	require.True(t, g.AddEdge(1, 2))
	require.False(t, g.AddEdge(1, 2))
	require.Equal(t, 1, g.NumEdges())
}

func TestSuccsSnapshot(t *testing.T) {
	g := New()
	g.AddEdge(1, 2)
	g.AddEdge(1, 3)
	require.ElementsMatch(t, []uint32{2, 3}, g.Succs(1))
	require.Nil(t, g.Succs(99))
}

func TestHasEdge(t *testing.T) {
	g := New()
	require.False(t, g.HasEdge(1, 2))
	g.AddEdge(1, 2)
	require.True(t, g.HasEdge(1, 2))
	require.False(t, g.HasEdge(2, 1))
}
