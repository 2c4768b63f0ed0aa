package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(root string, edges ...[2]string) *Graph {
	g := newGraph()
	get := func(name string) *Unit {
		if u, ok := g.Units[name]; ok {
			return u
		}
		u := &Unit{Path: name, Name: name}
		g.Units[name] = u
		return u
	}
	g.Root = get(root)
	for _, e := range edges {
		g.addEdge(get(e[0]), get(e[1]))
	}
	return g
}

func TestGraph_DetectCycles_NoCycle(t *testing.T) {
	// Diamond: root -> a -> c, root -> b -> c
	g := buildGraph("root",
		[2]string{"root", "a"},
		[2]string{"root", "b"},
		[2]string{"a", "c"},
		[2]string{"b", "c"},
	)
	assert.NoError(t, g.DetectCycles())
}

func TestGraph_DetectCycles_WithCycle(t *testing.T) {
	// Cycle below the root: root -> a -> b -> c -> a
	g := buildGraph("root",
		[2]string{"root", "a"},
		[2]string{"a", "b"},
		[2]string{"b", "c"},
		[2]string{"c", "a"},
	)

	err := g.DetectCycles()
	require.Error(t, err)

	cycleErr, ok := err.(*CycleError)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Cycle)
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := buildGraph("root",
		[2]string{"root", "a"},
		[2]string{"root", "b"},
		[2]string{"a", "c"},
		[2]string{"b", "c"},
	)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "root"}, names(sorted))
}

func TestGraph_TopologicalSort_Cycle(t *testing.T) {
	g := buildGraph("root", [2]string{"root", "root"})

	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestGraph_Empty(t *testing.T) {
	g := newGraph()
	assert.NoError(t, g.DetectCycles())

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Empty(t, sorted)
}
