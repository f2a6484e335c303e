package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/attrs"
	"github.com/Kappa-Dev/ReGraph/graph"
)

func finite(t *testing.T, atoms ...attrs.Atom) attrs.Value {
	t.Helper()
	v, err := attrs.NewFinite(atoms...)
	require.NoError(t, err)
	return v
}

func TestAddRemoveNode(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	assert.True(t, g.HasNode("1"))
	assert.Error(t, g.AddNode("1", nil))

	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", nil))
	require.NoError(t, g.RemoveNode("1"))
	assert.False(t, g.HasNode("1"))
	assert.False(t, g.HasEdge("1", "2"))
}

func TestAddRemoveEdge(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddNode("2", nil))

	assert.Error(t, g.AddEdge("1", "3", nil)) // missing endpoint
	require.NoError(t, g.AddEdge("1", "2", nil))
	assert.Error(t, g.AddEdge("1", "2", nil)) // no multi-edges

	require.NoError(t, g.RemoveEdge("1", "2"))
	assert.False(t, g.HasEdge("1", "2"))
	assert.Error(t, g.RemoveEdge("1", "2"))
}

func TestValidate(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", nil))
	assert.NoError(t, g.Validate())
}

func TestFreshNodeIDDeterministic(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", nil))
	id1 := g.FreshNodeID("a")
	require.NoError(t, g.AddNode(id1, nil))
	id2 := g.FreshNodeID("a")
	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, graph.NodeID("a"), id1)

	fresh := g.FreshNodeID("brand-new")
	assert.Equal(t, graph.NodeID("brand-new"), fresh)
}

func TestCloneNodeDuplicatesEdgesAndAttrs(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", graph.AttributeMap{"color": finite(t, "blue")}))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", graph.AttributeMap{"weight": finite(t, int64(3))}))

	clone, err := g.CloneNode("1", "")
	require.NoError(t, err)
	assert.NotEqual(t, graph.NodeID("1"), clone)

	cloneAttrs, err := g.NodeAttrs(clone)
	require.NoError(t, err)
	assert.True(t, cloneAttrs.Get("color").Equals(finite(t, "blue")))

	assert.True(t, g.HasEdge(clone, "2"))
	edgeAttrs, err := g.EdgeAttrs(clone, "2")
	require.NoError(t, err)
	assert.True(t, edgeAttrs.Get("weight").Equals(finite(t, int64(3))))
}

// Cloning a node with a self-loop must produce four edges — orig->orig,
// orig->clone, clone->orig, clone->clone — each carrying a duplicate of the
// original loop's attributes (spec §8 boundary case).
func TestCloneNodeWithSelfLoopProducesFourEdges(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddEdge("1", "1", graph.AttributeMap{"kind": finite(t, "loop")}))

	clone, err := g.CloneNode("1", "1_clone")
	require.NoError(t, err)

	for _, pair := range [][2]graph.NodeID{{"1", "1"}, {"1", clone}, {clone, "1"}, {clone, clone}} {
		require.Truef(t, g.HasEdge(pair[0], pair[1]), "expected edge (%s, %s)", pair[0], pair[1])
		a, err := g.EdgeAttrs(pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, a.Get("kind").Equals(finite(t, "loop")))
	}
	assert.Len(t, g.Edges(), 4)
}

func TestMergeNodesSingleElementIsIdentity(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", graph.AttributeMap{"color": finite(t, "blue")}))

	merged, err := g.MergeNodes([]graph.NodeID{"1"}, "")
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("1"), merged)
	a, err := g.NodeAttrs(merged)
	require.NoError(t, err)
	assert.True(t, a.Get("color").Equals(finite(t, "blue")))
}

// spec §8 end-to-end scenario 1: clone node 2, then merge {1,3} into "1_3",
// checking the resulting node/edge sets and attribute unions.
func TestMergeAndCloneEndToEndScenario(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", graph.AttributeMap{
		"color": finite(t, "blue"),
		"name":  finite(t, "alice"),
	}))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddNode("3", graph.AttributeMap{
		"color": finite(t, "blue"),
		"name":  finite(t, "john"),
	}))
	require.NoError(t, g.AddEdge("1", "2", nil))
	require.NoError(t, g.AddEdge("3", "2", nil))

	clone, err := g.CloneNode("2", "2'")
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("2'"), clone)

	merged, err := g.MergeNodes([]graph.NodeID{"1", "3"}, "1_3")
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("1_3"), merged)

	assert.ElementsMatch(t, []graph.NodeID{"1_3", "2", "2'"}, g.Nodes())

	mergedAttrs, err := g.NodeAttrs("1_3")
	require.NoError(t, err)
	assert.True(t, mergedAttrs.Get("color").Equals(finite(t, "blue")))
	nameUnion, err := finite(t, "alice").Union(finite(t, "john"))
	require.NoError(t, err)
	assert.True(t, mergedAttrs.Get("name").Equals(nameUnion))

	assert.True(t, g.HasEdge("1_3", "2"))
	assert.True(t, g.HasEdge("1_3", "2'"))
}

func TestMergeNodesFoldsInternalEdgesIntoLoop(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", graph.AttributeMap{"kind": finite(t, "a")}))
	require.NoError(t, g.AddEdge("2", "1", graph.AttributeMap{"kind": finite(t, "b")}))

	merged, err := g.MergeNodes([]graph.NodeID{"1", "2"}, "12")
	require.NoError(t, err)
	assert.True(t, g.HasEdge(merged, merged))
	a, err := g.EdgeAttrs(merged, merged)
	require.NoError(t, err)
	union, err := finite(t, "a").Union(finite(t, "b"))
	require.NoError(t, err)
	assert.True(t, a.Get("kind").Equals(union))
}

func TestRelabelNodePreservesAttrsAndEdges(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", graph.AttributeMap{"color": finite(t, "blue")}))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", nil))
	require.NoError(t, g.AddEdge("2", "1", nil))

	require.NoError(t, g.RelabelNode("1", "1_new"))
	assert.False(t, g.HasNode("1"))
	assert.True(t, g.HasNode("1_new"))
	assert.True(t, g.HasEdge("1_new", "2"))
	assert.True(t, g.HasEdge("2", "1_new"))
	a, err := g.NodeAttrs("1_new")
	require.NoError(t, err)
	assert.True(t, a.Get("color").Equals(finite(t, "blue")))
}

func TestRelabelNodeWithSelfLoop(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddEdge("1", "1", nil))
	require.NoError(t, g.RelabelNode("1", "1_new"))
	assert.True(t, g.HasEdge("1_new", "1_new"))
	assert.Len(t, g.Edges(), 1)
}
