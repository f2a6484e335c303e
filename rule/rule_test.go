package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/attrs"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/rule"
)

func finiteVal(t *testing.T, atoms ...attrs.Atom) attrs.Value {
	t.Helper()
	v, err := attrs.NewFinite(atoms...)
	require.NoError(t, err)
	return v
}

func patternOneTwoThree(t *testing.T) *graph.Graph {
	t.Helper()
	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	require.NoError(t, l.AddNode("2", nil))
	require.NoError(t, l.AddNode("3", nil))
	require.NoError(t, l.AddEdge("2", "3", nil))
	return l
}

func TestFromPatternIsIdentity(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	assert.ElementsMatch(t, l.Nodes(), r.P.Nodes())
	assert.ElementsMatch(t, l.Nodes(), r.R.Nodes())
	for _, n := range l.Nodes() {
		assert.False(t, r.DeletesNode(n))
		assert.False(t, r.ClonesNode(n))
	}
}

func TestInjectCloneNode(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	pNew, rNew, err := r.InjectCloneNode("1", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, pNew)
	assert.NotEmpty(t, rNew)
	assert.True(t, r.ClonesNode("1"))
	assert.Equal(t, 2, r.CloneMultiplicity("1"))
	assert.True(t, r.R.HasNode(rNew))
}

func TestInjectRemoveNode(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	require.NoError(t, r.InjectRemoveEdge("2", "3"))
	require.NoError(t, r.InjectRemoveNode("3"))
	assert.True(t, r.DeletesNode("3"))
	assert.False(t, r.R.HasNode("3"))
	assert.False(t, r.P.HasNode("3"))
}

func TestInjectRemoveEdge(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	require.NoError(t, r.InjectRemoveEdge("2", "3"))
	assert.True(t, r.DeletesEdge("2", "3"))
	assert.False(t, r.P.HasEdge("2", "3"))
	assert.False(t, r.R.HasEdge("2", "3"))
}

func TestInjectAddNodeAndEdge(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	require.NoError(t, r.InjectAddNode("new_node", nil))
	require.NoError(t, r.InjectAddEdge("new_node", "1", nil))
	assert.True(t, r.AddsNode("new_node"))
	assert.True(t, r.AddsEdge("new_node", "1"))
	assert.False(t, r.AddsNode("1"))
}

func TestInjectMergeNodes(t *testing.T) {
	l := patternOneTwoThree(t)
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	merged, err := r.InjectMergeNodes([]graph.NodeID{"1", "2"}, "1_2")
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("1_2"), merged)
	assert.True(t, r.MergesNodes("1_2"))
	assert.False(t, r.R.HasNode("1"))
	assert.False(t, r.R.HasNode("2"))
}

func TestInjectAddAndRemoveAttrs(t *testing.T) {
	l := graph.New()
	require.NoError(t, l.AddNode("1", graph.AttributeMap{"color": finiteVal(t, "blue", "red")}))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)

	require.NoError(t, r.InjectRemoveAttrs("1", graph.AttributeMap{"color": finiteVal(t, "red")}))
	removed, err := r.RemovedNodeAttrs("1")
	require.NoError(t, err)
	assert.True(t, removed.Get("color").Equals(finiteVal(t, "red")))

	require.NoError(t, r.InjectAddAttrs("1", graph.AttributeMap{"size": finiteVal(t, int64(5))}))
	added, err := r.AddedNodeAttrs("1")
	require.NoError(t, err)
	assert.True(t, added.Get("size").Equals(finiteVal(t, int64(5))))
}

func TestExplicitRuleConstruction(t *testing.T) {
	l := graph.New()
	require.NoError(t, l.AddNode("x", nil))
	p := graph.New()
	require.NoError(t, p.AddNode("x", nil))
	r := graph.New()
	require.NoError(t, r.AddNode("x", nil))

	built, err := rule.New(l, p, r, map[graph.NodeID]graph.NodeID{"x": "x"}, map[graph.NodeID]graph.NodeID{"x": "x"})
	require.NoError(t, err)
	assert.False(t, built.DeletesNode("x"))
}

func TestExplicitRuleRejectsBrokenHomomorphism(t *testing.T) {
	l := graph.New()
	require.NoError(t, l.AddNode("x", nil))
	p := graph.New()
	require.NoError(t, p.AddNode("x", nil))
	r := graph.New()

	_, err := rule.New(l, p, r, map[graph.NodeID]graph.NodeID{"x": "x"}, map[graph.NodeID]graph.NodeID{"x": "x"})
	assert.Error(t, err)
}
