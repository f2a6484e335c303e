package hierarchy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/hierarchy"
	"github.com/Kappa-Dev/ReGraph/rule"
)

func TestAddGraphAndLookup(t *testing.T) {
	h := hierarchy.New()
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, h.AddGraph("g", g))
	require.Error(t, h.AddGraph("g", g))

	got, err := h.Graph("g")
	require.NoError(t, err)
	assert.True(t, got.HasNode("1"))

	_, err = h.Graph("missing")
	assert.Error(t, err)
	assert.Equal(t, []string{"g"}, h.GraphIDs())
}

func TestAddTypingValid(t *testing.T) {
	h := hierarchy.New()
	src := graph.New()
	require.NoError(t, src.AddNode("1", nil))
	require.NoError(t, src.AddNode("2", nil))
	require.NoError(t, src.AddEdge("1", "2", nil))
	tgt := graph.New()
	require.NoError(t, tgt.AddNode("a", nil))
	require.NoError(t, tgt.AddNode("b", nil))
	require.NoError(t, tgt.AddEdge("a", "b", nil))

	require.NoError(t, h.AddGraph("src", src))
	require.NoError(t, h.AddGraph("tgt", tgt))
	require.NoError(t, h.AddTyping("src", "tgt", map[graph.NodeID]graph.NodeID{"1": "a", "2": "b"}))

	hom, ok := h.Typing("src", "tgt")
	require.True(t, ok)
	assert.Equal(t, graph.NodeID("a"), hom.Mapping["1"])
	assert.Equal(t, []string{"tgt"}, h.ImmediateDescendants("src"))
	assert.Equal(t, []string{"src"}, h.ImmediateAncestors("tgt"))
}

func TestAddTypingRejectsCycle(t *testing.T) {
	h := hierarchy.New()
	a := graph.New()
	require.NoError(t, a.AddNode("1", nil))
	b := graph.New()
	require.NoError(t, b.AddNode("x", nil))
	require.NoError(t, h.AddGraph("a", a))
	require.NoError(t, h.AddGraph("b", b))
	require.NoError(t, h.AddTyping("a", "b", map[graph.NodeID]graph.NodeID{"1": "x"}))

	err := h.AddTyping("b", "a", map[graph.NodeID]graph.NodeID{"x": "1"})
	assert.Error(t, err)
}

func TestAddTypingRejectsNonCommuting(t *testing.T) {
	h := hierarchy.New()
	top := graph.New()
	require.NoError(t, top.AddNode("1", nil))
	mid := graph.New()
	require.NoError(t, mid.AddNode("a", nil))
	bottom := graph.New()
	require.NoError(t, bottom.AddNode("x", nil))
	require.NoError(t, bottom.AddNode("y", nil))

	require.NoError(t, h.AddGraph("top", top))
	require.NoError(t, h.AddGraph("mid", mid))
	require.NoError(t, h.AddGraph("bottom", bottom))
	require.NoError(t, h.AddTyping("top", "mid", map[graph.NodeID]graph.NodeID{"1": "a"}))
	require.NoError(t, h.AddTyping("mid", "bottom", map[graph.NodeID]graph.NodeID{"a": "x"}))

	err := h.AddTyping("top", "bottom", map[graph.NodeID]graph.NodeID{"1": "y"})
	assert.Error(t, err)

	require.NoError(t, h.AddTyping("top", "bottom", map[graph.NodeID]graph.NodeID{"1": "x"}))
}

func TestRemoveGraphReconnects(t *testing.T) {
	h := hierarchy.New()
	top := graph.New()
	require.NoError(t, top.AddNode("1", nil))
	mid := graph.New()
	require.NoError(t, mid.AddNode("a", nil))
	bottom := graph.New()
	require.NoError(t, bottom.AddNode("x", nil))

	require.NoError(t, h.AddGraph("top", top))
	require.NoError(t, h.AddGraph("mid", mid))
	require.NoError(t, h.AddGraph("bottom", bottom))
	require.NoError(t, h.AddTyping("top", "mid", map[graph.NodeID]graph.NodeID{"1": "a"}))
	require.NoError(t, h.AddTyping("mid", "bottom", map[graph.NodeID]graph.NodeID{"a": "x"}))

	require.NoError(t, h.RemoveGraph("mid", true))
	hom, ok := h.Typing("top", "bottom")
	require.True(t, ok)
	assert.Equal(t, graph.NodeID("x"), hom.Mapping["1"])
	_, err := h.Graph("mid")
	assert.Error(t, err)
}

func TestAddRelationAndRevalidate(t *testing.T) {
	h := hierarchy.New()
	a := graph.New()
	require.NoError(t, a.AddNode("1", nil))
	require.NoError(t, a.AddNode("2", nil))
	b := graph.New()
	require.NoError(t, b.AddNode("x", nil))

	require.NoError(t, h.AddGraph("a", a))
	require.NoError(t, h.AddGraph("b", b))
	require.NoError(t, h.AddRelation("a", "b", hierarchy.Relation{"1": {"x"}, "2": {"x"}}))

	rel, ok := h.Relation("b", "a") // symmetric lookup, either order
	require.True(t, ok)
	assert.ElementsMatch(t, []graph.NodeID{"x"}, rel["1"])

	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	require.NoError(t, r.InjectRemoveNode("1"))
	_, err = h.Rewrite("a", r, map[graph.NodeID]graph.NodeID{"1": "2"}, nil, nil, false)
	require.NoError(t, err)

	rel, ok = h.Relation("a", "b")
	require.True(t, ok)
	_, stillPresent := rel["2"]
	assert.False(t, stillPresent)
	assert.ElementsMatch(t, []graph.NodeID{"x"}, rel["1"])
}

func TestNodeTypeMultiValued(t *testing.T) {
	h := hierarchy.New()
	src := graph.New()
	require.NoError(t, src.AddNode("1", nil))
	t1 := graph.New()
	require.NoError(t, t1.AddNode("a", nil))
	t2 := graph.New()
	require.NoError(t, t2.AddNode("p", nil))

	require.NoError(t, h.AddGraph("src", src))
	require.NoError(t, h.AddGraph("t1", t1))
	require.NoError(t, h.AddGraph("t2", t2))
	require.NoError(t, h.AddTyping("src", "t1", map[graph.NodeID]graph.NodeID{"1": "a"}))
	require.NoError(t, h.AddTyping("src", "t2", map[graph.NodeID]graph.NodeID{"1": "p"}))

	types := h.NodeType("src", "1")
	assert.Equal(t, []graph.NodeID{"a"}, types["t1"])
	assert.Equal(t, []graph.NodeID{"p"}, types["t2"])
}

// spec §8 scenario 4: backward propagation. A hierarchy G -> T types every
// protein and region node onto "agent" in T. Cloning "agent" with no
// p_typing forces G's agent-typed nodes to clone in step, each new clone
// typed onto the new T-side agent clone.
func TestRewriteBackwardPropagationClonesUntypedAncestors(t *testing.T) {
	h := hierarchy.New()

	g := graph.New()
	require.NoError(t, g.AddNode("protein", nil))
	require.NoError(t, g.AddNode("region", nil))
	require.NoError(t, g.AddEdge("region", "protein", nil))

	top := graph.New()
	require.NoError(t, top.AddNode("agent", nil))
	require.NoError(t, top.AddEdge("agent", "agent", nil))

	require.NoError(t, h.AddGraph("g", g))
	require.NoError(t, h.AddGraph("top", top))
	require.NoError(t, h.AddTyping("g", "top", map[graph.NodeID]graph.NodeID{
		"protein": "agent",
		"region":  "agent",
	}))

	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	_, _, err = r.InjectCloneNode("1", "", "")
	require.NoError(t, err)

	report, err := h.Rewrite("top", r, map[graph.NodeID]graph.NodeID{"1": "agent"}, nil, nil, false)
	require.NoError(t, err)

	clones := report.ClonedAncestors["g"]
	assert.Len(t, clones, 2) // one clone for protein, one for region

	hom, ok := h.Typing("g", "top")
	require.True(t, ok)
	topGraph, err := h.Graph("top")
	require.NoError(t, err)
	assert.Len(t, topGraph.Nodes(), 2) // "agent" plus its clone

	targets := map[graph.NodeID]bool{}
	for _, n := range []graph.NodeID{"protein", "region", clones[0], clones[1]} {
		targets[hom.Mapping[n]] = true
	}
	assert.Len(t, targets, 2) // original and clone nodes split across the two T-side agents
}

// spec §8 scenario 5: forward propagation. A hierarchy g2 -> quality types
// good_circle/bad_circle onto quality's good/bad. Merging good_circle and
// bad_circle in g2 forces quality's good and bad to merge too.
func TestRewriteForwardPropagationMergesDescendants(t *testing.T) {
	h := hierarchy.New()

	g2 := graph.New()
	require.NoError(t, g2.AddNode("good_circle", nil))
	require.NoError(t, g2.AddNode("bad_circle", nil))

	quality := graph.New()
	require.NoError(t, quality.AddNode("good", nil))
	require.NoError(t, quality.AddNode("bad", nil))

	require.NoError(t, h.AddGraph("g2", g2))
	require.NoError(t, h.AddGraph("quality", quality))
	require.NoError(t, h.AddTyping("g2", "quality", map[graph.NodeID]graph.NodeID{
		"good_circle": "good",
		"bad_circle":  "bad",
	}))

	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	require.NoError(t, l.AddNode("2", nil))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	_, err = r.InjectMergeNodes([]graph.NodeID{"1", "2"}, "bad_good")
	require.NoError(t, err)

	report, err := h.Rewrite("g2", r, map[graph.NodeID]graph.NodeID{"1": "good_circle", "2": "bad_circle"}, nil, nil, false)
	require.NoError(t, err)

	qualityGraph, err := h.Graph("quality")
	require.NoError(t, err)
	assert.Len(t, qualityGraph.Nodes(), 1) // good and bad merged into one

	hom, ok := h.Typing("g2", "quality")
	require.True(t, ok)
	mergedG2 := report.Result.RHSMatch["bad_good"]
	assert.Equal(t, qualityGraph.Nodes()[0], hom.Mapping[mergedG2])
}

func TestRewriteStrictRejectsUnpinnedClone(t *testing.T) {
	h := hierarchy.New()
	g := graph.New()
	require.NoError(t, g.AddNode("protein", nil))
	top := graph.New()
	require.NoError(t, top.AddNode("agent", nil))
	require.NoError(t, h.AddGraph("g", g))
	require.NoError(t, h.AddGraph("top", top))
	require.NoError(t, h.AddTyping("g", "top", map[graph.NodeID]graph.NodeID{"protein": "agent"}))

	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	_, _, err = r.InjectCloneNode("1", "", "")
	require.NoError(t, err)

	_, err = h.Rewrite("top", r, map[graph.NodeID]graph.NodeID{"1": "agent"}, nil, nil, true)
	assert.Error(t, err)
}

func TestRewriteStrictRejectsUnpinnedAddition(t *testing.T) {
	h := hierarchy.New()
	g := graph.New()
	require.NoError(t, g.AddNode("a", nil))
	top := graph.New()
	require.NoError(t, top.AddNode("x", nil))
	require.NoError(t, h.AddGraph("g", g))
	require.NoError(t, h.AddGraph("top", top))
	require.NoError(t, h.AddTyping("g", "top", map[graph.NodeID]graph.NodeID{"a": "x"}))

	l := graph.New()
	require.NoError(t, l.AddNode("1", nil))
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	require.NoError(t, r.InjectAddNode("new_node", nil))

	_, err = h.Rewrite("g", r, map[graph.NodeID]graph.NodeID{"1": "a"}, nil, nil, true)
	assert.Error(t, err)

	_, err = h.Rewrite("g", r, map[graph.NodeID]graph.NodeID{"1": "a"}, nil,
		hierarchy.TypingAssignment{"top": {"new_node": "x"}}, true)
	assert.NoError(t, err)
}

func TestFindMatchingThroughHierarchy(t *testing.T) {
	h := hierarchy.New()
	g := graph.New()
	require.NoError(t, g.AddNode("1", nil))
	require.NoError(t, g.AddNode("2", nil))
	require.NoError(t, g.AddEdge("1", "2", nil))
	require.NoError(t, h.AddGraph("g", g))

	pattern := graph.New()
	require.NoError(t, pattern.AddNode("x", nil))
	require.NoError(t, pattern.AddNode("y", nil))
	require.NoError(t, pattern.AddEdge("x", "y", nil))

	matches, err := h.FindMatching("g", pattern, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, graph.NodeID("1"), matches[0]["x"])
}
