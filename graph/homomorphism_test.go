package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/graph"
)

func buildPatternAndTarget(t *testing.T) (*graph.Graph, *graph.Graph) {
	t.Helper()
	pattern := graph.New()
	require.NoError(t, pattern.AddNode("x", graph.AttributeMap{"color": finite(t, "blue")}))
	require.NoError(t, pattern.AddNode("y", nil))
	require.NoError(t, pattern.AddEdge("x", "y", nil))

	target := graph.New()
	require.NoError(t, target.AddNode("1", graph.AttributeMap{"color": finite(t, "blue", "red")}))
	require.NoError(t, target.AddNode("2", nil))
	require.NoError(t, target.AddEdge("1", "2", nil))
	return pattern, target
}

func TestNewHomomorphismValid(t *testing.T) {
	pattern, target := buildPatternAndTarget(t)
	h, err := graph.NewHomomorphism(pattern, target, map[graph.NodeID]graph.NodeID{"x": "1", "y": "2"})
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("1"), h.Mapping["x"])
}

func TestNewHomomorphismRejectsMissingEdge(t *testing.T) {
	pattern, target := buildPatternAndTarget(t)
	require.NoError(t, target.RemoveEdge("1", "2"))
	_, err := graph.NewHomomorphism(pattern, target, map[graph.NodeID]graph.NodeID{"x": "1", "y": "2"})
	assert.Error(t, err)
}

func TestNewHomomorphismRejectsAttributeViolation(t *testing.T) {
	pattern, target := buildPatternAndTarget(t)
	require.NoError(t, target.RemoveNodeAttrs("1", graph.AttributeMap{"color": finite(t, "blue", "red")}))
	require.NoError(t, target.AddNodeAttrs("1", graph.AttributeMap{"color": finite(t, "green")}))
	_, err := graph.NewHomomorphism(pattern, target, map[graph.NodeID]graph.NodeID{"x": "1", "y": "2"})
	assert.Error(t, err)
}

func TestNewHomomorphismRejectsNonTotal(t *testing.T) {
	pattern, target := buildPatternAndTarget(t)
	_, err := graph.NewHomomorphism(pattern, target, map[graph.NodeID]graph.NodeID{"x": "1"})
	assert.Error(t, err)
}

func TestComposeHomomorphisms(t *testing.T) {
	a := graph.New()
	require.NoError(t, a.AddNode("x", nil))
	b := graph.New()
	require.NoError(t, b.AddNode("1", nil))
	c := graph.New()
	require.NoError(t, c.AddNode("i", nil))

	f, err := graph.NewHomomorphism(a, b, map[graph.NodeID]graph.NodeID{"x": "1"})
	require.NoError(t, err)
	g, err := graph.NewHomomorphism(b, c, map[graph.NodeID]graph.NodeID{"1": "i"})
	require.NoError(t, err)

	composed, err := graph.Compose(f, g)
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID("i"), composed.Mapping["x"])
}

func TestImagePreimageAndFiber(t *testing.T) {
	pattern, target := buildPatternAndTarget(t)
	require.NoError(t, pattern.AddNode("z", nil))
	require.NoError(t, target.AddEdge("2", "1", nil))
	require.NoError(t, pattern.AddEdge("y", "x", nil))

	h, err := graph.NewHomomorphism(pattern, target, map[graph.NodeID]graph.NodeID{"x": "1", "y": "2", "z": "1"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []graph.NodeID{"1", "2"}, h.Image([]graph.NodeID{"x", "y", "z"}))
	assert.ElementsMatch(t, []graph.NodeID{"x", "z"}, h.Fiber("1"))
	assert.ElementsMatch(t, []graph.NodeID{"x", "z"}, h.Preimage([]graph.NodeID{"1"}))
}
