package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/audit"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rule"
)

func addNodeRule(t *testing.T, id graph.NodeID) (*rule.Rule, match.Match) {
	t.Helper()
	l := graph.New()
	r, err := rule.FromPattern(l)
	require.NoError(t, err)
	require.NoError(t, r.InjectAddNode(id, nil))
	return r, match.Match{}
}

func TestVersionedGraphRewriteAndHistory(t *testing.T) {
	g := graph.New()
	v := audit.NewVersionedGraph(g)

	r1, m1 := addNodeRule(t, "n1")
	_, c1, err := v.Rewrite(r1, m1, "add n1")
	require.NoError(t, err)

	r2, m2 := addNodeRule(t, "n2")
	_, c2, err := v.Rewrite(r2, m2, "add n2")
	require.NoError(t, err)

	assert.True(t, v.Graph().HasNode("n1"))
	assert.True(t, v.Graph().HasNode("n2"))

	history := v.PrintHistory()
	require.Len(t, history, 2)
	assert.Equal(t, c1, history[0].ID)
	assert.Equal(t, c2, history[1].ID)
	assert.Equal(t, "add n1", history[0].Message)

	data, err := v.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "add n2")
}

func TestVersionedGraphBranchAndSwitch(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("root", nil))
	v := audit.NewVersionedGraph(g)

	_, err := v.Branch("feature")
	require.NoError(t, err)
	require.NoError(t, v.SwitchBranch("feature"))

	r, m := addNodeRule(t, "feature_node")
	_, _, err = v.Rewrite(r, m, "feature work")
	require.NoError(t, err)
	assert.True(t, v.Graph().HasNode("feature_node"))

	require.NoError(t, v.SwitchBranch("main"))
	assert.False(t, v.Graph().HasNode("feature_node")) // main untouched by feature's commit
}

func TestVersionedGraphMergeReplaysOtherBranch(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("root", nil))
	v := audit.NewVersionedGraph(g)

	_, err := v.Branch("feature")
	require.NoError(t, err)
	require.NoError(t, v.SwitchBranch("feature"))
	r, m := addNodeRule(t, "feature_node")
	_, _, err = v.Rewrite(r, m, "feature work")
	require.NoError(t, err)

	require.NoError(t, v.SwitchBranch("main"))
	_, err = v.MergeWith("feature", "merge feature into main")
	require.NoError(t, err)
	assert.True(t, v.Graph().HasNode("feature_node"))
}

// spec §8 scenario 6: on a hierarchy (here exercised on a plain graph),
// commit A, commit B, commit C; rollback(A) undoes C then B and leaves
// state equal to state after A, while history still lists all three.
func TestVersionedGraphRollbackToEarlierCommit(t *testing.T) {
	g := graph.New()
	v := audit.NewVersionedGraph(g)

	ra, ma := addNodeRule(t, "a")
	_, commitA, err := v.Rewrite(ra, ma, "commit A")
	require.NoError(t, err)

	rb, mb := addNodeRule(t, "b")
	_, _, err = v.Rewrite(rb, mb, "commit B")
	require.NoError(t, err)

	rc, mc := addNodeRule(t, "c")
	_, _, err = v.Rewrite(rc, mc, "commit C")
	require.NoError(t, err)

	require.True(t, v.Graph().HasNode("a"))
	require.True(t, v.Graph().HasNode("b"))
	require.True(t, v.Graph().HasNode("c"))

	_, err = v.Rollback(commitA)
	require.NoError(t, err)

	assert.True(t, v.Graph().HasNode("a"))
	assert.False(t, v.Graph().HasNode("b"))
	assert.False(t, v.Graph().HasNode("c"))

	history := v.PrintHistory()
	require.Len(t, history, 4) // A, B, C, plus the rollback marker — nothing is deleted
	messages := []string{history[0].Message, history[1].Message, history[2].Message}
	assert.Equal(t, []string{"commit A", "commit B", "commit C"}, messages)
}

func TestVersionedGraphRollbackRejectsUnreachableTarget(t *testing.T) {
	g := graph.New()
	v := audit.NewVersionedGraph(g)
	other := audit.NewVersionedGraph(graph.New())
	r, m := addNodeRule(t, "x")
	_, bogusCommit, err := other.Rewrite(r, m, "unrelated")
	require.NoError(t, err)

	_, err = v.Rollback(bogusCommit)
	assert.Error(t, err)
}
