package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/audit"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/hierarchy"
)

func newHierarchyWithGraph(t *testing.T, graphID string) *hierarchy.Hierarchy {
	t.Helper()
	h := hierarchy.New()
	g := graph.New()
	require.NoError(t, g.AddNode("root", nil))
	require.NoError(t, h.AddGraph(graphID, g))
	return h
}

func TestVersionedHierarchyRewriteAndHistory(t *testing.T) {
	h := newHierarchyWithGraph(t, "g")
	v := audit.NewVersionedHierarchy(h)

	r1, m1 := addNodeRule(t, "n1")
	_, c1, err := v.Rewrite("g", r1, m1, nil, nil, false, "add n1")
	require.NoError(t, err)

	r2, m2 := addNodeRule(t, "n2")
	_, c2, err := v.Rewrite("g", r2, m2, nil, nil, false, "add n2")
	require.NoError(t, err)

	g, err := v.Hierarchy().Graph("g")
	require.NoError(t, err)
	assert.True(t, g.HasNode("n1"))
	assert.True(t, g.HasNode("n2"))

	history := v.PrintHistory()
	require.Len(t, history, 2)
	assert.Equal(t, c1, history[0].ID)
	assert.Equal(t, c2, history[1].ID)
}

func TestVersionedHierarchyBranchAndSwitch(t *testing.T) {
	h := newHierarchyWithGraph(t, "g")
	v := audit.NewVersionedHierarchy(h)

	_, err := v.Branch("feature")
	require.NoError(t, err)
	require.NoError(t, v.SwitchBranch("feature"))

	r, m := addNodeRule(t, "feature_node")
	_, _, err = v.Rewrite("g", r, m, nil, nil, false, "feature work")
	require.NoError(t, err)

	fg, err := v.Hierarchy().Graph("g")
	require.NoError(t, err)
	assert.True(t, fg.HasNode("feature_node"))

	require.NoError(t, v.SwitchBranch("main"))
	mg, err := v.Hierarchy().Graph("g")
	require.NoError(t, err)
	assert.False(t, mg.HasNode("feature_node"))
}

func TestVersionedHierarchyMergeReplaysOtherBranch(t *testing.T) {
	h := newHierarchyWithGraph(t, "g")
	v := audit.NewVersionedHierarchy(h)

	_, err := v.Branch("feature")
	require.NoError(t, err)
	require.NoError(t, v.SwitchBranch("feature"))
	r, m := addNodeRule(t, "feature_node")
	_, _, err = v.Rewrite("g", r, m, nil, nil, false, "feature work")
	require.NoError(t, err)

	require.NoError(t, v.SwitchBranch("main"))
	_, err = v.MergeWith("feature", "merge feature into main")
	require.NoError(t, err)

	mg, err := v.Hierarchy().Graph("g")
	require.NoError(t, err)
	assert.True(t, mg.HasNode("feature_node"))
}

// spec §8 scenario 6, on a hierarchy-hosted graph: commit A, B, C; rollback(A)
// undoes C then B and leaves state equal to state after A, while history
// still lists all three plus the marker.
func TestVersionedHierarchyRollbackToEarlierCommit(t *testing.T) {
	h := newHierarchyWithGraph(t, "g")
	v := audit.NewVersionedHierarchy(h)

	ra, ma := addNodeRule(t, "a")
	_, commitA, err := v.Rewrite("g", ra, ma, nil, nil, false, "commit A")
	require.NoError(t, err)

	rb, mb := addNodeRule(t, "b")
	_, _, err = v.Rewrite("g", rb, mb, nil, nil, false, "commit B")
	require.NoError(t, err)

	rc, mc := addNodeRule(t, "c")
	_, _, err = v.Rewrite("g", rc, mc, nil, nil, false, "commit C")
	require.NoError(t, err)

	g, err := v.Hierarchy().Graph("g")
	require.NoError(t, err)
	require.True(t, g.HasNode("a"))
	require.True(t, g.HasNode("b"))
	require.True(t, g.HasNode("c"))

	_, err = v.Rollback(commitA)
	require.NoError(t, err)

	g, err = v.Hierarchy().Graph("g")
	require.NoError(t, err)
	assert.True(t, g.HasNode("a"))
	assert.False(t, g.HasNode("b"))
	assert.False(t, g.HasNode("c"))

	history := v.PrintHistory()
	require.Len(t, history, 4)
}

func TestVersionedHierarchyRollbackRejectsUnreachableTarget(t *testing.T) {
	h := newHierarchyWithGraph(t, "g")
	v := audit.NewVersionedHierarchy(h)
	other := audit.NewVersionedHierarchy(newHierarchyWithGraph(t, "g"))
	r, m := addNodeRule(t, "x")
	_, bogusCommit, err := other.Rewrite("g", r, m, nil, nil, false, "unrelated")
	require.NoError(t, err)

	_, err = v.Rollback(bogusCommit)
	assert.Error(t, err)
}
