package rgerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

func TestErrorFormatting(t *testing.T) {
	err := rgerr.Graph("node %q not found", "a").WithDetail("node", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAPH_ERROR")
	assert.Contains(t, err.Error(), "node \"a\" not found")
	assert.Equal(t, "a", err.Details["node"])
}

func TestErrorIsKind(t *testing.T) {
	err := rgerr.Hierarchy("cycle detected")
	assert.True(t, rgerr.IsKind(err, rgerr.KindHierarchy))
	assert.False(t, rgerr.IsKind(err, rgerr.KindAudit))
	assert.True(t, errors.Is(err, rgerr.New(rgerr.KindHierarchy, "")))
}

func TestErrorWithCause(t *testing.T) {
	root := errors.New("boom")
	err := rgerr.AttributeSet("malformed regex").WithCause(root)
	assert.ErrorIs(t, err, root)
	assert.Contains(t, err.Error(), "boom")
}
