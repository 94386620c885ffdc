package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.CreateSubIssue(ctx, "parent", "Ship it", "ship-it", false)
	require.NoError(t, err)

	children, err := m.ListChildren(ctx, "parent")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, id, children[0].ID)
	assert.Equal(t, "Ship it", children[0].Title)
	assert.Equal(t, "ship-it", children[0].TaskKey)
	assert.True(t, children[0].Open)
	assert.True(t, children[0].Foundry)

	require.NoError(t, m.UpdateTitle(ctx, id, "Ship it now"))
	require.NoError(t, m.SetState(ctx, id, false))

	children, err = m.ListChildren(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, "Ship it now", children[0].Title)
	assert.False(t, children[0].Open)
}

func TestMemoryScriptedFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailNext("create", Transient("timeout", nil))

	_, err := m.CreateSubIssue(ctx, "p", "a", "a", false)
	assert.True(t, IsTransient(err))

	// The queued failure is consumed; the retry succeeds.
	_, err = m.CreateSubIssue(ctx, "p", "a", "a", false)
	assert.NoError(t, err)
}

func TestMemoryUnknownIDIsPermanent(t *testing.T) {
	m := NewMemory()
	err := m.UpdateTitle(context.Background(), "nope", "title")
	assert.True(t, IsPermanent(err))
}
