package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryhq/foundry/internal/project"
	"github.com/foundryhq/foundry/internal/sync"
	"github.com/foundryhq/foundry/internal/tracker"
)

func testHandlers(t *testing.T) (*handlers, *tracker.Memory) {
	t.Helper()
	mem := tracker.NewMemory()
	return &handlers{engine: &sync.Engine{
		Store:   project.NewStore(t.TempDir()),
		Tracker: mem,
	}}, mem
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestToolFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	h, mem := testHandlers(t)

	res, err := h.createProject(ctx, callReq("create_project", map[string]any{"name": "demo"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = h.createSpec(ctx, callReq("create_spec", map[string]any{"title": "Search revamp"}))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "search-revamp")

	res, err = h.updateSpecTasks(ctx, callReq("update_spec_tasks", map[string]any{
		"spec":  "search-revamp",
		"tasks": "- [ ] index the corpus\n- [ ] rank results",
	}))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "2 tasks")

	res, err = h.linkSpec(ctx, callReq("link_spec", map[string]any{
		"spec":   "search-revamp",
		"parent": "parent-1",
	}))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "linear:parent-1")

	res, err = h.planSpec(ctx, callReq("plan_spec", map[string]any{"spec": "search-revamp"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "index-the-corpus")

	res, err = h.syncSpec(ctx, callReq("sync_spec", map[string]any{"spec": "search-revamp"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	children, err := mem.ListChildren(ctx, "parent-1")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestToolErrorsAreResultsNotGoErrors(t *testing.T) {
	ctx := context.Background()
	h, _ := testHandlers(t)

	// Store not initialized and spec missing: the MCP contract is an error
	// result, not a transport error.
	res, err := h.syncSpec(ctx, callReq("sync_spec", map[string]any{"spec": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.createSpec(ctx, callReq("create_spec", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServerRegistersTools(t *testing.T) {
	h, _ := testHandlers(t)
	s := New(h.engine)
	assert.NotNil(t, s)
}
