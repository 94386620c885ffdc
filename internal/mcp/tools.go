package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/foundryhq/foundry/internal/apply"
	"github.com/foundryhq/foundry/internal/sync"
	"github.com/foundryhq/foundry/internal/tracker"
)

type handlers struct {
	engine *sync.Engine
}

func (h *handlers) createProjectTool() mcp.Tool {
	return mcp.NewTool("create_project",
		mcp.WithDescription("Initialize the foundry project store for this repository."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name.")),
	)
}

func (h *handlers) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := h.engine.Store.Init(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Initialized project %q at %s", p.Name, h.engine.Store.Root())), nil
}

func (h *handlers) getProjectTool() mcp.Tool {
	return mcp.NewTool("get_project",
		mcp.WithDescription("Return the project manifest: name and spec-to-parent mappings."),
	)
}

func (h *handlers) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.engine.Store.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) createSpecTool() mcp.Tool {
	return mcp.NewTool("create_spec",
		mcp.WithDescription("Create a new specification document with an empty task checklist."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable specification title.")),
	)
}

func (h *handlers) createSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sp, err := h.engine.Store.CreateSpec(title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created spec %q (slug %s)", sp.Title, sp.Slug)), nil
}

func (h *handlers) listSpecsTool() mcp.Tool {
	return mcp.NewTool("list_specs",
		mcp.WithDescription("List all specification slugs."),
	)
}

func (h *handlers) listSpecs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slugs, err := h.engine.Store.ListSpecs()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(slugs) == 0 {
		return mcp.NewToolResultText("No specs yet."), nil
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (h *handlers) getSpecTool() mcp.Tool {
	return mcp.NewTool("get_spec",
		mcp.WithDescription("Return a specification's full Markdown body."),
		mcp.WithString("spec", mcp.Required(), mcp.Description("Spec slug.")),
	)
}

func (h *handlers) getSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("spec")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sp, err := h.engine.Store.GetSpec(slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sp.Body), nil
}

func (h *handlers) updateSpecTasksTool() mcp.Tool {
	return mcp.NewTool("update_spec_tasks",
		mcp.WithDescription("Replace the '## Tasks' checklist of a specification. "+
			"Task text is identity: reword a task and the next sync will replace its sub-issue."),
		mcp.WithString("spec", mcp.Required(), mcp.Description("Spec slug.")),
		mcp.WithString("tasks", mcp.Required(),
			mcp.Description("Markdown checklist, one '- [ ] text' or '- [x] text' per line.")),
	)
}

func (h *handlers) updateSpecTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("spec")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	checklist, err := req.RequireString("tasks")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sp, err := h.engine.Store.UpdateTasks(slug, checklist)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s: %d tasks", slug, len(sp.Tasks()))), nil
}

func (h *handlers) linkSpecTool() mcp.Tool {
	return mcp.NewTool("link_spec",
		mcp.WithDescription("Attach a specification to its Linear parent issue."),
		mcp.WithString("spec", mcp.Required(), mcp.Description("Spec slug.")),
		mcp.WithString("parent", mcp.Required(),
			mcp.Description("Linear issue id, optionally prefixed 'linear:'.")),
	)
}

func (h *handlers) linkSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("spec")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent, err := req.RequireString("parent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref := tracker.ExternalRef(strings.TrimPrefix(parent, tracker.ExternalRefPrefix))
	if err := h.engine.Store.SetParent(slug, ref); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked %s to %s", slug, ref)), nil
}

func (h *handlers) planSpecTool() mcp.Tool {
	return mcp.NewTool("plan_spec",
		mcp.WithDescription("Dry run: compute the reconciliation plan for a spec without applying it."),
		mcp.WithString("spec", mcp.Required(), mcp.Description("Spec slug.")),
	)
}

func (h *handlers) planSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("spec")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, parent, err := h.engine.Plan(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"spec":   slug,
		"parent": tracker.ExternalRef(parent),
		"plan":   p,
	})
}

func (h *handlers) syncSpecTool() mcp.Tool {
	return mcp.NewTool("sync_spec",
		mcp.WithDescription("Reconcile a spec's checklist into Linear sub-issues. Idempotent."),
		mcp.WithString("spec", mcp.Required(), mcp.Description("Spec slug.")),
		mcp.WithBoolean("strict",
			mcp.Description("Abort on the first permanent failure instead of continuing best-effort.")),
	)
}

func (h *handlers) syncSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("spec")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.engine.Sync(ctx, slug, apply.Options{Strict: req.GetBool("strict", false)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
