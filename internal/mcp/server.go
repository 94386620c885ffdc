// Package mcp exposes foundry over the Model Context Protocol so AI coding
// assistants can manage specifications and trigger tracker syncs directly.
//
// This is the composition root: concrete stores and trackers are created
// by the caller and injected here; no business logic lives in the
// handlers beyond argument plumbing.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/foundryhq/foundry/internal/sync"
)

// Version is stamped at build time via ldflags.
var Version = "dev"

// New builds the MCP server with all foundry tools registered.
func New(engine *sync.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"foundry",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	h := &handlers{engine: engine}

	s.AddTool(h.createProjectTool(), h.createProject)
	s.AddTool(h.getProjectTool(), h.getProject)
	s.AddTool(h.createSpecTool(), h.createSpec)
	s.AddTool(h.listSpecsTool(), h.listSpecs)
	s.AddTool(h.getSpecTool(), h.getSpec)
	s.AddTool(h.updateSpecTasksTool(), h.updateSpecTasks)
	s.AddTool(h.linkSpecTool(), h.linkSpec)
	s.AddTool(h.planSpecTool(), h.planSpec)
	s.AddTool(h.syncSpecTool(), h.syncSpec)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client hangs up.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `Foundry manages project specifications and mirrors each
specification's task checklist into Linear as sub-issues.

Workflow:
1. create_project once per repository.
2. create_spec for each piece of work; write the body with update_spec_tasks
   using a Markdown checklist ("- [ ] task") under the "## Tasks" heading.
3. link_spec to attach the spec to a Linear parent issue (id or "linear:<id>").
4. plan_spec to preview the create/update/reopen/close operations.
5. sync_spec to apply them. Syncs are idempotent: running twice is safe.

Checklist conventions: one task per line, "- [ ] text" (open) or
"- [x] text" (done). Task identity is derived from the text; rewording a
task creates a new sub-issue and closes the old one. Sub-issues created by
humans in Linear are never modified or closed.`
