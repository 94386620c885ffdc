// Package sync wires the pipeline end to end: load a specification, parse
// its checklist, snapshot the tracker, compute the plan, apply it, and
// record the run. The CLI and the MCP server both drive this engine.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foundryhq/foundry/internal/apply"
	"github.com/foundryhq/foundry/internal/history"
	"github.com/foundryhq/foundry/internal/plan"
	"github.com/foundryhq/foundry/internal/project"
	"github.com/foundryhq/foundry/internal/task"
	"github.com/foundryhq/foundry/internal/tracker"
)

// Engine holds the collaborators for plan and sync operations.
type Engine struct {
	Store   *project.Store
	Tracker tracker.Tracker

	// History is optional; recording is best-effort and never fails a sync.
	History *history.Store

	// Logf receives progress lines. Nil disables logging.
	Logf func(format string, args ...any)
}

// Result bundles everything a caller needs to render a sync outcome.
type Result struct {
	Spec   string       `json:"spec"`
	Parent string       `json:"parent"`
	Plan   plan.Plan    `json:"plan"`
	Report apply.Report `json:"report"`
}

// Plan computes the reconciliation plan for a spec without applying it.
func (e *Engine) Plan(ctx context.Context, slug string) (plan.Plan, string, error) {
	desired, parentID, err := e.load(slug)
	if err != nil {
		return plan.Plan{}, "", err
	}

	existing, err := e.Tracker.ListChildren(ctx, parentID)
	if err != nil {
		return plan.Plan{}, "", fmt.Errorf("listing sub-issues of %s: %w", tracker.ExternalRef(parentID), err)
	}

	return plan.Compute(desired, existing), parentID, nil
}

// Sync computes and applies the plan for a spec.
func (e *Engine) Sync(ctx context.Context, slug string, opts apply.Options) (*Result, error) {
	p, parentID, err := e.Plan(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, d := range p.Diagnostics {
		e.logf("warning: %s", d)
	}

	if opts.Logf == nil {
		opts.Logf = e.Logf
	}

	started := time.Now()
	report := apply.Apply(ctx, e.Tracker, parentID, p, opts)

	if e.History != nil {
		if _, err := e.History.Record(context.WithoutCancel(ctx), slug,
			tracker.ExternalRef(parentID), report, started, time.Since(started)); err != nil {
			e.logf("warning: recording sync history: %v", err)
		}
	}

	return &Result{
		Spec:   slug,
		Parent: tracker.ExternalRef(parentID),
		Plan:   p,
		Report: report,
	}, nil
}

// load resolves a spec's desired tasks and its parent issue id.
func (e *Engine) load(slug string) ([]task.DesiredTask, string, error) {
	sp, err := e.Store.GetSpec(slug)
	if err != nil {
		return nil, "", err
	}

	ref := sp.Parent
	if ref == "" {
		proj, err := e.Store.Load()
		if err != nil {
			return nil, "", err
		}
		ref = proj.Parents[slug]
	}
	if ref == "" {
		return nil, "", fmt.Errorf("spec %q has no parent issue; run `foundry link` or set one in the spec front matter", slug)
	}

	return sp.Tasks(), strings.TrimPrefix(ref, tracker.ExternalRefPrefix), nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}
