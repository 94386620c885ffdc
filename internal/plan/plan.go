// Package plan computes the minimal set of tracker mutations that converge
// a parent issue's sub-issues to a specification's task checklist.
//
// Compute is a pure function: no I/O, no hidden state, deterministic
// ordering. Applying the resulting plan and recomputing against the new
// snapshot yields an empty plan.
package plan

import "github.com/foundryhq/foundry/internal/task"

// CreateOp describes one sub-issue to create.
type CreateOp struct {
	// Title is the humanized form of the task text.
	Title string `json:"title"`

	// TaskKey is stamped on the new issue and is the durable identity the
	// next planning run will match on.
	TaskKey string `json:"task_key"`

	// Completed is the initial state: true creates the issue already in a
	// terminal completed state.
	Completed bool `json:"completed"`
}

// UpdateOp corrects title drift on an issue foundry still owns the title
// of (i.e. no human rename detected).
type UpdateOp struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Plan is the immutable diff between desired tasks and observed
// sub-issues. The id-bearing lists are pairwise disjoint.
type Plan struct {
	// ToCreate lists missing tasks in Markdown order.
	ToCreate []CreateOp `json:"to_create,omitempty"`

	// ToUpdate lists title corrections, ordered by task key.
	ToUpdate []UpdateOp `json:"to_update,omitempty"`

	// ToReopen lists issues to move back to an open state, ordered by task
	// key. This covers both a previously-closed task reappearing and an
	// author unchecking a box.
	ToReopen []string `json:"to_reopen,omitempty"`

	// ToComplete lists issues to move to the completed state, ordered by
	// task key.
	ToComplete []string `json:"to_complete,omitempty"`

	// ToClose lists foundry-owned issues whose task is gone from the
	// checklist, in ascending id order. Issues without the ownership label
	// never appear here.
	ToClose []string `json:"to_close,omitempty"`

	// Diagnostics carries non-fatal planning warnings (duplicate task
	// texts, dropped empty-slug tasks, duplicate-key races). The planner
	// itself never fails.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Empty reports whether the plan contains no operations. Diagnostics do
// not count: a plan can be empty and still carry warnings.
func (p *Plan) Empty() bool {
	return len(p.ToCreate) == 0 &&
		len(p.ToUpdate) == 0 &&
		len(p.ToReopen) == 0 &&
		len(p.ToComplete) == 0 &&
		len(p.ToClose) == 0
}

// Operations returns the total number of mutations the plan will issue.
func (p *Plan) Operations() int {
	return len(p.ToCreate) + len(p.ToUpdate) + len(p.ToReopen) + len(p.ToComplete) + len(p.ToClose)
}

// desiredEntry pairs a resolved unique key with its task.
type desiredEntry struct {
	key string
	t   task.DesiredTask
}
