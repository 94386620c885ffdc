// Package tracker defines the capability abstraction over an external
// issue tracker, plus the transient/permanent error classification that the
// plan applier's retry policy keys off.
//
// Only four operations exist. The reconciliation engine deliberately treats
// the tracker as opaque: a concrete adapter speaks GraphQL to Linear, and
// an in-memory implementation backs tests.
package tracker

import "context"

// OwnershipLabel marks sub-issues created by foundry. Issues without this
// label are never updated or closed by the engine, no matter what the
// desired checklist says.
const OwnershipLabel = "foundry"

// ExternalRefPrefix qualifies tracker ids when they leave the core, e.g.
// "linear:a1b2c3". Opaque to the engine; used only when bridging to logs
// and artifact front matter.
const ExternalRefPrefix = "linear:"

// SubIssue is a snapshot of one child issue under a parent.
type SubIssue struct {
	// ID is the tracker-assigned opaque identifier.
	ID string `json:"id"`

	// Title is the current title in the tracker, which a human may have
	// edited since creation.
	Title string `json:"title"`

	// Open is true iff the issue is not in a terminal completed state.
	Open bool `json:"open"`

	// TaskKey is the slug the issue was stamped with at creation. Empty if
	// the issue predates foundry or the stamp was stripped.
	TaskKey string `json:"task_key,omitempty"`

	// Foundry reports whether the ownership label is attached.
	Foundry bool `json:"foundry"`
}

// Tracker is the capability the plan applier executes against.
//
// Every method may fail with a *Error carrying a Transient or Permanent
// kind; anything else is treated as permanent by callers.
type Tracker interface {
	// ListChildren returns a snapshot of the sub-issues under parentID.
	ListChildren(ctx context.Context, parentID string) ([]SubIssue, error)

	// CreateSubIssue creates a child under parentID, stamped with the
	// ownership label and taskKey, and returns the new issue's id.
	CreateSubIssue(ctx context.Context, parentID, title, taskKey string, completed bool) (string, error)

	// UpdateTitle replaces an issue's title.
	UpdateTitle(ctx context.Context, id, title string) error

	// SetState moves an issue to an open state (open=true) or a terminal
	// completed state (open=false).
	SetState(ctx context.Context, id string, open bool) error
}

// ExternalRef renders the fully-qualified form of a tracker id.
func ExternalRef(id string) string {
	return ExternalRefPrefix + id
}
