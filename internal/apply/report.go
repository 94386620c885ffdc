package apply

import "github.com/foundryhq/foundry/internal/tracker"

// OpKind names the operation category in reports and logs.
type OpKind string

const (
	OpCreate   OpKind = "create"
	OpUpdate   OpKind = "update_title"
	OpReopen   OpKind = "reopen"
	OpComplete OpKind = "complete"
	OpClose    OpKind = "close"
)

// Failure records one operation that terminally failed (after retries for
// transient errors, immediately for permanent ones).
type Failure struct {
	Kind OpKind `json:"kind"`

	// Target identifies the operation's subject: the task key for creates,
	// the issue id for everything else.
	Target string `json:"target"`

	ErrorKind tracker.ErrorKind `json:"error_kind"`
	Message   string            `json:"message"`
}

// Report is the structured outcome of one apply call. The applier never
// raises: every failure is data here.
type Report struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Reopened  int `json:"reopened"`
	Completed int `json:"completed"`
	Closed    int `json:"closed"`

	// CreatedIDs are the tracker ids of successfully created sub-issues,
	// in Markdown order.
	CreatedIDs []string `json:"created_ids,omitempty"`

	Failures []Failure `json:"failures,omitempty"`

	// Cancelled is set when the caller's context ended before the plan was
	// fully issued. Operations completed before cancellation are counted.
	Cancelled bool `json:"cancelled"`
}

// Succeeded reports whether every operation applied cleanly.
func (r *Report) Succeeded() bool {
	return len(r.Failures) == 0 && !r.Cancelled
}

// PermanentFailures counts failures that will not resolve on a rerun
// without intervention.
func (r *Report) PermanentFailures() int {
	n := 0
	for _, f := range r.Failures {
		if f.ErrorKind == tracker.KindPermanent {
			n++
		}
	}
	return n
}
