// Package task converts Markdown checklists into desired-task values and
// derives the durable identity (task key) used to match tasks against
// tracker sub-issues across runs.
package task

// MaxTextLen caps the raw text of a single checklist item. Longer items are
// truncated at parse time rather than rejected.
const MaxTextLen = 512

// DesiredTask is one checklist item as authored in a specification.
type DesiredTask struct {
	// Text is the raw captured item text, trimmed. Internal whitespace is
	// preserved verbatim; cosmetic cleanup happens in Humanize, not here.
	Text string `json:"text"`

	// Completed mirrors [x] vs [ ] in the checklist.
	Completed bool `json:"completed"`

	// Order is the zero-based position in the Markdown list. Informational
	// only: identity never depends on it.
	Order int `json:"order"`
}
