// Package project persists foundry's long-lived artifacts: the project
// manifest and its specification documents, each carrying a Markdown task
// checklist that the reconciliation engine consumes.
package project

import (
	"time"

	"github.com/foundryhq/foundry/internal/task"
)

// Project is the manifest stored at <root>/config.yaml.
type Project struct {
	Name    string    `yaml:"name"`
	Created time.Time `yaml:"created"`

	// Parents maps a specification slug to the fully-qualified external id
	// of its parent issue in the tracker, e.g. "linear:a1b2c3".
	Parents map[string]string `yaml:"parents,omitempty"`
}

// Spec is one specification document, stored at <root>/specs/<slug>.md
// with YAML front matter.
type Spec struct {
	Slug    string    `yaml:"-"`
	Title   string    `yaml:"title"`
	Created time.Time `yaml:"created"`

	// Parent mirrors Project.Parents for convenience when the spec is
	// loaded standalone.
	Parent string `yaml:"parent,omitempty"`

	// Body is the Markdown below the front matter.
	Body string `yaml:"-"`
}

// Tasks parses the spec's checklist. Only items under the "## Tasks"
// heading count; a spec without that section yields no tasks.
func (s *Spec) Tasks() []task.DesiredTask {
	return task.ParseChecklist(TasksSection(s.Body))
}
