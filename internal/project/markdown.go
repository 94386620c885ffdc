package project

import (
	"regexp"
	"strings"
)

var tasksHeading = regexp.MustCompile(`(?mi)^##\s+tasks\s*$`)
var anyHeading = regexp.MustCompile(`(?m)^#{1,2}\s+\S`)

// TasksSection returns the Markdown between the "## Tasks" heading and the
// next heading of the same or higher level (or end of document). Empty if
// the spec has no tasks section.
func TasksSection(body string) string {
	loc := tasksHeading.FindStringIndex(body)
	if loc == nil {
		return ""
	}
	rest := body[loc[1]:]
	if next := anyHeading.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return strings.TrimSpace(rest)
}

// ReplaceTasksSection swaps the tasks section's content for checklist,
// appending the section if the document lacks one.
func ReplaceTasksSection(body, checklist string) string {
	checklist = strings.TrimSpace(checklist)

	loc := tasksHeading.FindStringIndex(body)
	if loc == nil {
		sep := "\n"
		if !strings.HasSuffix(body, "\n") && body != "" {
			sep = "\n\n"
		}
		return body + sep + "## Tasks\n\n" + checklist + "\n"
	}

	head := body[:loc[1]]
	rest := body[loc[1]:]
	tail := ""
	if next := anyHeading.FindStringIndex(rest); next != nil {
		tail = rest[next[0]:]
	}
	out := head + "\n\n" + checklist + "\n"
	if tail != "" {
		out += "\n" + tail
	}
	return out
}
