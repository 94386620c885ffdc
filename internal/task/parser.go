package task

import (
	"bufio"
	"regexp"
	"strings"
)

// checklistItem matches one Markdown checklist line. All three bullet
// styles are accepted, and nested (indented) items are flattened into the
// top-level sequence.
var checklistItem = regexp.MustCompile(`^\s*[-*+]\s+\[( |x|X)\]\s+(.+)$`)

// ParseChecklist extracts the ordered task list from a Markdown fragment.
//
// Lines that do not look like checklist items are skipped silently; the
// parser never fails. An unparseable document yields an empty slice.
func ParseChecklist(markdown string) []DesiredTask {
	var tasks []DesiredTask

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := checklistItem.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		if len(text) > MaxTextLen {
			text = strings.TrimSpace(text[:MaxTextLen])
		}

		tasks = append(tasks, DesiredTask{
			Text:      text,
			Completed: m[1] == "x" || m[1] == "X",
			Order:     len(tasks),
		})
	}

	return tasks
}
