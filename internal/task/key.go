package task

import (
	"regexp"
	"strings"
)

// MaxKeyLen caps the derived task key. Keys are truncated, never rejected.
const MaxKeyLen = 64

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Key derives the durable identity slug for a task's text.
//
// The slug is a pure function of the text: lowercased, runs of
// non-alphanumeric characters collapsed to a single hyphen, leading and
// trailing hyphens stripped, truncated to MaxKeyLen. Key(Key(s)) == Key(s).
//
// Identity must never be derived from a humanized title: humans edit titles
// in the tracker, and keying off them would oscillate. See Humanize.
func Key(text string) string {
	slug := strings.ToLower(text)
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxKeyLen {
		slug = strings.TrimRight(slug[:MaxKeyLen], "-")
	}
	return slug
}
