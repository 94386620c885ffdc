package task

import (
	"regexp"
	"strings"
	"unicode"
)

// acronyms is the fixed set restored to uppercase after sentence-casing.
var acronyms = []string{"API", "HTTP", "TCP", "UI", "UX", "CLI", "SDK", "ID", "URL"}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	acronymPattern = map[string]*regexp.Regexp{}
)

func init() {
	for _, a := range acronyms {
		acronymPattern[a] = regexp.MustCompile(`(?i)\b` + strings.ToLower(a) + `\b`)
	}
}

// Humanize normalizes raw task text into a presentable issue title:
// underscores become spaces, whitespace runs collapse, the result is
// sentence-cased, and well-known acronyms get their casing back.
//
// Humanize is cosmetic only. It is applied when generating a title for a
// create or update operation and must never be used for identity or for
// comparing existing titles.
func Humanize(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "_", " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	if s == "" {
		return s
	}

	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	s = string(runes)

	for _, a := range acronyms {
		s = acronymPattern[a].ReplaceAllString(s, a)
	}
	return s
}
