package room

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Key derives the room identifier from a display name: trimmed, lower-cased,
// whitespace runs replaced by a dash.
func Key(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
