// Package testutil holds helpers shared by the output tests.
package testutil

import (
	"regexp"
	"strings"
)

// ansiRegex matches CSI escape sequences such as the theme colors.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes so output can be compared as
// plain text whatever theme was active.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// MissingSubstrings returns the entries of want that do not occur in the
// color-stripped text of s.
func MissingSubstrings(s string, want ...string) []string {
	plain := StripAnsiCodes(s)
	var missing []string
	for _, w := range want {
		if !strings.Contains(plain, w) {
			missing = append(missing, w)
		}
	}
	return missing
}
