// Package sanitize cleans user-supplied labels before they are stored in the
// trace database, echoed to the terminal or returned to MCP clients.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxNameLength is the maximum allowed length for scenario names.
const MaxNameLength = 80

var (
	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)

	// reRepeatedUnderscores matches 2 or more consecutive underscores.
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)
)

// Name sanitizes a scenario name. Whitespace becomes a hyphen, only
// [a-zA-Z0-9-_.] are kept, repeated hyphens and underscores collapse, and the
// result is trimmed of separators and truncated to MaxNameLength.
func Name(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('-')
		}
	}
	s := b.String()

	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	s = reRepeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "-_.")

	if len(s) > MaxNameLength {
		s = s[:MaxNameLength]
	}

	return s
}

// StripControlChars removes ASCII control characters (0x00-0x1F and 0x7F),
// except for newline and tab.
func StripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
