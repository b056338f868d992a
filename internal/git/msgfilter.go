package git

import (
	"strings"
)

// TrailerFilter builds a shell command suitable for filter-branch's
// --msg-filter that appends the given trailer lines to each commit message.
//
// The filter reads the original message on stdin and writes the amended
// message on stdout, so "cat" followed by a printf per trailer is all we
// need.
func TrailerFilter(trailers []string) string {
	var b strings.Builder
	b.WriteString("cat")

	for _, trailer := range trailers {
		b.WriteString("; printf '%s\\n' ")
		b.WriteString(shellQuote(trailer))
	}

	return b.String()
}

// Wraps s in single quotes for the shell. Embedded single quotes become
// '\''.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
