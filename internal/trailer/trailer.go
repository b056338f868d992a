/*
* Knows the attribution conventions used in kernel-style commit messages.
*
* A "trailer" here is a line like "Acked-by: Jane Doe <jane@example.com>"
* somewhere in the commit message body. Authorship and merges are not
* trailers, but they get a Kind too so that tallies can treat every way of
* contributing to a commit uniformly.
 */
package trailer

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Author Kind = iota
	CoDevelopedBy
	SignedOffBy
	AckedBy
	ReviewedBy
	ReportedBy
	TestedBy
	Cc
	Merge
)

var labels = map[Kind]string{
	Author:        "Author",
	CoDevelopedBy: "Co-developed-by",
	SignedOffBy:   "Signed-off-by",
	AckedBy:       "Acked-by",
	ReviewedBy:    "Reviewed-by",
	ReportedBy:    "Reported-by",
	TestedBy:      "Tested-by",
	Cc:            "Cc",
	Merge:         "Merges",
}

func (k Kind) String() string {
	label, ok := labels[k]
	if !ok {
		return "Unknown"
	}

	return label
}

// MessageKinds are the kinds found by scanning commit message lines. Author
// and Merge come from commit metadata instead.
var MessageKinds = []Kind{
	CoDevelopedBy,
	SignedOffBy,
	AckedBy,
	ReviewedBy,
	ReportedBy,
	TestedBy,
	Cc,
}

// DisplayOrder is the order kinds appear in when we print a report.
var DisplayOrder = []Kind{
	Author,
	CoDevelopedBy,
	SignedOffBy,
	AckedBy,
	ReviewedBy,
	ReportedBy,
	TestedBy,
	Cc,
	Merge,
}

// Match looks for kind's label on the line and returns the trailer value.
//
// The match is case-insensitive and the label can appear anywhere on the
// line, not just at the start. There must be at least one whitespace
// character after the colon; the value is everything after that first
// whitespace character.
func Match(line string, kind Kind) (value string, ok bool) {
	label := kind.String() + ":"

	i := strings.Index(strings.ToLower(line), strings.ToLower(label))
	if i < 0 {
		return "", false
	}

	rest := line[i+len(label):]
	if len(rest) == 0 {
		return "", false
	}

	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}

	return rest[1:], true
}

// Identity pulls the person out of a trailer value for use as a tally key.
//
// Trailer values are usually "Name <email>" but can carry extra annotations
// after the address, like "Acked-by: Jane Doe <jane@example.com> # v2". We
// keep everything up through the last '>' and drop the rest. Values with no
// email at all, like a bare keyword, don't identify anyone and are skipped.
func Identity(value string) (string, bool) {
	i := strings.LastIndexByte(value, '>')
	if i < 0 {
		return "", false
	}

	return strings.TrimSpace(value[:i+1]), true
}

// FormatIdentity renders an author name and email the way trailer values
// spell identities, so that authorship and trailer credits for the same
// person collide in a tally.
func FormatIdentity(name string, email string) string {
	if name == "" {
		return fmt.Sprintf("<%s>", email)
	}

	return fmt.Sprintf("%s <%s>", name, email)
}

// Validate checks a user-supplied trailer line like "Acked-by: Jane Doe
// <jane@example.com>", returning an error describing the problem if it isn't
// one.
func Validate(line string) error {
	label, rest, found := strings.Cut(line, ":")
	if !found {
		return fmt.Errorf("no colon in trailer \"%s\"", line)
	}

	if len(label) == 0 || strings.ContainsAny(label, " \t") {
		return fmt.Errorf("bad trailer label in \"%s\"", line)
	}

	if len(strings.TrimSpace(rest)) == 0 {
		return fmt.Errorf("no value in trailer \"%s\"", line)
	}

	return nil
}

// KnownLabel reports whether the label on a trailer line is one of the kinds
// we tally.
func KnownLabel(line string) bool {
	label, _, found := strings.Cut(line, ":")
	if !found {
		return false
	}

	for _, kind := range MessageKinds {
		if strings.EqualFold(label, kind.String()) {
			return true
		}
	}

	return false
}
