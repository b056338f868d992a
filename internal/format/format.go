/*
* Small helpers for rendering the reports.
 */
package format

import (
	"strconv"
	"strings"
)

// Abbrev truncates s to max characters, ending with an ellipsis when
// anything was cut.
func Abbrev(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max-1] + "…"
}

// Number formats an integer with thousands separators.
func Number(n int) string {
	s := strconv.Itoa(n)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var build strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			build.WriteRune(',')
		}
		build.WriteRune(r)
	}

	if neg {
		return "-" + build.String()
	}

	return build.String()
}

// YearLabel renders a calendar year, with year zero standing in for commits
// whose dates could not be read.
func YearLabel(year int) string {
	if year == 0 {
		return "????"
	}

	return strconv.Itoa(year)
}
