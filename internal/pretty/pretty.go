// Terminal niceties: color codes and the progress line.
//
// Reports get piped into files and other tools often enough that everything
// here turns itself off when stdout is not a terminal.
package pretty

import (
	"os"

	"golang.org/x/term"
)

const (
	escReset = "\x1b[0m"
	escGreen = "\x1b[32m"
	escDim   = "\x1b[2m"
	escErase = "\x1b[2K"
)

var useColor = true

// SetColorEnabled turns color output on or off for the whole process.
func SetColorEnabled(on bool) {
	useColor = on
}

func seq(esc string) string {
	if !useColor {
		return ""
	}

	return esc
}

func Reset() string { return seq(escReset) }
func Green() string { return seq(escGreen) }
func Dim() string   { return seq(escDim) }

// AllowDynamic reports whether f supports redrawing: cursor movement, color,
// progress lines.
func AllowDynamic(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
