package pretty

import (
	"fmt"
	"os"
)

// Progress redraws a "Reading commit i / N" line while a long log read runs.
// Updates are skipped entirely when dynamic output is off, so piped output
// stays clean.
type Progress struct {
	enabled bool
	total   int
	n       int
}

func NewProgress(total int, enabled bool) *Progress {
	return &Progress{enabled: enabled, total: total}
}

func (p *Progress) Tick() {
	p.n += 1
	if !p.enabled {
		return
	}

	fmt.Fprintf(os.Stdout, "\rReading commit %d / %d", p.n, p.total)
}

// Done erases the progress line so the report starts on a clean row.
func (p *Progress) Done() {
	if !p.enabled || p.n == 0 {
		return
	}

	fmt.Fprintf(os.Stdout, "\r%s", escErase)
}
