// Figures out who should receive a patch series.
package maintainer

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/idlethread/git-voodoo/internal/run"
)

// DefaultScript is where a kernel tree keeps its maintainer lookup script.
const DefaultScript = "scripts/get_maintainer.pl"

// Recipient is someone a patch should go to. Mailing lists have no name.
type Recipient struct {
	Name  string
	Email string
}

func (r Recipient) Address() string {
	if r.Name == "" {
		return r.Email
	}

	return fmt.Sprintf("%s <%s>", r.Name, r.Email)
}

// Recipients runs the maintainer script over the given patch files and
// returns everyone it names, deduplicated by email in first-seen order.
//
// The script path is resolved relative to dir, since the script only works
// when run from the root of the tree it belongs to.
func Recipients(
	ctx context.Context,
	dir string,
	script string,
	patchFiles []string,
) (_ []Recipient, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error looking up maintainers: %w", err)
		}
	}()

	args := []string{"--norolestats"}
	for _, path := range patchFiles {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}

		args = append(args, abs)
	}

	subprocess, err := run.Start(ctx, dir, script, args, false)
	if err != nil {
		return nil, err
	}

	lines, finish := subprocess.StdoutLines()
	recipients := parse(lines)

	err = finish()
	if err != nil {
		return nil, err
	}

	err = subprocess.Wait()
	if err != nil {
		return nil, err
	}

	logger().Debug("maintainer lookup", "recipients", len(recipients))
	return recipients, nil
}

func parse(lines iter.Seq[string]) []Recipient {
	var recipients []Recipient
	seen := map[string]bool{}

	for line := range lines {
		r, ok := parseLine(line)
		if !ok {
			continue
		}

		if seen[r.Email] {
			continue
		}

		seen[r.Email] = true
		recipients = append(recipients, r)
	}

	return recipients
}

// parseLine handles both plain addresses and the "Name <email> (role)" form
// the script prints when role stats are left on.
func parseLine(line string) (Recipient, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Recipient{}, false
	}

	// Strip a trailing role like "(maintainer:THERMAL)"
	if strings.HasSuffix(line, ")") {
		if i := strings.LastIndex(line, " ("); i != -1 {
			line = strings.TrimSpace(line[:i])
		}
	}

	open := strings.Index(line, "<")
	closing := strings.LastIndex(line, ">")
	if open != -1 && closing > open {
		name := strings.TrimSpace(line[:open])
		name = strings.Trim(name, "\"")
		email := strings.TrimSpace(line[open+1 : closing])
		if email == "" {
			return Recipient{}, false
		}

		return Recipient{Name: name, Email: email}, true
	}

	if !strings.Contains(line, "@") {
		return Recipient{}, false
	}

	return Recipient{Email: line}, true
}
