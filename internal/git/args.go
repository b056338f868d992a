package git

import (
	"context"
	"fmt"
)

// ParseArgs splits command line args into revisions and pathspecs by asking
// git rev-parse, which understands the "--" convention and can tell a branch
// name from a filename.
//
// With no revisions given, HEAD is assumed.
func ParseArgs(
	ctx context.Context,
	dir string,
	args []string,
) (_ []string, _ []string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error parsing args: %w", err)
		}
	}()

	subprocess, err := RunRevParse(ctx, dir, args)
	if err != nil {
		return nil, nil, err
	}

	revs := []string{}
	pathspecs := []string{}

	// rev-parse prints resolved revisions first, then the pathspecs. The
	// first line that doesn't look like a hash marks the boundary.
	inPathspecs := false

	lines, finish := subprocess.StdoutLines()
	for line := range lines {
		switch {
		case line == "--":
			inPathspecs = true
		case !inPathspecs && isRev(line):
			revs = append(revs, line)
		default:
			inPathspecs = true
			pathspecs = append(pathspecs, line)
		}
	}

	err = finish()
	if err != nil {
		return nil, nil, err
	}

	err = subprocess.Wait()
	if err != nil {
		return nil, nil, err
	}

	if len(revs) == 0 {
		revs = append(revs, "HEAD")
	}

	return revs, pathspecs, nil
}
