/*
* Builds the git command lines the rest of the package runs.
 */
package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/idlethread/git-voodoo/internal/run"
)

// Log fields are NUL-separated: hash, short hash, parent hashes, author name,
// author email, committer date, full message body. We take the committer date
// because that is when the commit actually landed in the tree.
const logFormat = "--pretty=format:%H%x00%h%x00%p%x00%an%x00%ae%x00%cd%x00%B%x00"

func logArgs(needDiffs bool) []string {
	args := []string{
		"log",
		logFormat,
		"-z",
		"--date=unix",
		"--reverse",
		"--no-show-signature",
		"--no-mailmap",
	}

	if needDiffs {
		args = append(args, "--numstat")
	}

	return args
}

// Runs git log
func RunLog(
	ctx context.Context,
	dir string,
	revs []string,
	pathspecs []string,
	filters LogFilters,
	needDiffs bool,
) (*run.Subprocess, error) {
	baseArgs := logArgs(needDiffs)
	filterArgs := filters.ToArgs()

	var args []string
	if len(pathspecs) > 0 {
		args = slices.Concat(
			baseArgs,
			filterArgs,
			revs,
			[]string{"--"},
			pathspecs,
		)
	} else {
		args = slices.Concat(baseArgs, filterArgs, revs)
	}

	needStdin := false
	subprocess, err := run.Start(ctx, dir, "git", args, needStdin)
	if err != nil {
		return nil, fmt.Errorf("failed to run git log: %w", err)
	}

	return subprocess, nil
}

// Runs git log --stdin, reading the commits to show from standard input.
func RunStdinLog(
	ctx context.Context,
	dir string,
	needDiffs bool,
) (*run.Subprocess, error) {
	args := append(logArgs(needDiffs), "--stdin", "--no-walk")

	needStdin := true
	subprocess, err := run.Start(ctx, dir, "git", args, needStdin)
	if err != nil {
		return nil, fmt.Errorf("error running git log --stdin: %w", err)
	}

	return subprocess, nil
}

// Runs git rev-parse
func RunRevParse(
	ctx context.Context,
	dir string,
	args []string,
) (*run.Subprocess, error) {
	var baseArgs = []string{
		"rev-parse",
		"--no-flags",
	}

	needStdin := false
	subprocess, err := run.Start(
		ctx,
		dir,
		"git",
		slices.Concat(baseArgs, args),
		needStdin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run git rev-parse: %w", err)
	}

	return subprocess, nil
}

func RunRevParseTopLevel(
	ctx context.Context,
	dir string,
) (*run.Subprocess, error) {
	var args = []string{"rev-parse", "--show-toplevel"}

	needStdin := false
	subprocess, err := run.Start(ctx, dir, "git", args, needStdin)
	if err != nil {
		return nil, fmt.Errorf("failed to run git rev-parse: %w", err)
	}

	return subprocess, nil
}

// Runs git rev-list. When countOnly is true, passes --count, which is much
// faster than printing then counting all the revisions when all you need is
// the count.
func RunRevList(
	ctx context.Context,
	dir string,
	revs []string,
	filters LogFilters,
	countOnly bool,
) (*run.Subprocess, error) {
	if len(revs) == 0 {
		return nil, errors.New("git rev-list requires revision spec")
	}

	baseArgs := []string{
		"rev-list",
		"--reverse",
	}

	if countOnly {
		baseArgs = append(baseArgs, "--count")
	}

	args := slices.Concat(baseArgs, filters.ToArgs(), revs)

	needStdin := false
	subprocess, err := run.Start(ctx, dir, "git", args, needStdin)
	if err != nil {
		return nil, fmt.Errorf("failed to run git rev-list: %w", err)
	}

	return subprocess, nil
}

// Runs git format-patch to write out a patch series.
func RunFormatPatch(
	ctx context.Context,
	dir string,
	outDir string,
	reroll int,
	coverLetter bool,
	rfc bool,
	revRange string,
) (*run.Subprocess, error) {
	args := []string{"format-patch"}

	if outDir != "" {
		args = append(args, "-o", outDir)
	}

	if reroll > 0 {
		args = append(args, "-v", strconv.Itoa(reroll))
	}

	if coverLetter {
		args = append(args, "--cover-letter")
	}

	if rfc {
		args = append(args, "--rfc")
	}

	args = append(args, revRange)

	needStdin := false
	subprocess, err := run.Start(ctx, dir, "git", args, needStdin)
	if err != nil {
		return nil, fmt.Errorf("failed to run git format-patch: %w", err)
	}

	return subprocess, nil
}

// Runs git send-email attached to the terminal. send-email does its own
// confirmation prompting, so we stay out of the way.
func SendEmail(
	ctx context.Context,
	dir string,
	to []string,
	cc []string,
	dryRun bool,
	patchFiles []string,
) error {
	args := []string{"send-email"}

	for _, addr := range to {
		args = append(args, "--to", addr)
	}

	for _, addr := range cc {
		args = append(args, "--cc", addr)
	}

	if dryRun {
		args = append(args, "--dry-run")
	}

	args = append(args, patchFiles...)

	return run.Attached(ctx, dir, nil, "git", args...)
}

// Runs git filter-branch with the given --msg-filter over a range of
// commits, rewriting history. The caller is expected to have confirmed with
// the user first.
func FilterBranch(
	ctx context.Context,
	dir string,
	msgFilter string,
	revRange string,
) error {
	env := []string{"FILTER_BRANCH_SQUELCH_WARNING=1"}
	return run.Attached(
		ctx,
		dir,
		env,
		"git",
		"filter-branch",
		"--msg-filter",
		msgFilter,
		revRange,
	)
}
