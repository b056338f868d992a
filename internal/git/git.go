/*
* Reads commit data out of a Git repository.
*
* Everything goes through the git binary as a subprocess; we parse its
* output instead of linking against libgit2.
 */
package git

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

type Commit struct {
	Hash        string
	ShortHash   string
	IsMerge     bool
	AuthorName  string
	AuthorEmail string
	Date        time.Time
	Message     string
	FileDiffs   []FileDiff
}

func (c Commit) Name() string {
	if c.ShortHash != "" {
		return c.ShortHash
	} else if c.Hash != "" {
		return c.Hash
	} else {
		return "unknown"
	}
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

func (c Commit) String() string {
	return fmt.Sprintf(
		"{ hash:%s author:%s <%s> date:%s subject:%s merge:%v }",
		c.Name(),
		c.AuthorName,
		c.AuthorEmail,
		c.Date.Format("Jan 2, 2006"),
		c.Subject(),
		c.IsMerge,
	)
}

// One file's worth of change in a Commit.
type FileDiff struct {
	Path         string
	LinesAdded   int
	LinesRemoved int
}

func (d FileDiff) String() string {
	return fmt.Sprintf(
		"{ path:\"%s\" added:%d removed:%d }",
		d.Path,
		d.LinesAdded,
		d.LinesRemoved,
	)
}

// Returns an iterator over commits identified by the given revisions and
// pathspecs.
//
// Also returns a finish() function that must be called to check for errors
// once iteration is over.
func CommitsWithOpts(
	ctx context.Context,
	dir string,
	revs []string,
	pathspecs []string,
	filters LogFilters,
	populateDiffs bool,
) (
	iter.Seq[Commit],
	func() error,
	error,
) {
	subprocess, err := RunLog(ctx, dir, revs, pathspecs, filters, populateDiffs)
	if err != nil {
		return nil, nil, err
	}

	tokens, tokensFinish := subprocess.StdoutTokens()
	commits, parseFinish := ParseCommits(tokens)

	finish := func() error {
		err := parseFinish()
		if err != nil {
			return err
		}

		err = tokensFinish()
		if err != nil {
			return err
		}

		return subprocess.Wait()
	}
	return commits, finish, nil
}

func Commits(ctx context.Context, dir string, revs []string) (
	iter.Seq[Commit],
	func() error,
	error,
) {
	return CommitsWithOpts(ctx, dir, revs, nil, LogFilters{}, false)
}

// Returns an iterator over the commits named by hash on standard input.
//
// git log --stdin reads all of standard input before emitting anything, so
// it is safe to write every hash up front.
func StdinCommits(
	ctx context.Context,
	dir string,
	hashes []string,
	populateDiffs bool,
) (
	iter.Seq[Commit],
	func() error,
	error,
) {
	subprocess, err := RunStdinLog(ctx, dir, populateDiffs)
	if err != nil {
		return nil, nil, err
	}

	w, closeStdin := subprocess.StdinWriter()
	for _, hash := range hashes {
		fmt.Fprintln(w, hash)
	}

	err = w.Flush()
	if err != nil {
		closeStdin()
		return nil, nil, fmt.Errorf("error writing to git log stdin: %w", err)
	}

	err = closeStdin()
	if err != nil {
		return nil, nil, fmt.Errorf("error closing git log stdin: %w", err)
	}

	tokens, tokensFinish := subprocess.StdoutTokens()
	commits, parseFinish := ParseCommits(tokens)

	finish := func() error {
		err := parseFinish()
		if err != nil {
			return err
		}

		err = tokensFinish()
		if err != nil {
			return err
		}

		return subprocess.Wait()
	}
	return commits, finish, nil
}

// Returns the number of commits reachable from the given revisions.
func NumCommits(
	ctx context.Context,
	dir string,
	revs []string,
	filters LogFilters,
) (_ int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error getting commit count: %w", err)
		}
	}()

	subprocess, err := RunRevList(ctx, dir, revs, filters, true)
	if err != nil {
		return 0, err
	}

	out, err := subprocess.StdoutText()
	if err != nil {
		return 0, err
	}

	err = subprocess.Wait()
	if err != nil {
		return 0, err
	}

	if out == "" {
		return 0, errors.New("no output from git rev-list")
	}

	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Returns the hashes of all commits reachable from the given revisions,
// oldest first.
func RevList(
	ctx context.Context,
	dir string,
	revs []string,
	filters LogFilters,
) (_ []string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error listing revisions: %w", err)
		}
	}()

	subprocess, err := RunRevList(ctx, dir, revs, filters, false)
	if err != nil {
		return nil, err
	}

	hashes := []string{}

	lines, finish := subprocess.StdoutLines()
	for line := range lines {
		hashes = append(hashes, line)
	}

	err = finish()
	if err != nil {
		return nil, err
	}

	err = subprocess.Wait()
	if err != nil {
		return nil, err
	}

	return hashes, nil
}

// Returns the path to the working tree root for the repository at dir.
func GetRoot(ctx context.Context, dir string) (_ string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("could not find git repository root: %w", err)
		}
	}()

	subprocess, err := RunRevParseTopLevel(ctx, dir)
	if err != nil {
		return "", err
	}

	rootPath, err := subprocess.StdoutText()
	if err != nil {
		return "", err
	}

	err = subprocess.Wait()
	if err != nil {
		return "", err
	}

	return rootPath, nil
}
