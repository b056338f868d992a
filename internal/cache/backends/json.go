package backends

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"slices"

	"github.com/idlethread/git-voodoo/internal/git"
)

// JSONBackend keeps commits as newline-delimited JSON, one commit per line,
// appended in the order they were cached. It reads the whole file on every
// lookup, so it is the slow backend; it earns its keep by being inspectable
// with ordinary text tools when the cache misbehaves.
type JSONBackend struct {
	Path string
}

func (b JSONBackend) Name() string {
	return "json"
}

func (b JSONBackend) Open() error {
	return nil
}

func (b JSONBackend) Close() error {
	return nil
}

func (b JSONBackend) Get(revs []string) (iter.Seq[git.Commit], func() error) {
	hits, err := b.read(revs)

	finish := func() error {
		return err
	}

	return slices.Values(hits), finish
}

// read scans the whole cache file for the requested revs, erroring if any
// commit appears twice. Missing file means an empty cache.
func (b JSONBackend) read(revs []string) ([]git.Commit, error) {
	wanted := map[string]bool{}
	for _, rev := range revs {
		wanted[rev] = true
	}

	f, err := os.Open(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close() // Read-only; the close error doesn't matter

	var hits []git.Commit
	seen := map[string]bool{}

	dec := json.NewDecoder(f)
	for {
		var c git.Commit

		err := dec.Decode(&c)
		if err == io.EOF {
			return hits, nil
		} else if err != nil {
			return hits, err
		}

		if !wanted[c.Hash] {
			continue
		}

		if seen[c.Hash] {
			return hits, fmt.Errorf("duplicate commit in cache: %s", c.Hash)
		}

		seen[c.Hash] = true
		hits = append(hits, c)
	}
}

func (b JSONBackend) Add(commits []git.Commit) (err error) {
	f, err := os.OpenFile(
		b.Path,
		os.O_WRONLY|os.O_APPEND|os.O_CREATE,
		0o644,
	)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	for _, c := range commits {
		line, err := json.Marshal(&c)
		if err != nil {
			return err
		}

		_, err = w.Write(append(line, '\n'))
		if err != nil {
			return err
		}
	}

	return w.Flush()
}

func (b JSONBackend) Clear() error {
	err := os.Remove(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// JSONCacheFilename returns the cache filename for a repo. Commits cached
// with file diffs live apart from commits cached without.
func JSONCacheFilename(withDiffs bool) string {
	if withDiffs {
		return "commits-diffs.jsonl"
	}

	return "commits.jsonl"
}
