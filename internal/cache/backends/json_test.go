package backends_test

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idlethread/git-voodoo/internal/cache/backends"
)

func TestJSONRoundTrip(t *testing.T) {
	b := backends.JSONBackend{
		Path: filepath.Join(t.TempDir(), backends.JSONCacheFilename(true)),
	}

	fixtures := patchCommits()
	err := b.Add(fixtures)
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}

	got := collectCached(t, b, []string{fixtures[1].Hash})
	if len(got) != 1 {
		t.Fatalf("asked for one commit, got %d", len(got))
	}

	if diff := cmp.Diff(fixtures[1], got[0]); diff != "" {
		t.Errorf("cached commit came back wrong:\n%s", diff)
	}
}

func TestJSONOneLinePerCommit(t *testing.T) {
	b := backends.JSONBackend{
		Path: filepath.Join(t.TempDir(), backends.JSONCacheFilename(false)),
	}

	fixtures := patchCommits()

	// Two separate adds should still append, not rewrite
	err := b.Add(fixtures[:2])
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}
	err = b.Add(fixtures[2:])
	if err != nil {
		t.Fatalf("caching more commits: %v", err)
	}

	f, err := os.Open(b.Path)
	if err != nil {
		t.Fatalf("opening cache file: %v", err)
	}
	defer f.Close()

	nlines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		nlines++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning cache file: %v", err)
	}

	if nlines != len(fixtures) {
		t.Errorf(
			"cache file should hold %d lines for %d commits, found %d",
			len(fixtures),
			len(fixtures),
			nlines,
		)
	}

	revs := []string{}
	for _, c := range fixtures {
		revs = append(revs, c.Hash)
	}

	got := collectCached(t, b, revs)
	if len(got) != len(fixtures) {
		t.Errorf("cached %d commits, got %d back", len(fixtures), len(got))
	}
}

func TestJSONFlagsDuplicates(t *testing.T) {
	b := backends.JSONBackend{
		Path: filepath.Join(t.TempDir(), backends.JSONCacheFilename(false)),
	}

	fixtures := patchCommits()

	// Nothing above this layer should ever add the same commit twice, so
	// finding it twice on disk means the cache is corrupt.
	err := b.Add(fixtures[:1])
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}
	err = b.Add(fixtures[:1])
	if err != nil {
		t.Fatalf("caching commits again: %v", err)
	}

	seq, finish := b.Get([]string{fixtures[0].Hash})
	for range seq {
	}

	err = finish()
	if err == nil {
		t.Errorf("want an error for a duplicated commit, got none")
	}
}

func TestJSONEmptyWhenMissing(t *testing.T) {
	b := backends.JSONBackend{
		Path: filepath.Join(t.TempDir(), backends.JSONCacheFilename(false)),
	}

	got := collectCached(t, b, []string{patchCommits()[0].Hash})
	if len(got) > 0 {
		t.Errorf("nothing was ever cached but got %d commits", len(got))
	}
}

func TestJSONClearMissingFile(t *testing.T) {
	b := backends.JSONBackend{
		Path: filepath.Join(t.TempDir(), backends.JSONCacheFilename(false)),
	}

	err := b.Clear()
	if err != nil {
		t.Errorf("clearing a cache that never existed: %v", err)
	}
}
