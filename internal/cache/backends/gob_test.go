package backends_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/idlethread/git-voodoo/internal/cache"
	"github.com/idlethread/git-voodoo/internal/cache/backends"
	"github.com/idlethread/git-voodoo/internal/git"
)

// Fixture commits shaped like the kernel patches this tool reads: review
// trailers in the message, real-looking paths in the diffs.
func patchCommits() []git.Commit {
	return []git.Commit{
		{
			Hash:        "83bdc7275e6206f560d9be4b0a0b6d8a6f7e8b11",
			ShortHash:   "83bdc7275e62",
			AuthorName:  "Deepak Saxena",
			AuthorEmail: "dsaxena@kernel.org",
			Date:        time.Date(2024, 6, 3, 9, 12, 45, 0, time.UTC),
			Message: "mm/slub: fix object counting on partial frees\n\n" +
				"Signed-off-by: Deepak Saxena <dsaxena@kernel.org>\n",
			FileDiffs: []git.FileDiff{
				{Path: "mm/slub.c", LinesAdded: 14, LinesRemoved: 6},
			},
		},
		{
			Hash:        "f41c2bd18a8e34dd7c3ce0be4be61cba25b8e273",
			ShortHash:   "f41c2bd18a8e",
			AuthorName:  "Ana Oliveira",
			AuthorEmail: "ana@collabora.com",
			Date:        time.Date(2024, 6, 4, 17, 2, 8, 0, time.UTC),
			Message: "net: sunvnet: drop stale TX watchdog\n\n" +
				"Reviewed-by: Deepak Saxena <dsaxena@kernel.org>\n" +
				"Signed-off-by: Ana Oliveira <ana@collabora.com>\n",
			FileDiffs: []git.FileDiff{
				{
					Path:         "drivers/net/ethernet/sun/sunvnet.c",
					LinesAdded:   2,
					LinesRemoved: 31,
				},
			},
		},
		{
			Hash:        "09c4e11b77d2ab95c0f3ed2c9aa15c78b42c9d04",
			ShortHash:   "09c4e11b77d2",
			AuthorName:  "Ana Oliveira",
			AuthorEmail: "ana@collabora.com",
			Date:        time.Date(2024, 6, 5, 8, 44, 0, 0, time.UTC),
			Message: "docs: process: clarify cover letter expectations\n\n" +
				"Acked-by: Deepak Saxena <dsaxena@kernel.org>\n" +
				"Signed-off-by: Ana Oliveira <ana@collabora.com>\n",
		},
	}
}

func collectCached(t *testing.T, b cache.Backend, revs []string) []git.Commit {
	t.Helper()

	seq, finish := b.Get(revs)
	commits := slices.Collect(seq)

	err := finish()
	if err != nil {
		t.Fatalf("reading back cached commits: %v", err)
	}

	return commits
}

func TestGobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := &backends.GobBackend{
		Dir:  dir,
		Path: filepath.Join(dir, backends.GobCacheFilename(true)),
	}

	err := b.Open()
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() {
		err := b.Close()
		if err != nil {
			t.Errorf("closing cache: %v", err)
		}
	}()

	fixtures := patchCommits()
	err = b.Add(fixtures)
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}

	// Ask for two of the three
	got := collectCached(t, b, []string{fixtures[0].Hash, fixtures[2].Hash})
	if len(got) != 2 {
		t.Fatalf("asked for two commits, got %d", len(got))
	}

	want := []git.Commit{fixtures[0], fixtures[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cached commits came back wrong:\n%s", diff)
	}
}

func TestGobSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, backends.GobCacheFilename(false))

	fixtures := patchCommits()

	first := &backends.GobBackend{Dir: dir, Path: path}
	err := first.Open()
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}

	err = first.Add(fixtures[:1])
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}

	err = first.Close()
	if err != nil {
		t.Fatalf("closing cache: %v", err)
	}

	// Close compresses and sweeps; only the .gz should be left behind.
	_, err = os.Stat(path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("uncompressed cache file survived Close: %v", err)
	}

	// A fresh backend stands in for the next invocation of the tool.
	second := &backends.GobBackend{Dir: dir, Path: path}
	err = second.Open()
	if err != nil {
		t.Fatalf("reopening cache: %v", err)
	}
	defer func() {
		err := second.Close()
		if err != nil {
			t.Errorf("closing reopened cache: %v", err)
		}
	}()

	got := collectCached(t, second, []string{fixtures[0].Hash})
	if len(got) != 1 {
		t.Fatalf("wanted the one cached commit back, got %d", len(got))
	}

	if diff := cmp.Diff(fixtures[0], got[0]); diff != "" {
		t.Errorf("commit did not survive the reopen:\n%s", diff)
	}
}

func TestGobAppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, backends.GobCacheFilename(false))

	fixtures := patchCommits()
	revs := []string{}
	for _, c := range fixtures {
		revs = append(revs, c.Hash)
	}

	// Each loop iteration is one run of the tool: open, add one commit's
	// frame, close.
	for i := range fixtures {
		b := &backends.GobBackend{Dir: dir, Path: path}

		err := b.Open()
		if err != nil {
			t.Fatalf("opening cache on run %d: %v", i, err)
		}

		err = b.Add(fixtures[i : i+1])
		if err != nil {
			t.Fatalf("caching commit on run %d: %v", i, err)
		}

		err = b.Close()
		if err != nil {
			t.Fatalf("closing cache on run %d: %v", i, err)
		}
	}

	b := &backends.GobBackend{Dir: dir, Path: path}
	err := b.Open()
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() {
		err := b.Close()
		if err != nil {
			t.Errorf("closing cache: %v", err)
		}
	}()

	got := collectCached(t, b, revs)
	if len(got) != len(fixtures) {
		t.Errorf(
			"cached %d commits over %d runs but got %d back",
			len(fixtures),
			len(fixtures),
			len(got),
		)
	}
}

func TestGobClear(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "repo-abc123")
	err := os.MkdirAll(cacheDir, 0o755)
	if err != nil {
		t.Fatalf("creating cache dir: %v", err)
	}

	path := filepath.Join(cacheDir, backends.GobCacheFilename(false))
	fixtures := patchCommits()

	b := &backends.GobBackend{Dir: cacheDir, Path: path}
	err = b.Open()
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}

	err = b.Add(fixtures)
	if err != nil {
		t.Fatalf("caching commits: %v", err)
	}

	err = b.Close()
	if err != nil {
		t.Fatalf("closing cache: %v", err)
	}

	err = b.Clear()
	if err != nil {
		t.Fatalf("clearing cache: %v", err)
	}

	_, err = os.Stat(cacheDir)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("cache dir survived Clear: %v", err)
	}
}
