package concurrent_test

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/idlethread/git-voodoo/internal/concurrent"
	"github.com/idlethread/git-voodoo/internal/repotest"
)

func TestNumWorkers(t *testing.T) {
	tests := []struct {
		name          string
		nCPU          int
		nCommits      int
		populateDiffs bool
		expected      int
	}{
		{"small_repo", 8, 500, false, 1},
		{"small_repo_diffs", 8, 500, true, 1},
		{"big_repo", 8, 1_000_000, false, 11},
		{"big_repo_diffs", 8, 1_000_000, true, 15},
		{"single_cpu", 1, 1_000_000, true, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n := concurrent.NumWorkers(
				test.nCPU,
				test.nCommits,
				test.populateDiffs,
			)
			if n != test.expected {
				t.Errorf("expected %d workers but got %d", test.expected, n)
			}
		})
	}
}

func TestCommits(t *testing.T) {
	repo := repotest.NewRepo(t)

	var hashes []string
	for i := range 5 {
		hash := repotest.Commit(t, repo, repotest.CommitSpec{
			AuthorName:  "Jane Doe",
			AuthorEmail: "jane@example.com",
			Date:        time.Date(2020+i, 3, 14, 12, 0, 0, 0, time.UTC),
			Message:     "Add a thing",
			Files:       map[string]string{"file.txt": strconv.Itoa(i)},
		})
		hashes = append(hashes, hash)
	}

	commits, finish := concurrent.Commits(
		context.Background(),
		repo,
		hashes,
		false,
		2,
	)

	var got []string
	for commit := range commits {
		got = append(got, commit.Hash)
	}

	err := finish()
	if err != nil {
		t.Fatalf("finish returned error: %v", err)
	}

	want := slices.Clone(hashes)
	slices.Sort(want)
	slices.Sort(got)

	if !slices.Equal(got, want) {
		t.Errorf("expected hashes %v but got %v", want, got)
	}
}

func TestCommitsBadHash(t *testing.T) {
	repo := repotest.NewRepo(t)
	repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@example.com",
		Date:        time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC),
		Message:     "Add a thing",
		Files:       map[string]string{"file.txt": "hello"},
	})

	commits, finish := concurrent.Commits(
		context.Background(),
		repo,
		[]string{strings.Repeat("a", 40)},
		false,
		2,
	)

	for range commits {
	}

	err := finish()
	if err == nil {
		t.Error("expected an error for an unknown hash")
	}
}
