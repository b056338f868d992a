package git_test

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/repotest"
)

func TestCommits(t *testing.T) {
	repo := repotest.NewRepo(t)

	janeHash := repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@x.org",
		Date:        time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC),
		Message: "thermal: fix sensor readout\n\n" +
			"Reviewed-by: Jane Doe <jane@x.org>",
		Files: map[string]string{"drivers/thermal/core.c": "a\nb\n"},
	})
	bobHash := repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Bob",
		AuthorEmail: "bob@work.com",
		Date:        time.Date(2021, 7, 8, 9, 10, 11, 0, time.UTC),
		Message:     "docs: tweak readme",
		Files:       map[string]string{"README": "hi\n"},
	})

	ctx := context.Background()
	seq, finish, err := git.Commits(ctx, repo, []string{"HEAD"})
	if err != nil {
		t.Fatalf("error getting commits: %v", err)
	}

	commits := slices.Collect(seq)
	err = finish()
	if err != nil {
		t.Fatalf("error reading commits: %v", err)
	}

	if len(commits) != 2 {
		t.Fatalf("expected 2 commits but found %d", len(commits))
	}

	// Oldest first
	jane := commits[0]
	if jane.Hash != janeHash {
		t.Errorf("expected first commit %s but got %s", janeHash, jane.Hash)
	}

	if !strings.HasPrefix(janeHash, jane.ShortHash) || jane.ShortHash == "" {
		t.Errorf("short hash %q does not prefix %s", jane.ShortHash, janeHash)
	}

	if jane.AuthorName != "Jane Doe" || jane.AuthorEmail != "jane@x.org" {
		t.Errorf(
			"unexpected author: %s <%s>",
			jane.AuthorName,
			jane.AuthorEmail,
		)
	}

	expectedDate := time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC)
	if !jane.Date.Equal(expectedDate) {
		t.Errorf("expected date %v but got %v", expectedDate, jane.Date)
	}

	if jane.IsMerge {
		t.Error("commit should not be a merge")
	}

	if !strings.Contains(jane.Message, "Reviewed-by: Jane Doe <jane@x.org>") {
		t.Errorf("message is missing its trailer:\n%s", jane.Message)
	}

	if len(jane.FileDiffs) != 0 {
		t.Errorf("did not ask for file diffs but got %v", jane.FileDiffs)
	}

	if commits[1].Hash != bobHash {
		t.Errorf(
			"expected second commit %s but got %s",
			bobHash,
			commits[1].Hash,
		)
	}
}

func TestCommitsWithDiffs(t *testing.T) {
	repo := repotest.NewRepo(t)

	repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@x.org",
		Date:        time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC),
		Message:     "thermal: add sensor",
		Files: map[string]string{
			"drivers/thermal/core.c": "a\nb\n",
			"README":                 "hello\n",
		},
	})

	ctx := context.Background()
	seq, finish, err := git.CommitsWithOpts(
		ctx,
		repo,
		[]string{"HEAD"},
		nil,
		git.LogFilters{},
		true,
	)
	if err != nil {
		t.Fatalf("error getting commits: %v", err)
	}

	commits := slices.Collect(seq)
	err = finish()
	if err != nil {
		t.Fatalf("error reading commits: %v", err)
	}

	if len(commits) != 1 {
		t.Fatalf("expected 1 commit but found %d", len(commits))
	}

	diffs := commits[0].FileDiffs
	if len(diffs) != 2 {
		t.Fatalf("expected 2 file diffs but got %v", diffs)
	}

	// Numstat entries come in path order
	if diffs[0].Path != "README" || diffs[0].LinesAdded != 1 {
		t.Errorf("unexpected first diff: %v", diffs[0])
	}

	if diffs[1].Path != "drivers/thermal/core.c" || diffs[1].LinesAdded != 2 {
		t.Errorf("unexpected second diff: %v", diffs[1])
	}
}

func TestCommitsMerge(t *testing.T) {
	repo := repotest.NewRepo(t)

	repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Bob",
		AuthorEmail: "bob@work.com",
		Date:        time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
		Message:     "init",
		Files:       map[string]string{"README": "hi\n"},
	})
	mergeHash := repotest.MergeCommit(t, repo, repotest.CommitSpec{
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@x.org",
		Date:        time.Date(2021, 1, 3, 3, 4, 5, 0, time.UTC),
		Message:     "thermal: side work",
		Files:       map[string]string{"drivers/thermal/qcom.c": "x\n"},
	})

	ctx := context.Background()
	seq, finish, err := git.Commits(ctx, repo, []string{"HEAD"})
	if err != nil {
		t.Fatalf("error getting commits: %v", err)
	}

	commits := slices.Collect(seq)
	err = finish()
	if err != nil {
		t.Fatalf("error reading commits: %v", err)
	}

	if len(commits) != 3 {
		t.Fatalf("expected 3 commits but found %d", len(commits))
	}

	merge := commits[len(commits)-1]
	if merge.Hash != mergeHash {
		t.Fatalf("expected merge commit last but got %s", merge.Hash)
	}

	if !merge.IsMerge {
		t.Error("merge commit not detected as a merge")
	}
}

func TestStdinCommits(t *testing.T) {
	repo := repotest.NewRepo(t)

	for i, name := range []string{"one", "two", "three"} {
		repotest.Commit(t, repo, repotest.CommitSpec{
			AuthorName:  "Bob",
			AuthorEmail: "bob@work.com",
			Date:        time.Date(2021, 1, i+1, 0, 0, 0, 0, time.UTC),
			Message:     name,
			Files:       map[string]string{name: name + "\n"},
		})
	}

	ctx := context.Background()
	hashes, err := git.RevList(ctx, repo, []string{"HEAD"}, git.LogFilters{})
	if err != nil {
		t.Fatalf("error listing revisions: %v", err)
	}

	if len(hashes) != 3 {
		t.Fatalf("expected 3 hashes but got %d", len(hashes))
	}

	want := []string{hashes[0], hashes[2]}
	seq, finish, err := git.StdinCommits(ctx, repo, want, false)
	if err != nil {
		t.Fatalf("error getting commits: %v", err)
	}

	commits := slices.Collect(seq)
	err = finish()
	if err != nil {
		t.Fatalf("error reading commits: %v", err)
	}

	var got []string
	for _, c := range commits {
		got = append(got, c.Hash)
	}
	slices.Sort(got)
	slices.Sort(want)

	if !slices.Equal(got, want) {
		t.Errorf("expected commits %v but got %v", want, got)
	}
}

func TestNumCommits(t *testing.T) {
	repo := repotest.NewRepo(t)

	for i, name := range []string{"one", "two", "three"} {
		repotest.Commit(t, repo, repotest.CommitSpec{
			AuthorName:  "Bob",
			AuthorEmail: "bob@work.com",
			Date:        time.Date(2021, 1, i+1, 0, 0, 0, 0, time.UTC),
			Message:     name,
			Files:       map[string]string{name: name + "\n"},
		})
	}

	ctx := context.Background()
	count, err := git.NumCommits(ctx, repo, []string{"HEAD"}, git.LogFilters{})
	if err != nil {
		t.Fatalf("error counting commits: %v", err)
	}

	if count != 3 {
		t.Errorf("expected 3 commits but got %d", count)
	}
}

func TestParseArgs(t *testing.T) {
	repo := repotest.NewRepo(t)

	hash := repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Bob",
		AuthorEmail: "bob@work.com",
		Date:        time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
		Message:     "init",
		Files:       map[string]string{"docs/readme.md": "hi\n"},
	})

	ctx := context.Background()

	revs, pathspecs, err := git.ParseArgs(
		ctx,
		repo,
		[]string{"HEAD", "--", "docs"},
	)
	if err != nil {
		t.Fatalf("error parsing args: %v", err)
	}

	if !slices.Equal(revs, []string{hash}) {
		t.Errorf("expected revs [%s] but got %v", hash, revs)
	}

	if !slices.Equal(pathspecs, []string{"docs"}) {
		t.Errorf("expected pathspecs [docs] but got %v", pathspecs)
	}

	// No args means HEAD
	revs, pathspecs, err = git.ParseArgs(ctx, repo, nil)
	if err != nil {
		t.Fatalf("error parsing args: %v", err)
	}

	if !slices.Equal(revs, []string{"HEAD"}) {
		t.Errorf("expected default revs [HEAD] but got %v", revs)
	}

	if len(pathspecs) != 0 {
		t.Errorf("expected no pathspecs but got %v", pathspecs)
	}
}

func TestGetRoot(t *testing.T) {
	repo := repotest.NewRepo(t)

	repotest.Commit(t, repo, repotest.CommitSpec{
		AuthorName:  "Bob",
		AuthorEmail: "bob@work.com",
		Date:        time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
		Message:     "init",
		Files:       map[string]string{"README": "hi\n"},
	})

	ctx := context.Background()
	root, err := git.GetRoot(ctx, repo)
	if err != nil {
		t.Fatalf("error getting root: %v", err)
	}

	// Resolve symlinks so the comparison holds under a symlinked temp dir
	want, err := filepath.EvalSymlinks(repo)
	if err != nil {
		t.Fatal(err)
	}
	got, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}

	if got != want {
		t.Errorf("expected root %s but got %s", want, got)
	}
}
