// Helpers for building throwaway git repositories in tests.
package repotest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// CommitSpec describes one commit to create in a scratch repository.
type CommitSpec struct {
	AuthorName  string
	AuthorEmail string
	Date        time.Time
	Message     string
	Files       map[string]string
}

// NewRepo creates an empty git repository under a test temp dir and returns
// its path. Tests are skipped when git isn't installed.
func NewRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, nil, "init", "-q", "-b", "main")
	runGit(t, dir, nil, "config", "user.name", "Test Author")
	runGit(t, dir, nil, "config", "user.email", "test@example.com")

	return dir
}

// Commit writes the given files, stages everything, and commits with the
// author, committer, and dates all pinned. Returns the commit hash.
func Commit(t *testing.T, dir string, spec CommitSpec) string {
	t.Helper()

	for path, contents := range spec.Files {
		full := filepath.Join(dir, path)

		err := os.MkdirAll(filepath.Dir(full), 0o755)
		if err != nil {
			t.Fatalf("could not create dir for %s: %v", path, err)
		}

		err = os.WriteFile(full, []byte(contents), 0o644)
		if err != nil {
			t.Fatalf("could not write %s: %v", path, err)
		}
	}

	runGit(t, dir, nil, "add", "-A")

	date := spec.Date.Format(time.RFC3339)
	env := []string{
		"GIT_AUTHOR_NAME=" + spec.AuthorName,
		"GIT_AUTHOR_EMAIL=" + spec.AuthorEmail,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + spec.AuthorName,
		"GIT_COMMITTER_EMAIL=" + spec.AuthorEmail,
		"GIT_COMMITTER_DATE=" + date,
	}
	runGit(t, dir, env, "commit", "-q", "--allow-empty", "-m", spec.Message)

	return strings.TrimSpace(runGit(t, dir, nil, "rev-parse", "HEAD"))
}

// MergeCommit makes the given commit on a one-commit side branch and merges
// it back, so tests have a real two-parent commit to look at. Returns the
// merge hash.
func MergeCommit(t *testing.T, dir string, spec CommitSpec) string {
	t.Helper()

	runGit(t, dir, nil, "checkout", "-q", "-b", "side")
	Commit(t, dir, spec)
	runGit(t, dir, nil, "checkout", "-q", "main")

	date := spec.Date.Format(time.RFC3339)
	env := []string{
		"GIT_AUTHOR_NAME=" + spec.AuthorName,
		"GIT_AUTHOR_EMAIL=" + spec.AuthorEmail,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + spec.AuthorName,
		"GIT_COMMITTER_EMAIL=" + spec.AuthorEmail,
		"GIT_COMMITTER_DATE=" + date,
	}
	runGit(
		t, dir, env,
		"merge", "-q", "--no-ff", "-m", "Merge branch 'side'", "side",
	)
	runGit(t, dir, nil, "branch", "-q", "-D", "side")

	return strings.TrimSpace(runGit(t, dir, nil, "rev-parse", "HEAD"))
}

func runGit(t *testing.T, dir string, env []string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}

	return string(out)
}
