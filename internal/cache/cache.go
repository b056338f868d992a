// Caching of parsed commits.
package cache

import (
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/idlethread/git-voodoo/internal/git"
)

type Backend interface {
	Name() string
	Open() error
	Close() error
	Get(revs []string) (iter.Seq[git.Commit], func() error)
	Add(commits []git.Commit) error
	Clear() error
}

type Cache struct {
	backend Backend
}

func NewCache(backend Backend) Cache {
	return Cache{backend: backend}
}

func (c *Cache) Name() string {
	return c.backend.Name()
}

func (c *Cache) Open() error {
	return c.backend.Open()
}

func (c *Cache) Close() error {
	return c.backend.Close()
}

// Get looks up the given revs and returns the commits we had cached along
// with the revs we did not. Missing revs keep their input order, so the
// caller can hand them straight to git log.
func (c *Cache) Get(revs []string) ([]git.Commit, []string, error) {
	start := time.Now()

	hits := []git.Commit{}
	found := map[string]bool{}

	seq, finish := c.backend.Get(revs)
	for commit := range seq {
		found[commit.Hash] = true
		hits = append(hits, commit)
	}

	err := finish()
	if err != nil {
		return nil, nil, err
	}

	missing := []string{}
	for _, rev := range revs {
		if !found[rev] {
			missing = append(missing, rev)
		}
	}

	elapsed := time.Now().Sub(start)
	logger().Debug(
		"cache get",
		"duration_ms",
		elapsed.Milliseconds(),
		"hits",
		len(hits),
		"misses",
		len(missing),
	)

	return hits, missing, nil
}

func (c *Cache) Add(commits []git.Commit) error {
	start := time.Now()

	err := c.backend.Add(commits)
	if err != nil {
		return err
	}

	elapsed := time.Now().Sub(start)
	logger().Debug(
		"cache add",
		"duration_ms",
		elapsed.Milliseconds(),
		"commits",
		len(commits),
	)

	return nil
}

func (c *Cache) Clear() error {
	return c.backend.Clear()
}

// IsCachingEnabled can be used to turn off caching, e.g. when running in CI.
func IsCachingEnabled() bool {
	return os.Getenv("GIT_VOODOO_DISABLE_CACHE") == ""
}

// CacheStorageDir returns the path under the user cache dir where a backend
// should keep its files.
func CacheStorageDir(name string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, "git-voodoo", name), nil
}
