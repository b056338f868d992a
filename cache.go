package main

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/idlethread/git-voodoo/internal/cache"
	cacheBackends "github.com/idlethread/git-voodoo/internal/cache/backends"
	"github.com/idlethread/git-voodoo/internal/concurrent"
	"github.com/idlethread/git-voodoo/internal/git"
)

func warnFail(cb cache.Backend, err error) cache.Cache {
	logger().Warn(
		fmt.Sprintf("failed to initialize cache: %v", err),
	)
	logger().Warn("disabling caching")
	return cache.NewCache(cb)
}

// getCache returns the repository's cache.
//
// Commits parsed with file diffs are cached apart from commits parsed
// without, since a cached commit missing its diffs cannot answer a query
// that needs them.
func getCache(gitRootPath string, needDiffs bool) cache.Cache {
	var fallback cache.Backend = cacheBackends.NoopBackend{}

	if !cache.IsCachingEnabled() {
		return cache.NewCache(fallback)
	}

	backendName := os.Getenv("GIT_VOODOO_CACHE_BACKEND")
	if backendName == "" {
		backendName = cacheBackends.GobBackendName
	}

	cacheStorageDir, err := cache.CacheStorageDir(backendName)
	if err != nil {
		return warnFail(fallback, err)
	}

	dirname := cacheBackends.RepoCacheDir(cacheStorageDir, gitRootPath)
	err = os.MkdirAll(dirname, 0o700)
	if err != nil {
		return warnFail(fallback, err)
	}

	switch backendName {
	case cacheBackends.GobBackendName:
		p := filepath.Join(dirname, cacheBackends.GobCacheFilename(needDiffs))
		logger().Debug("cache initialized", "path", p)
		return cache.NewCache(&cacheBackends.GobBackend{Path: p, Dir: dirname})
	case "json":
		p := filepath.Join(dirname, cacheBackends.JSONCacheFilename(needDiffs))
		logger().Debug("cache initialized", "path", p)
		return cache.NewCache(cacheBackends.JSONBackend{Path: p})
	default:
		err = fmt.Errorf("unknown cache backend: %s", backendName)
		return warnFail(fallback, err)
	}
}

// openCache opens the cache, swapping in a no-op cache when it will not
// open. A broken cache is never worth failing the command over.
func openCache(c cache.Cache) cache.Cache {
	err := c.Open()
	if err != nil {
		return warnFail(cacheBackends.NoopBackend{}, err)
	}

	return c
}

// closeCache closes the cache, downgrading any error to a warning.
func closeCache(c cache.Cache) {
	err := c.Close()
	if err != nil {
		logger().Warn(fmt.Sprintf("failed to close cache: %v", err))
	}
}

// cachedCommits returns an iterator over the commits with the given hashes,
// pulling what we can from the cache and running git log for the rest. When
// there are enough misses to be worth it, git log runs in parallel. Freshly
// parsed commits are added to the cache by the finish() closer.
func cachedCommits(
	ctx context.Context,
	dir string,
	c cache.Cache,
	hashes []string,
	needDiffs bool,
) (iter.Seq[git.Commit], func() error, error) {
	hits, missing, err := c.Get(hashes)
	if err != nil {
		logger().Warn(fmt.Sprintf("failed reading from cache: %v", err))
		hits, missing = nil, hashes
	}

	if len(missing) == 0 {
		return slices.Values(hits), func() error { return nil }, nil
	}

	var fresh iter.Seq[git.Commit]
	var finishFresh func() error

	nWorkers := concurrent.NumWorkers(
		runtime.GOMAXPROCS(0),
		len(missing),
		needDiffs,
	)
	if nWorkers > 1 {
		fresh, finishFresh = concurrent.Commits(
			ctx,
			dir,
			missing,
			needDiffs,
			nWorkers,
		)
	} else {
		fresh, finishFresh, err = git.StdinCommits(ctx, dir, missing, needDiffs)
		if err != nil {
			return nil, nil, err
		}
	}

	var parsed []git.Commit
	seq := func(yield func(git.Commit) bool) {
		for _, commit := range hits {
			if !yield(commit) {
				return
			}
		}

		for commit := range fresh {
			parsed = append(parsed, commit)
			if !yield(commit) {
				return
			}
		}
	}

	finish := func() error {
		err := finishFresh()
		if err != nil {
			return err
		}

		err = c.Add(parsed)
		if err != nil {
			logger().Warn(fmt.Sprintf("failed writing to cache: %v", err))
		}

		return nil
	}

	return seq, finish, nil
}
