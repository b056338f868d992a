// Runs git log in parallel to get some speedup on large repositories.
//
// Hashes are split into chunks and fanned out to workers, each worker feeding
// its chunks to its own git log subprocess. Commits come back in whatever
// order the workers produce them. Every tally in this codebase is a sum that
// does not depend on commit order, so the parallel iterator is a drop-in for
// the serial one without any merge step.
package concurrent

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/idlethread/git-voodoo/internal/git"
)

const chunkSize = 2048
const resultsBuffer = 1024

// NumWorkers picks how many git log subprocesses to use when reading
// nCommits commits. Parsing diffs is much more work per commit, so the
// threshold for spreading out is lower when diffs are needed.
func NumWorkers(nCPU int, nCommits int, populateDiffs bool) int {
	var targetPerWorker int
	if populateDiffs {
		targetPerWorker = 10_000
	} else {
		targetPerWorker = 100_000
	}

	maxWorkers := nCPU*2 - 1
	return max(1, min(maxWorkers, nCommits/targetPerWorker+1))
}

// Commits returns an iterator over the commits named by hash, like
// git.StdinCommits, but reads them with nWorkers git log subprocesses
// running in parallel. Commit order is not preserved.
//
// Also returns a finish() function that must be called to check for errors
// once iteration is over.
func Commits(
	ctx context.Context,
	dir string,
	hashes []string,
	populateDiffs bool,
	nWorkers int,
) (iter.Seq[git.Commit], func() error) {
	logger().Debug(
		"reading commits in parallel",
		"hashes", len(hashes),
		"nWorkers", nWorkers,
	)

	ctx, cancel := context.WithCancel(ctx)

	q := make(chan []string, nWorkers)
	results := make(chan git.Commit, resultsBuffer)
	errs := make(chan error, nWorkers)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := range nWorkers {
		wg.Add(1)

		id := i + 1
		go func() {
			defer wg.Done()

			err := runWorker(ctx, id, dir, populateDiffs, q, results)
			if err != nil {
				errs <- err
				cancel() // Stop the others on the first error
			}
		}()
	}

	go runWriter(ctx, hashes, q)

	go func() {
		wg.Wait()
		close(results)
		close(errs)
		close(done)
	}()

	seq := func(yield func(git.Commit) bool) {
		for commit := range results {
			if !yield(commit) {
				cancel()
				return
			}
		}
	}

	finish := func() (err error) {
		defer func() {
			if err != nil {
				err = fmt.Errorf("error reading commits in parallel: %w", err)
			}
		}()

		cancel()
		<-done

		return <-errs
	}

	return seq, finish
}
