package concurrent

import (
	"context"
	"fmt"

	"github.com/idlethread/git-voodoo/internal/git"
)

// Writer. Feeds chunks of hashes to the work queue for the workers.
func runWriter(ctx context.Context, hashes []string, q chan<- []string) {
	logger().Debug("writer started")
	defer logger().Debug("writer exited")

	defer close(q)

	for i := 0; i < len(hashes); i += chunkSize {
		chunk := hashes[i:min(i+chunkSize, len(hashes))]

		select {
		case <-ctx.Done():
			return
		case q <- chunk:
		}
	}
}

// A worker that runs git log for each chunk of hashes it picks up.
// Cancellation is a clean shutdown, not an error.
func runWorker(
	ctx context.Context,
	id int,
	dir string,
	populateDiffs bool,
	q <-chan []string,
	results chan<- git.Commit,
) (err error) {
	logger := logger().With("workerId", id)
	logger.Debug("worker started")

	defer func() {
		if err != nil {
			err = fmt.Errorf("error in worker %d: %w", id, err)
		}

		logger.Debug("worker exited")
	}()

	for {
		var chunk []string
		var ok bool

		select {
		case <-ctx.Done():
			return nil
		case chunk, ok = <-q:
			if !ok {
				return nil // Channel closed, no more work
			}
		}

		commits, finish, err := git.StdinCommits(ctx, dir, chunk, populateDiffs)
		if err != nil {
			return err
		}

		cancelled := false
		for commit := range commits {
			select {
			case <-ctx.Done():
				cancelled = true
			case results <- commit:
			}

			if cancelled {
				break
			}
		}

		if cancelled {
			return nil
		}

		err = finish()
		if err != nil {
			return err
		}
	}
}
