package main

import (
	"context"
	"fmt"

	"github.com/idlethread/git-voodoo/internal/run"
)

// am fetches a patch series from the list archive and applies it using b4,
// which talks to the user itself.
func am(messageID string, outDir string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"am\": %w", err)
		}
	}()

	logger().Debug("called am()", "messageID", messageID, "outDir", outDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	args := []string{"am"}
	if outDir != "" {
		args = append(args, "-o", outDir)
	}
	args = append(args, messageID)

	return run.Attached(ctx, "", nil, "b4", args...)
}
