package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/trailer"
)

// Just prints out the commits as parsed from git log, plus the trailer lines
// recognized in each commit message, for debugging.
func parse(args []string, short bool) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"parse\": %w", err)
		}
	}()

	logger().Debug("called parse()", "args", args, "short", short)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revs, pathspecs, err := git.ParseArgs(ctx, "", args)
	if err != nil {
		return err
	}

	commits, finish, err := git.CommitsWithOpts(
		ctx,
		"",
		revs,
		pathspecs,
		git.LogFilters{},
		!short,
	)
	if err != nil {
		return err
	}

	for commit := range commits {
		fmt.Printf("%s\n", commit)

		for _, line := range strings.Split(commit.Message, "\n") {
			for _, kind := range trailer.MessageKinds {
				value, ok := trailer.Match(line, kind)
				if ok {
					fmt.Printf("  %s: %s\n", kind, strings.TrimSpace(value))
				}
			}
		}

		for _, diff := range commit.FileDiffs {
			fmt.Printf("  %s\n", diff)
		}

		fmt.Println()
	}

	err = finish()
	if err != nil {
		return err
	}

	elapsed := time.Now().Sub(start)
	logger().Debug("finished parse", "duration_ms", elapsed.Milliseconds())

	return nil
}
