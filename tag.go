package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/idlethread/git-voodoo/internal/format"
	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/pretty"
	"github.com/idlethread/git-voodoo/internal/trailer"
)

// tag appends trailer lines to every commit message in a range by rewriting
// history with git filter-branch. Rewriting history is destructive, so the
// user gets one yes/no prompt before anything happens.
func tag(revRange string, trailers []string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"tag\": %w", err)
		}
	}()

	logger().Debug("called tag()", "revRange", revRange, "trailers", trailers)

	if len(trailers) == 0 {
		return errors.New("at least one -t trailer is required")
	}

	for _, line := range trailers {
		err := trailer.Validate(line)
		if err != nil {
			return err
		}

		if !trailer.KnownLabel(line) {
			logger().Warn(
				fmt.Sprintf("unrecognized trailer label in \"%s\"", line),
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count, err := git.NumCommits(ctx, "", []string{revRange}, git.LogFilters{})
	if err != nil {
		return err
	}

	fmt.Println("Will append to every commit message in the range:")
	for _, line := range trailers {
		fmt.Printf("%s+ %s%s\n", pretty.Green(), line, pretty.Reset())
	}
	fmt.Println()

	prompt := fmt.Sprintf("Rewrite %s commits?", format.Number(count))
	if !confirm(prompt) {
		return nil
	}

	return git.FilterBranch(ctx, "", git.TrailerFilter(trailers), revRange)
}

// confirm asks a yes/no question. Anything but an answer starting with "y"
// means no, as does EOF.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return strings.HasPrefix(answer, "y")
}
