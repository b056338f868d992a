package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/idlethread/git-voodoo/internal/git"
)

// dump prints the raw token stream read from git log, one token per line
// with embedded newlines escaped. For debugging the log parser.
func dump(args []string, short bool) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"dump\": %w", err)
		}
	}()

	logger().Debug("called dump()", "args", args, "short", short)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revs, pathspecs, err := git.ParseArgs(ctx, "", args)
	if err != nil {
		return err
	}

	subprocess, err := git.RunLog(
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

	out := bufio.NewWriter(os.Stdout)

	tokens, finish := subprocess.StdoutTokens()
	for token := range tokens {
		fmt.Fprintln(out, strings.ReplaceAll(token, "\n", "\\n"))
	}

	err = out.Flush()
	if err != nil {
		return err
	}

	err = finish()
	if err != nil {
		return err
	}

	return subprocess.Wait()
}
