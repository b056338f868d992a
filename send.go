package main

import (
	"context"
	"fmt"

	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/maintainer"
)

// send mails a patch series with git send-email. send-email prompts for
// confirmation itself, so we add none of our own.
func send(
	patchFiles []string,
	to []string,
	ccAddrs []string,
	auto bool,
	dryRun bool,
) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"send\": %w", err)
		}
	}()

	logger().Debug(
		"called send()",
		"patchFiles",
		patchFiles,
		"to",
		to,
		"ccAddrs",
		ccAddrs,
		"auto",
		auto,
		"dryRun",
		dryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if auto {
		recipients, err := maintainer.Recipients(
			ctx,
			"",
			maintainer.DefaultScript,
			patchFiles,
		)
		if err != nil {
			return err
		}

		for _, r := range recipients {
			ccAddrs = append(ccAddrs, r.Address())
		}
	}

	return git.SendEmail(ctx, "", to, ccAddrs, dryRun, patchFiles)
}
