package main

import (
	"context"
	"fmt"

	"github.com/idlethread/git-voodoo/internal/maintainer"
)

// cc prints who should receive the given patches, one recipient per line.
func cc(patchFiles []string, treePath string, script string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"cc\": %w", err)
		}
	}()

	logger().Debug(
		"called cc()",
		"patchFiles",
		patchFiles,
		"treePath",
		treePath,
		"script",
		script,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recipients, err := maintainer.Recipients(ctx, treePath, script, patchFiles)
	if err != nil {
		return err
	}

	for _, r := range recipients {
		fmt.Println(r.Address())
	}

	return nil
}
