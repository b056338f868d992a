package main

import (
	"context"
	"fmt"

	"github.com/idlethread/git-voodoo/internal/git"
)

// export writes a revision range out as a patch series using git
// format-patch and prints the files it created.
func export(
	revRange string,
	outDir string,
	reroll int,
	coverLetter bool,
	rfc bool,
) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"export\": %w", err)
		}
	}()

	logger().Debug(
		"called export()",
		"revRange",
		revRange,
		"outDir",
		outDir,
		"reroll",
		reroll,
		"coverLetter",
		coverLetter,
		"rfc",
		rfc,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subprocess, err := git.RunFormatPatch(
		ctx,
		"",
		outDir,
		reroll,
		coverLetter,
		rfc,
		revRange,
	)
	if err != nil {
		return err
	}

	lines, finish := subprocess.StdoutLines()
	for line := range lines {
		fmt.Println(line)
	}

	err = finish()
	if err != nil {
		return err
	}

	return subprocess.Wait()
}
