package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/idlethread/git-voodoo/internal/format"
	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/pretty"
	"github.com/idlethread/git-voodoo/internal/tally"
)

const barWidth = 36

// hist draws an ASCII timeline of contributions per year. With a name, each
// bar is that person's combined contributions; without one, each bar shows
// the year's top author against the year's total.
func hist(
	name string,
	repoPath string,
	branch string,
	since string,
	until string,
) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"hist\": %w", err)
		}
	}()

	logger().Debug(
		"called hist()",
		"name",
		name,
		"repoPath",
		repoPath,
		"branch",
		branch,
		"since",
		since,
		"until",
		until,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revs := []string{"--all"}
	if branch != "" {
		revs = []string{branch}
	}

	filters := git.LogFilters{
		Since: since,
		Until: until,
	}

	gitRootPath, err := git.GetRoot(ctx, repoPath)
	if err != nil {
		return err
	}

	c := openCache(getCache(gitRootPath, false))
	defer closeCache(c)

	hashes, err := git.RevList(ctx, repoPath, revs, filters)
	if err != nil {
		return err
	}

	commits, finish, err := cachedCommits(ctx, repoPath, c, hashes, false)
	if err != nil {
		return err
	}

	progress := pretty.NewProgress(len(hashes), pretty.AllowDynamic(os.Stdout))
	ticking := func(yield func(git.Commit) bool) {
		for commit := range commits {
			progress.Tick()
			if !yield(commit) {
				return
			}
		}
	}

	var buckets []tally.YearBucket
	if name != "" {
		t := tally.TallyName(ticking, name, tally.Opts{})
		buckets = t.YearTotals()
	} else {
		buckets = tally.TallyAuthorsByYear(ticking)
	}
	progress.Done()

	err = finish()
	if err != nil {
		return err
	}

	if len(buckets) == 0 {
		if name != "" {
			fmt.Printf("No contributions found for '%s'.\n", name)
		}

		return nil
	}

	maxVal := barWidth
	for _, bucket := range buckets {
		maxVal = max(maxVal, bucket.Total)
	}

	drawTimeline(buckets, maxVal, name == "")
	return nil
}

func drawTimeline(buckets []tally.YearBucket, maxVal int, showName bool) {
	var lastName string
	for _, bucket := range buckets {
		if bucket.Count == 0 {
			fmt.Printf("%s ┤ \n", format.YearLabel(bucket.Year))
			continue
		}

		clampedCount := int(math.Ceil(
			(float64(bucket.Count) / float64(maxVal)) * float64(barWidth),
		))
		clampedTotal := int(math.Ceil(
			(float64(bucket.Total) / float64(maxVal)) * float64(barWidth),
		))

		countBar := strings.Repeat("#", clampedCount)
		totalBar := strings.Repeat("-", clampedTotal-clampedCount)

		label := fmtBucketLabel(bucket, showName, bucket.Name == lastName)
		fmt.Printf(
			"%s ┤ %s%s%-*s%s  %s\n",
			format.YearLabel(bucket.Year),
			countBar,
			pretty.Dim(),
			barWidth-clampedCount,
			totalBar,
			pretty.Reset(),
			label,
		)

		lastName = bucket.Name
	}
}

// fmtBucketLabel describes one bar. Repeats of the same name are dimmed so
// that streaks by one person read as a block.
func fmtBucketLabel(bucket tally.YearBucket, showName bool, fade bool) string {
	metric := fmt.Sprintf("(%s)", format.Number(bucket.Count))
	if !showName {
		return metric
	}

	label := fmt.Sprintf("%s %s", format.Abbrev(bucket.Name, 25), metric)
	if fade {
		return fmt.Sprintf("%s%s%s", pretty.Dim(), label, pretty.Reset())
	}

	return label
}
