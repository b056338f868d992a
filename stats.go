package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/idlethread/git-voodoo/internal/format"
	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/pretty"
	"github.com/idlethread/git-voodoo/internal/tally"
	"github.com/idlethread/git-voodoo/internal/trailer"
)

// stats is the default subcommand. With a name it reports everything we can
// find that the named person did, broken down by year; without one it ranks
// everybody by total contributions.
func stats(
	name string,
	repoPath string,
	branch string,
	since string,
	until string,
	useJSON bool,
	verbosity int,
	top int,
	dirDepth int,
) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("error running \"stats\": %w", err)
		}
	}()

	logger().Debug(
		"called stats()",
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
		"useJSON",
		useJSON,
		"verbosity",
		verbosity,
		"top",
		top,
		"dirDepth",
		dirDepth,
	)

	start := time.Now()

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

	// Directory stats need the file diffs, which are expensive; only ask git
	// for them when they will be shown.
	needDiffs := name != "" && verbosity >= 2

	gitRootPath, err := git.GetRoot(ctx, repoPath)
	if err != nil {
		return err
	}

	c := openCache(getCache(gitRootPath, needDiffs))
	defer closeCache(c)

	hashes, err := git.RevList(ctx, repoPath, revs, filters)
	if err != nil {
		return err
	}

	commits, finish, err := cachedCommits(ctx, repoPath, c, hashes, needDiffs)
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

	if name != "" {
		opts := tally.Opts{TrackDirs: needDiffs, DirDepth: dirDepth}
		t := tally.TallyName(ticking, name, opts)
		progress.Done()

		err = finish()
		if err != nil {
			return err
		}

		if t.Empty() {
			fmt.Printf("No contributions found for '%s'.\n", name)
			return nil
		}

		if useJSON {
			err = printNameJSON(t, verbosity, top)
		} else {
			printNameTable(t, verbosity, top)
		}
	} else {
		tallies := tally.TallyAll(ticking)
		progress.Done()

		err = finish()
		if err != nil {
			return err
		}

		if useJSON {
			err = printAllJSON(tallies)
		} else {
			printAllRanked(tallies)
		}
	}

	if err != nil {
		return err
	}

	elapsed := time.Now().Sub(start)
	logger().Debug("finished stats", "duration_ms", elapsed.Milliseconds())

	return nil
}

// Everything is listed at triple verbosity; otherwise the -top limit holds.
func topLimit(top int, verbosity int) int {
	if verbosity >= 3 {
		return 0
	}

	return top
}

// printNameTable renders the per-year table: one row per attribution kind,
// one column per active year. Higher verbosity appends the email-usage and
// top-directories sections.
func printNameTable(t *tally.NameTally, verbosity int, top int) {
	years := t.Years()
	first := format.YearLabel(years[0])
	last := format.YearLabel(years[len(years)-1])
	fmt.Printf("\nContributions by %s (%s - %s)\n", t.Name, first, last)

	var header strings.Builder
	fmt.Fprintf(&header, "%-15s %6s |", "Tag", "Total")
	for _, year := range years {
		fmt.Fprintf(&header, " %6s", format.YearLabel(year))
	}
	fmt.Println(header.String())
	fmt.Println(strings.Repeat("-", 24+7*len(years)))

	for _, kind := range trailer.DisplayOrder {
		var row strings.Builder
		fmt.Fprintf(&row, "%-15s %6d |", kind.String(), t.Total(kind))
		for _, year := range years {
			fmt.Fprintf(&row, " %6d", t.Count(kind, year))
		}
		fmt.Println(row.String())
	}

	if verbosity >= 1 {
		printEmailHistory(t.Emails())
	}

	if verbosity >= 2 && t.Dirs != nil {
		printTopDirs(t.Dirs, topLimit(top, verbosity))
	}
}

func printEmailHistory(usages []tally.EmailUsage) {
	if len(usages) == 0 {
		return
	}

	fmt.Println("\nEmail usage history:")

	width := 0
	for _, u := range usages {
		width = max(width, len(u.Email))
	}

	for _, u := range usages {
		plural := "s"
		if u.Commits == 1 {
			plural = ""
		}

		fmt.Printf(
			"  [%s - %s]  %-*s  (%4d commit%s)\n",
			format.YearLabel(u.FirstYear),
			format.YearLabel(u.LastYear),
			width,
			u.Email,
			u.Commits,
			plural,
		)
	}
}

func printTopDirs(dirs *tally.DirStats, limit int) {
	counts := dirs.Top(0)
	if len(counts) == 0 {
		return
	}

	fmt.Println("\nTop modified directories (commits and unique files):")

	// The column width considers every directory, not just the ones that
	// make the cut.
	width := 10
	for _, c := range counts {
		width = max(width, len(c.Dir))
	}

	if limit > 0 && limit < len(counts) {
		counts = counts[:limit]
	}

	for _, c := range counts {
		fmt.Printf(
			"  %-*s  commits: %-4d  files: %-3d\n",
			width,
			c.Dir,
			c.Commits,
			c.Files,
		)
	}
}

type emailUsageJSON struct {
	Email         string `json:"email"`
	FirstYear     int    `json:"first_year"`
	LastYear      int    `json:"last_year"`
	AuthorCommits int    `json:"author_commits"`
}

type dirCommitsJSON struct {
	Directory string `json:"directory"`
	Commits   int    `json:"commits"`
}

type dirFilesJSON struct {
	Directory    string `json:"directory"`
	FilesChanged int    `json:"files_changed"`
}

type nameStatsJSON struct {
	Contributions map[string]map[string]int `json:"contributions"`
	EmailUsage    []emailUsageJSON          `json:"email_usage"`
	DirsByCommit  []dirCommitsJSON          `json:"directories_by_commit,omitempty"`
	DirsByFiles   []dirFilesJSON            `json:"directories_by_files,omitempty"`
}

func printNameJSON(t *tally.NameTally, verbosity int, top int) error {
	out := nameStatsJSON{
		Contributions: map[string]map[string]int{},
		EmailUsage:    []emailUsageJSON{},
	}

	for _, kind := range trailer.DisplayOrder {
		byYear := t.ByYear(kind)
		if len(byYear) == 0 {
			continue
		}

		counts := map[string]int{}
		for year, n := range byYear {
			counts[strconv.Itoa(year)] = n
		}

		out.Contributions[kind.String()] = counts
	}

	for _, u := range t.Emails() {
		out.EmailUsage = append(out.EmailUsage, emailUsageJSON{
			Email:         u.Email,
			FirstYear:     u.FirstYear,
			LastYear:      u.LastYear,
			AuthorCommits: u.Commits,
		})
	}

	if t.Dirs != nil {
		limit := topLimit(top, verbosity)

		for _, c := range t.Dirs.Top(limit) {
			out.DirsByCommit = append(out.DirsByCommit, dirCommitsJSON{
				Directory: c.Dir,
				Commits:   c.Commits,
			})
		}

		byFiles := t.Dirs.Top(0)
		slices.SortFunc(byFiles, func(a, b tally.DirCount) int {
			if n := b.Files - a.Files; n != 0 {
				return n
			}

			if n := b.Commits - a.Commits; n != 0 {
				return n
			}

			return strings.Compare(a.Dir, b.Dir)
		})

		if limit > 0 && limit < len(byFiles) {
			byFiles = byFiles[:limit]
		}

		for _, c := range byFiles {
			out.DirsByFiles = append(out.DirsByFiles, dirFilesJSON{
				Directory:    c.Dir,
				FilesChanged: c.Files,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}

// printAllRanked lists everyone who shows up in the history, most active
// first: one uniq -c style line per kind, then a Total line.
func printAllRanked(tallies map[string]*tally.CreditTally) {
	for _, t := range tally.Rank(tallies) {
		for _, kind := range trailer.DisplayOrder {
			n := t.Count(kind)
			if n == 0 {
				continue
			}

			fmt.Printf("%7d %s: %s\n", n, kind, t.Name)
		}

		fmt.Printf("%7d Total: %s\n\n", t.Total(), t.Name)
	}
}

func printAllJSON(tallies map[string]*tally.CreditTally) error {
	out := map[string]map[string]int{}

	for id, t := range tallies {
		counts := map[string]int{}
		for _, kind := range trailer.DisplayOrder {
			if n := t.Count(kind); n > 0 {
				counts[kind.String()] = n
			}
		}

		counts["Total"] = t.Total()
		out[id] = counts
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
