package tally

import (
	"slices"
	"strings"

	"github.com/idlethread/git-voodoo/internal/git"
)

// DirStats tracks which directories a person's authored commits touch.
//
// For each directory we count the commits touching it and the distinct
// files touched under it. A path always truncates to the same directory,
// so checking "seen anywhere" is enough to keep the per-directory file
// counts deduplicated.
type DirStats struct {
	depth   int
	commits map[string]int
	files   map[string]int
	seen    map[string]bool
}

func newDirStats(depth int) *DirStats {
	return &DirStats{
		depth:   depth,
		commits: map[string]int{},
		files:   map[string]int{},
		seen:    map[string]bool{},
	}
}

func (d *DirStats) add(commit git.Commit) {
	touched := map[string]bool{}

	for _, diff := range commit.FileDiffs {
		dir := truncateDir(diff.Path, d.depth)
		touched[dir] = true

		if !d.seen[diff.Path] {
			d.seen[diff.Path] = true
			d.files[dir] += 1
		}
	}

	for dir := range touched {
		d.commits[dir] += 1
	}
}

// DirCount pairs a directory with how many commits touched it and how many
// distinct files were touched under it.
type DirCount struct {
	Dir     string
	Commits int
	Files   int
}

// Top returns directories ranked by commits touched, breaking ties by file
// count and then name. A limit of 0 means no limit.
func (d *DirStats) Top(limit int) []DirCount {
	counts := make([]DirCount, 0, len(d.commits))
	for dir, n := range d.commits {
		counts = append(counts, DirCount{
			Dir:     dir,
			Commits: n,
			Files:   d.files[dir],
		})
	}

	slices.SortFunc(counts, func(a, b DirCount) int {
		if n := b.Commits - a.Commits; n != 0 {
			return n
		}

		if n := b.Files - a.Files; n != 0 {
			return n
		}

		return strings.Compare(a.Dir, b.Dir)
	})

	if limit > 0 && limit < len(counts) {
		counts = counts[:limit]
	}

	return counts
}

// truncateDir cuts a file path down to its directory, keeping at most depth
// leading components. Files at the repository root land in ".".
func truncateDir(path string, depth int) string {
	parts := strings.Split(path, "/")
	parts = parts[:len(parts)-1] // Drop the filename

	if depth > 0 && len(parts) > depth {
		parts = parts[:depth]
	}

	if len(parts) == 0 {
		return "."
	}

	return strings.Join(parts, "/")
}
