// Handles summations over commits.
package tally

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/trailer"
)

type Opts struct {
	TrackDirs bool // Whether to tally directory activity; needs file diffs
	DirDepth  int
}

// YearCounts maps a calendar year to a count. Year 0 is the bucket for
// commits whose dates we could not read.
type YearCounts map[int]int

// EmailUsage records the period over which a contributor authored commits
// under one of their email addresses.
type EmailUsage struct {
	Email     string
	FirstYear int
	LastYear  int
	Commits   int
}

// NameTally accumulates every kind of contribution attributable to a single
// person across a commit history.
type NameTally struct {
	Name   string
	Dirs   *DirStats // nil unless Opts.TrackDirs was set
	counts map[trailer.Kind]YearCounts
	years  map[int]bool
	emails map[string]*EmailUsage
}

func newNameTally(name string, opts Opts) *NameTally {
	t := &NameTally{
		Name:   name,
		counts: map[trailer.Kind]YearCounts{},
		years:  map[int]bool{},
		emails: map[string]*EmailUsage{},
	}

	if opts.TrackDirs {
		t.Dirs = newDirStats(opts.DirDepth)
	}

	return t
}

func (t *NameTally) add(kind trailer.Kind, year int) {
	counts, ok := t.counts[kind]
	if !ok {
		counts = YearCounts{}
		t.counts[kind] = counts
	}

	counts[year] += 1
}

// mark records a year as active. Merges never mark their year: a year
// someone only merged in gets no column, and someone who only ever merged
// reports no contributions.
func (t *NameTally) mark(year int) {
	t.years[year] = true
}

func (t *NameTally) recordEmail(address string, year int) {
	usage, ok := t.emails[address]
	if !ok {
		usage = &EmailUsage{Email: address, FirstYear: year, LastYear: year}
		t.emails[address] = usage
	}

	if year < usage.FirstYear {
		usage.FirstYear = year
	}
	if year > usage.LastYear {
		usage.LastYear = year
	}

	usage.Commits += 1
}

// Count returns how many contributions of one kind landed in one year.
func (t *NameTally) Count(kind trailer.Kind, year int) int {
	return t.counts[kind][year]
}

// Total returns how many contributions of one kind landed over all years.
func (t *NameTally) Total(kind trailer.Kind) int {
	total := 0
	for _, n := range t.counts[kind] {
		total += n
	}

	return total
}

// ByYear returns a copy of kind's per-year counts. Counts are only ever
// incremented, so every entry is positive.
func (t *NameTally) ByYear(kind trailer.Kind) YearCounts {
	counts := YearCounts{}
	maps.Copy(counts, t.counts[kind])
	return counts
}

// Years returns every year this person contributed in, sorted ascending.
func (t *NameTally) Years() []int {
	return slices.Sorted(maps.Keys(t.years))
}

// Empty reports whether we found no contributions at all.
func (t *NameTally) Empty() bool {
	return len(t.years) == 0
}

// Emails returns usage records sorted by first year of use, oldest address
// first.
func (t *NameTally) Emails() []EmailUsage {
	usages := make([]EmailUsage, 0, len(t.emails))
	for _, usage := range t.emails {
		usages = append(usages, *usage)
	}

	slices.SortFunc(usages, func(a, b EmailUsage) int {
		if a.FirstYear != b.FirstYear {
			return a.FirstYear - b.FirstYear
		}

		return strings.Compare(a.Email, b.Email)
	})

	return usages
}

func yearOf(commit git.Commit) int {
	if commit.Date.IsZero() {
		return 0
	}

	return commit.Date.UTC().Year()
}

// TallyName sums up every contribution by the person called name.
//
// A person matches when name appears case-insensitively in the commit author
// name or email, or in the value of a recognized trailer. Substrings count,
// so "An" matches both "Anastasia" and "Ivan"; the caller should pick a
// needle long enough to be unique.
func TallyName(
	commits iter.Seq[git.Commit],
	name string,
	opts Opts,
) *NameTally {
	needle := strings.ToLower(name)
	t := newNameTally(name, opts)

	for commit := range commits {
		year := yearOf(commit)

		authored := strings.Contains(
			strings.ToLower(commit.AuthorName),
			needle,
		) || strings.Contains(
			strings.ToLower(commit.AuthorEmail),
			needle,
		)

		if authored {
			t.recordEmail(commit.AuthorEmail, year)

			if commit.IsMerge {
				// Merges score separately. The merger didn't write the
				// merged work, so the trailers in a merge they authored
				// don't count for them either.
				t.add(trailer.Merge, year)
				continue
			}

			t.add(trailer.Author, year)
			t.mark(year)

			if t.Dirs != nil {
				t.Dirs.add(commit)
			}
		}

		for _, line := range strings.Split(commit.Message, "\n") {
			for _, kind := range trailer.MessageKinds {
				value, ok := trailer.Match(line, kind)
				if !ok {
					continue
				}

				if strings.Contains(strings.ToLower(value), needle) {
					t.add(kind, year)
					t.mark(year)
				}
			}
		}
	}

	return t
}

// CreditTally counts contributions of every kind for one person.
type CreditTally struct {
	Name   string
	counts map[trailer.Kind]int
}

func (t *CreditTally) Count(kind trailer.Kind) int {
	return t.counts[kind]
}

func (t *CreditTally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}

	return total
}

// TallyAll sums up contributions of every kind for everyone who shows up in
// the commit history.
//
// People are keyed by "Name <email>" as spelled in the log. Trailer values
// without an email-style address don't name anyone we can key on, so they
// are skipped.
func TallyAll(commits iter.Seq[git.Commit]) map[string]*CreditTally {
	tallies := map[string]*CreditTally{}

	add := func(id string, kind trailer.Kind) {
		t, ok := tallies[id]
		if !ok {
			t = &CreditTally{Name: id, counts: map[trailer.Kind]int{}}
			tallies[id] = t
		}

		t.counts[kind] += 1
	}

	for commit := range commits {
		id := trailer.FormatIdentity(commit.AuthorName, commit.AuthorEmail)

		if commit.IsMerge {
			add(id, trailer.Merge)
			continue
		}

		add(id, trailer.Author)

		for _, line := range strings.Split(commit.Message, "\n") {
			for _, kind := range trailer.MessageKinds {
				value, ok := trailer.Match(line, kind)
				if !ok {
					continue
				}

				id, ok := trailer.Identity(value)
				if !ok {
					continue
				}

				add(id, kind)
			}
		}
	}

	return tallies
}

// Rank sorts everyone by total contributions, most first. Ties break by
// name so that output is stable.
func Rank(tallies map[string]*CreditTally) []*CreditTally {
	return slices.SortedFunc(
		maps.Values(tallies),
		func(a, b *CreditTally) int {
			if n := b.Total() - a.Total(); n != 0 {
				return n
			}

			return strings.Compare(a.Name, b.Name)
		},
	)
}
