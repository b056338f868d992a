package tally

import (
	"iter"
	"slices"

	"github.com/idlethread/git-voodoo/internal/git"
	"github.com/idlethread/git-voodoo/internal/trailer"
)

// A YearBucket holds one calendar year of a contribution timeline: the total
// activity that year and the person who did the most of it.
type YearBucket struct {
	Year  int
	Name  string
	Count int // Contributions by the top person
	Total int // Contributions by everyone
}

// TallyAuthorsByYear finds the author with the most commits in each year.
//
// Returns buckets sorted by year, oldest first, with empty years in between
// filled in. The unknown-year bucket, if any, comes first.
func TallyAuthorsByYear(commits iter.Seq[git.Commit]) []YearBucket {
	years := map[int]map[string]int{}

	for commit := range commits {
		year := yearOf(commit)

		counts, ok := years[year]
		if !ok {
			counts = map[string]int{}
			years[year] = counts
		}

		id := trailer.FormatIdentity(commit.AuthorName, commit.AuthorEmail)
		counts[id] += 1
	}

	buckets := make([]YearBucket, 0, len(years))
	for year, counts := range years {
		bucket := YearBucket{Year: year}

		for name, count := range counts {
			bucket.Total += count

			better := count > bucket.Count ||
				(count == bucket.Count && name < bucket.Name)
			if bucket.Name == "" || better {
				bucket.Name = name
				bucket.Count = count
			}
		}

		buckets = append(buckets, bucket)
	}

	return fillYears(buckets)
}

// YearTotals sums this person's contributions of every kind per year,
// returning buckets sorted by year with gaps filled in.
func (t *NameTally) YearTotals() []YearBucket {
	buckets := []YearBucket{}

	for _, year := range t.Years() {
		total := 0
		for _, counts := range t.counts {
			total += counts[year]
		}

		buckets = append(buckets, YearBucket{
			Year:  year,
			Name:  t.Name,
			Count: total,
			Total: total,
		})
	}

	return fillYears(buckets)
}

// Sorts buckets by year and inserts empty buckets for skipped years. The
// unknown-year bucket is left alone at the front rather than opening a gap
// back to year zero.
func fillYears(buckets []YearBucket) []YearBucket {
	slices.SortFunc(buckets, func(a, b YearBucket) int {
		return a.Year - b.Year
	})

	filled := make([]YearBucket, 0, len(buckets))
	prev := 0
	for _, bucket := range buckets {
		if prev != 0 {
			for year := prev + 1; year < bucket.Year; year++ {
				filled = append(filled, YearBucket{Year: year})
			}
		}

		filled = append(filled, bucket)
		prev = bucket.Year
	}

	return filled
}
