package git

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The commit fields arrive as NUL-separated tokens in this order, matching
// the --pretty format in cmd.go. Any tokens after the message belong to the
// --numstat block.
const (
	fieldHash = iota
	fieldShortHash
	fieldParents
	fieldAuthorName
	fieldAuthorEmail
	fieldDate
	fieldMessage
	numCommitFields
)

var revPattern = regexp.MustCompile(`^[\^a-f0-9]+$`)

// isRev reports whether a token is a full-length commit hash, possibly with
// a leading "^" marking an excluded rev.
func isRev(s string) bool {
	if len(s) != 40 && len(s) != 41 {
		return false
	}

	return revPattern.MatchString(s)
}

// A commit with no author name and no email credits nobody; drop it.
func allowCommit(commit Commit) bool {
	if commit.AuthorName != "" || commit.AuthorEmail != "" {
		return true
	}

	logger().Debug("skipping commit with no author", "commit", commit.Name())
	return false
}

func parseUnixDate(token string, commitName string) time.Time {
	epoch, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		// A commit with a mangled date still counts; it just lands in the
		// unknown-year bucket.
		logger().Debug(
			"could not parse commit date",
			"commit",
			commitName,
			"value",
			token,
		)
		return time.Time{}
	}

	return time.Unix(epoch, 0)
}

func parseChangeCounts(addedStr string, removedStr string, token string) (
	added int,
	removed int,
	err error,
) {
	// git reports "-" for binary files
	if addedStr != "-" {
		added, err = strconv.Atoi(addedStr)
		if err != nil {
			return 0, 0, fmt.Errorf(
				"bad line count %q in numstat entry %q",
				addedStr,
				token,
			)
		}
	}

	if removedStr != "-" {
		removed, err = strconv.Atoi(removedStr)
		if err != nil {
			return 0, 0, fmt.Errorf(
				"bad line count %q in numstat entry %q",
				removedStr,
				token,
			)
		}
	}

	return added, removed, nil
}

// applyNumstat folds one numstat token into the commit. A modified file is a
// single token, "added<TAB>removed<TAB>path". A rename arrives as three
// tokens: the counts with a trailing tab, then the old path, then the new
// path. pending carries the partial diff between those tokens.
func applyNumstat(commit *Commit, pending *FileDiff, token string) error {
	parts := strings.Split(strings.Trim(token, "\t"), "\t")

	switch len(parts) {
	case 3:
		added, removed, err := parseChangeCounts(parts[0], parts[1], token)
		if err != nil {
			return err
		}

		commit.FileDiffs = append(commit.FileDiffs, FileDiff{
			Path:         parts[2],
			LinesAdded:   added,
			LinesRemoved: removed,
		})
	case 2:
		added, removed, err := parseChangeCounts(parts[0], parts[1], token)
		if err != nil {
			return err
		}

		pending.LinesAdded = added
		pending.LinesRemoved = removed
	case 1:
		if pending.Path == "" {
			// Old path of a rename; wait for the new one.
			pending.Path = parts[0]
			break
		}

		pending.Path = parts[0]
		commit.FileDiffs = append(commit.FileDiffs, *pending)
		*pending = FileDiff{}
	default:
		return fmt.Errorf("malformed numstat entry %q", token)
	}

	return nil
}

// ParseCommits turns the token stream from git log into an iterator of
// commits. The returned finish() function reports any parse error once
// iteration is over.
func ParseCommits(lines iter.Seq[string]) (iter.Seq[Commit], func() error) {
	var iterErr error

	seq := func(yield func(Commit) bool) {
		var commit Commit
		var pending FileDiff
		field := 0

		flush := func() bool {
			if allowCommit(commit) {
				if !yield(commit) {
					return false
				}
			}

			commit = Commit{}
			pending = FileDiff{}
			field = 0
			return true
		}

		for token := range lines {
			// A commit ends at the empty separator token, or at the next
			// hash when numstat output swallowed the separator.
			if field >= numCommitFields && (token == "" || isRev(token)) {
				if !flush() {
					return
				}

				if token == "" {
					continue
				}
			}

			switch field {
			case fieldHash:
				commit.Hash = token
			case fieldShortHash:
				commit.ShortHash = token
			case fieldParents:
				commit.IsMerge = strings.ContainsRune(token, ' ')
			case fieldAuthorName:
				commit.AuthorName = token
			case fieldAuthorEmail:
				commit.AuthorEmail = token
			case fieldDate:
				commit.Date = parseUnixDate(token, commit.Name())
			case fieldMessage:
				commit.Message = token
			default:
				err := applyNumstat(&commit, &pending, token)
				if err != nil {
					iterErr = fmt.Errorf(
						"error parsing file diffs of commit %s: %w",
						commit.Name(),
						err,
					)
					return
				}
			}

			field += 1
		}

		if field > 0 {
			flush()
		}
	}

	finish := func() error {
		return iterErr
	}

	return seq, finish
}
