package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/idlethread/git-voodoo/internal/flagutils"
	"github.com/idlethread/git-voodoo/internal/maintainer"
	"github.com/idlethread/git-voodoo/internal/pretty"
)

var Commit = "unknown"
var Version = "unknown"

type command struct {
	flagSet     *flag.FlagSet
	run         func(args []string) error
	description string
}

// Main picks the subcommand named by the args and hands off to it. With no
// subcommand named, "stats" runs, so that `git-voodoo jane` just works.
func main() {
	subcommands := map[string]command{
		"stats":  statsCmd(),
		"hist":   histCmd(),
		"export": exportCmd(),
		"cc":     ccCmd(),
		"send":   sendCmd(),
		"tag":    tagCmd(),
		"am":     amCmd(),
		"dump":   dumpCmd(),
		"parse":  parseCmd(),
	}

	// --- Handle top-level flags ---
	mainFlagSet := flag.NewFlagSet("git-voodoo", flag.ExitOnError)

	versionFlag := mainFlagSet.Bool("version", false, "Print version and exit")
	debugFlag := mainFlagSet.Bool("debug", false, "Enables debug logging")

	mainFlagSet.Usage = func() {
		fmt.Println(
			"Usage: git-voodoo [-debug] [subcommand] [subcommand options...]",
		)
		fmt.Println("git-voodoo automates a kernel-style patch workflow")

		fmt.Println()
		fmt.Println("Top-level options:")
		mainFlagSet.PrintDefaults()

		fmt.Println()
		fmt.Println("Subcommands:")

		helpSubcommands := []string{
			"stats",
			"hist",
			"export",
			"cc",
			"send",
			"tag",
			"am",
		}
		for _, name := range helpSubcommands {
			cmd := subcommands[name]

			fmt.Printf("  %s\n", name)
			fmt.Printf("\t%s\n", cmd.description)
		}
	}

	// Find where the top-level flags end, by hand, so that flags meant for
	// the default subcommand aren't eaten when its name is left out.
	subcmdIndex := 1
loop:
	for subcmdIndex < len(os.Args) {
		switch os.Args[subcmdIndex] {
		case "-version", "--version", "-debug", "--debug", "-h", "--help":
			subcmdIndex += 1
		default:
			break loop
		}
	}

	mainFlagSet.Parse(os.Args[1:subcmdIndex])

	if *versionFlag {
		fmt.Printf("%s %s\n", Version, Commit)
		return
	}

	if *debugFlag {
		configureLogging(slog.LevelDebug)
		logger().Debug("debug logging on")
	} else {
		configureLogging(slog.LevelInfo)
	}

	pretty.SetColorEnabled(pretty.AllowDynamic(os.Stdout))

	args := os.Args[subcmdIndex:]

	// --- Handle subcommands ---
	cmd := subcommands["stats"] // Default to "stats"
	if len(args) > 0 {
		first := args[0]
		if subcommand, ok := subcommands[first]; ok {
			cmd = subcommand
			args = args[1:]
		}
	}

	cmd.flagSet.Parse(args)
	subargs := cmd.flagSet.Args()

	if err := cmd.run(subargs); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// --- Subcommand definitions --------------------------------------------------

func statsCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo stats", flag.ExitOnError)

	repoPath := flagSet.String("C", ".", "Path to the repository")
	branch := flagSet.String(
		"branch",
		"",
		"Revision to scan instead of all refs",
	)
	useJSON := flagSet.Bool("json", false, "Output as JSON")
	top := flagSet.Int(
		"top",
		5,
		"Limit for the top-directories listing (set to 0 for no limit)",
	)
	dirDepth := flagSet.Int("dir-depth", 2, "Directory depth to track")

	var verbosity flagutils.Count
	flagSet.Var(&verbosity, "v", strings.TrimSpace(`
More detail: -v adds email history, -v -v directories, -v -v -v everything
	`))

	filterFlags := addFilterFlags(flagSet)

	description := "Tally patch attribution tags by contributor"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo [stats] [options...] [name]
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) > 1 {
				return errors.New("expected at most one name argument")
			}

			var name string
			if len(args) > 0 {
				name = args[0]
			}

			return stats(
				name,
				*repoPath,
				*branch,
				*filterFlags.since,
				*filterFlags.until,
				*useJSON,
				int(verbosity),
				*top,
				*dirDepth,
			)
		},
	}
}

func histCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo hist", flag.ExitOnError)

	repoPath := flagSet.String("C", ".", "Path to the repository")
	branch := flagSet.String(
		"branch",
		"",
		"Revision to scan instead of all refs",
	)

	filterFlags := addFilterFlags(flagSet)

	description := "Print out a timeline showing contributions by year"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo hist [options...] [name]
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) > 1 {
				return errors.New("expected at most one name argument")
			}

			var name string
			if len(args) > 0 {
				name = args[0]
			}

			return hist(
				name,
				*repoPath,
				*branch,
				*filterFlags.since,
				*filterFlags.until,
			)
		},
	}
}

func exportCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo export", flag.ExitOnError)

	outDir := flagSet.String(
		"o",
		"patches",
		"Directory to write the patch files to",
	)
	reroll := flagSet.Int("v", 0, "Reroll count; names the files v<n>-*.patch")
	cover := flagSet.Bool("cover", false, "Generate a cover letter")
	rfc := flagSet.Bool("rfc", false, "Mark the series as RFC")

	description := "Export a revision range as a patch series"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo export [options...] <revision range>
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("expected a single revision range")
			}

			return export(args[0], *outDir, *reroll, *cover, *rfc)
		},
	}
}

func ccCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo cc", flag.ExitOnError)

	treePath := flagSet.String("C", ".", "Path to the kernel tree")
	script := flagSet.String(
		"script",
		maintainer.DefaultScript,
		"Path to the maintainer script, relative to the tree",
	)

	description := "List who should receive a patch series"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo cc [options...] <patch file>...
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("expected at least one patch file")
			}

			return cc(args, *treePath, *script)
		},
	}
}

func sendCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo send", flag.ExitOnError)

	var to flagutils.List
	var ccAddrs flagutils.List
	flagSet.Var(&to, "to", "Send the series to this address. Can be repeated")
	flagSet.Var(&ccAddrs, "cc", "Cc this address. Can be repeated")
	auto := flagSet.Bool("auto", false, "Cc everyone the maintainer script names")
	dry := flagSet.Bool("dry", false, "Pass --dry-run to git send-email")

	description := "Send a patch series with git send-email"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo send [options...] <patch file>...
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("expected at least one patch file")
			}

			return send(args, to.Values(), ccAddrs.Values(), *auto, *dry)
		},
	}
}

func tagCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo tag", flag.ExitOnError)

	var trailers flagutils.SliceFlag
	flagSet.Var(&trailers, "t", strings.TrimSpace(`
Trailer line to append, like "Acked-by: Jane Doe <jane@example.com>". Can be repeated
	`))

	description := "Append review trailers to every commit in a range"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo tag -t <trailer> [-t <trailer>...] <revision range>
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("expected a single revision range")
			}

			return tag(args[0], trailers)
		},
	}
}

func amCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo am", flag.ExitOnError)

	outDir := flagSet.String("o", "", "Directory to write the mbox to")

	description := "Fetch and apply a patch series with b4"

	flagSet.Usage = func() {
		fmt.Println(strings.TrimSpace(`
Usage: git-voodoo am [options...] <message id>
		`))
		fmt.Println(description)
		fmt.Println()
		flagSet.PrintDefaults()
	}

	return command{
		flagSet:     flagSet,
		description: description,
		run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("expected a single message id")
			}

			return am(args[0], *outDir)
		},
	}
}

func dumpCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo dump", flag.ExitOnError)

	short := flagSet.Bool("s", false, "Leave out file change stats")

	return command{
		flagSet: flagSet,
		run: func(args []string) error {
			return dump(args, *short)
		},
	}
}

func parseCmd() command {
	flagSet := flag.NewFlagSet("git-voodoo parse", flag.ExitOnError)

	short := flagSet.Bool("s", false, "Leave out file change stats")

	return command{
		flagSet: flagSet,
		run: func(args []string) error {
			return parse(args, *short)
		},
	}
}

// -----------------------------------------------------------------------------

func configureLogging(level slog.Level) {
	handler := slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{
			Level: level,
		},
	)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

type filterFlags struct {
	since *string
	until *string
}

func addFilterFlags(set *flag.FlagSet) *filterFlags {
	return &filterFlags{
		since: set.String("since", "", strings.TrimSpace(`
Only look at commits after this date; any format git-commit(1) accepts works
		`)),
		until: set.String("until", "", strings.TrimSpace(`
Only look at commits before this date
		`)),
	}
}
