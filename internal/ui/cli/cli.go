package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath      string
	dbPath          string
	root            string
	colors          *bool
	metricsTextfile string
	watch           bool
	ui              bool
	verbose         bool
	version         bool
}

// errUsage marks command line errors that have already been reported.
var errUsage = errors.New("usage error")

func parseOptions(args []string, stdout, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("brokenpkg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stdout, fs.Name()) }

	setColors := func(enabled bool) func(string) error {
		return func(string) error {
			opts.colors = &enabled
			return nil
		}
	}

	fs.StringVar(&opts.dbPath, "dbpath", "", "The database location to use (see man 8 pacman)")
	fs.StringVar(&opts.dbPath, "b", "", "Shorthand for --dbpath")
	fs.StringVar(&opts.root, "root", "", "The installation root to use (see man 8 pacman)")
	fs.StringVar(&opts.root, "r", "", "Shorthand for --root")
	fs.BoolFunc("colors", "Enable colored output (default)", setColors(true))
	fs.BoolFunc("no-colors", "Disable colored output", setColors(false))
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each scan")
	fs.BoolVar(&opts.watch, "watch", false, "Rescan whenever the package database changes")
	fs.BoolVar(&opts.ui, "ui", false, "Browse results in a terminal UI")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		fmt.Fprintf(stderr, "Unknown option '%s'\n", rest[0])
		fs.Usage()
		return cliOptions{}, errUsage
	}
	return opts, nil
}

func printUsage(w io.Writer, name string) {
	lines := []string{
		fmt.Sprintf("Usage: %s [-h|--help] [-b|--dbpath DBPATH] [-r|--root ROOT] [--colors] [--no-colors]", name),
		"       [--config FILE] [--watch] [--ui] [--metrics-textfile FILE] [--verbose] [--version]",
		"Options:",
		"\t -h,--help                : This help",
		"\t -b,--dbpath DBPATH       : The database location to use (see man 8 pacman)",
		"\t -r,--root ROOT           : The installation root to use (see man 8 pacman)",
		"\t --colors                 : Enable colored output (default)",
		"\t --no-colors              : Disable colored output",
		"\t --config FILE            : Configuration file (default $XDG_CONFIG_HOME/brokenpkg/brokenpkg.toml)",
		"\t --watch                  : Rescan whenever the package database changes",
		"\t --ui                     : Browse results in a terminal UI",
		"\t --metrics-textfile FILE  : Write Prometheus metrics to FILE after each scan",
		"\t --verbose                : Enable debug logging",
		"\t --version                : Print version and exit",
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
