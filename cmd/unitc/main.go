package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"

	"github.com/magnusjonsson/unitc/internal/compiler"
	"github.com/magnusjonsson/unitc/internal/config"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
	"github.com/magnusjonsson/unitc/internal/parser"
)

const usage = `unitc - units-of-measure checker for C

Usage:
  unitc check [options] <file.c>...   Check dimensional consistency
  unitc lint [options] <file.c>...    Run lint checks on unit annotations
  unitc dump [options] <file.c>       Print the checked tree with inferred units
  unitc unit <expr>                   Print the canonical form of a unit expression
  unitc repl                          Interactive unit calculator

Options:
  --config <file>   Read configuration from file instead of ./unitc.yaml
  --json            Print diagnostics as JSON (check and lint)
  --verbose         Log progress to stderr

Annotations:
  __attribute__((unit("meters / seconds"))) double speed;

Examples:
  unitc check src/*.c           Check every file
  unitc check --json main.c     Machine-readable diagnostics
  unitc unit "m * s / s"        Prints: m
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "check":
		os.Exit(handleCheck(os.Args[2:]))
	case "lint":
		os.Exit(handleLint(os.Args[2:]))
	case "dump":
		os.Exit(handleDump(os.Args[2:]))
	case "unit":
		os.Exit(handleUnit(os.Args[2:]))
	case "repl":
		os.Exit(handleRepl(os.Args[2:]))
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// options are the flags shared by the file commands
type options struct {
	configPath string
	json       bool
	verbose    bool
	files      []string
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	seen := set.New[string](len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--json":
			opts.json = true
		case "--verbose", "-v":
			opts.verbose = true
		case "--config":
			if i+1 >= len(args) {
				return nil, errors.New("--config requires a file")
			}
			i++
			opts.configPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, errors.Errorf("unknown option: %s", arg)
			}
			if seen.Insert(arg) {
				opts.files = append(opts.files, arg)
			}
		}
	}

	if len(opts.files) == 0 {
		return nil, errors.New("no input file specified")
	}
	return opts, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(opts *options, log *slog.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		log.Info("loaded configuration", "path", cfg.Path)
	} else {
		log.Debug("using default configuration")
	}
	log.Debug("policy",
		"attribute", cfg.Attribute,
		"comparisons", string(cfg.Comparisons),
		"unhandled", string(cfg.Unhandled),
		"max_base_units", cfg.MaxBaseUnits)
	return cfg, nil
}

// setup parses flags, builds the logger, and loads configuration. It
// reports problems itself and returns nil on failure.
func setup(args []string) (*options, *config.Config, *slog.Logger) {
	opts, err := parseOptions(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, nil, nil
	}
	log := newLogger(opts.verbose)
	cfg, err := loadConfig(opts, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, nil, nil
	}
	return opts, cfg, log
}

func handleCheck(args []string) int {
	opts, cfg, log := setup(args)
	if opts == nil {
		return 1
	}

	log.Info("checking", "files", len(opts.files))
	diag, err := compiler.CheckFiles(opts.files, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	log.Info("checked", "errors", diag.ErrorCount(), "warnings", diag.WarningCount())

	if opts.json {
		fmt.Println(diag.FormatJSON(""))
	} else if diag.Count() > 0 {
		fmt.Fprintln(os.Stderr, diag.Format(""))
	}

	if diag.HasErrors() {
		return 1
	}
	if !opts.json {
		fmt.Println("No errors found.")
	}
	return 0
}

func handleLint(args []string) int {
	opts, cfg, log := setup(args)
	if opts == nil {
		return 1
	}

	log.Info("linting", "files", len(opts.files))
	diag, err := compiler.LintFiles(opts.files, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	if opts.json {
		fmt.Println(diag.FormatJSON(""))
		return exitCode(diag)
	}

	if diag.Count() == 0 {
		fmt.Println("No lint warnings.")
		return 0
	}

	fmt.Print(diag.Format(""))
	fmt.Println()
	fmt.Printf("%d warning(s) found.\n", diag.WarningCount())
	return exitCode(diag)
}

func handleDump(args []string) int {
	opts, cfg, log := setup(args)
	if opts == nil {
		return 1
	}
	if len(opts.files) != 1 {
		fmt.Fprintln(os.Stderr, "Error: dump takes exactly one file")
		return 1
	}

	path := opts.files[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}

	log.Info("dumping", "file", path)
	out, diag, err := compiler.Dump(source, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Print(out)
	if diag.Count() > 0 {
		fmt.Fprintln(os.Stderr, diag.Format(path))
	}
	return exitCode(diag)
}

func handleUnit(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no unit expression specified")
		return 1
	}

	text := strings.Join(args, " ")
	u, err := parser.Parse(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Println(u)
	return 0
}

func exitCode(diag *diagnostic.Diagnostics) int {
	if diag.HasErrors() {
		return 1
	}
	return 0
}
