package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	phuslog "github.com/phuslu/log"

	"github.com/packsmith/packsmith/config"
	"github.com/packsmith/packsmith/resolve"
)

// ModeEnv selects the invocation mode when no subcommand is given, for
// launcher scripts that export an environment instead of passing args.
const ModeEnv = "PACKSMITH_MODE"

var ErrInvalidFlag = errors.New("invalid flag")

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, output io.Writer) error {
	fs := flag.NewFlagSet("packsmith", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "packsmith.toml", "Path to the project file")
	sourceDir := fs.String("dir", "", "Override the source directory")
	outDir := fs.String("out", "", "Override the output directory")
	verbose := fs.Bool("v", false, "Enable debug logging")
	jsonLog := fs.Bool("logjson", false, "Log JSON instead of text")

	fs.Usage = func() {
		fmt.Fprintf(output, `Usage: packsmith [options] <command>

Commands:
  start    serve the app with in-memory rebuilds and live reload (default)
  build    production build into the output directory
  stats    production build plus a bundle composition report
  deploy   production build plus publishing to the hosting branch

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}

	logger := newLogger(*verbose, *jsonLog)

	signal := os.Getenv(ModeEnv)
	if fs.NArg() > 0 {
		signal = fs.Arg(0)
	}
	mode, ok := resolve.ParseMode(signal)
	if !ok {
		// Forward compatible: unknown contexts behave like the default.
		logger.Warn("unrecognized mode, falling back to start", "mode", signal)
	}

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		return err
	}
	if *sourceDir != "" {
		cfg.Project.SourceDir = *sourceDir
	}
	if *outDir != "" {
		cfg.Project.OutDir = *outDir
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	resolved := resolve.Resolve(mode, cfg.Base())
	logger.Debug("resolved configuration",
		"mode", mode,
		"entries", len(resolved.Entries),
		"plugins", len(resolved.Plugins),
	)

	if mode == resolve.ModeStart {
		return runStart(cfg, resolved, logger)
	}
	return runBuild(cfg, resolved, logger)
}

// defaultLoggerOptions keeps dev output compact; the timestamp adds
// nothing on an interactive terminal.
var defaultLoggerOptions = &slog.HandlerOptions{
	Level: slog.LevelInfo,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	},
}

func newLogger(verbose, jsonLog bool) *slog.Logger {
	opts := *defaultLoggerOptions
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonLog {
		return slog.New(phuslog.SlogNewJSONHandler(os.Stderr, &opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &opts))
}
