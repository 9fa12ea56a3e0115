// Package logging sets up [slog] for a CLI host program, with a verbosity option for commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/saylorsolutions/cmdbind/cli"
	"github.com/saylorsolutions/cmdbind/config"
	flag "github.com/spf13/pflag"
)

// VerbosityKey is the [cli.Input] key holding the verbosity count after [AddVerbosity] resolves.
const VerbosityKey = "verbosity"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing text to stderr, and JSON to the configured log file if any.
// Both outputs share the returned [slog.LevelVar], starting at the configured level.
// The returned [io.Closer] should be closed when the program exits.
func New(cfg config.Config, stderr io.Writer) (*slog.Logger, *slog.LevelVar, io.Closer, error) {
	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	text := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if len(cfg.LogFile) == 0 {
		return slog.New(text), level, nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(Fanout(text, jsonHandler)), level, f, nil
}

// AddVerbosity adds -v/--verbose and -q/--quiet as global options of the namespace.
// Each -v lowers the level by one step from the configured level, down to debug, and -q raises it to error.
func AddVerbosity(ns *cli.Namespace, level *slog.LevelVar) {
	base := level.Level()
	ns.AddGlobal(func(flags *flag.FlagSet) {
		flags.CountP("verbose", "v", "Increases log output, may be repeated")
		flags.BoolP("quiet", "q", false, "Only logs errors")
	}, func(in *cli.Input) error {
		count := cli.MustGet(in.Flags.GetCount("verbose"))
		in.Set(VerbosityKey, count)
		if cli.MustGet(in.Flags.GetBool("quiet")) {
			if count > 0 {
				return cli.NewUsageError("--quiet and --verbose can't be used together")
			}
			level.Set(slog.LevelError)
			return nil
		}
		lvl := base - slog.Level(4*count)
		if lvl < slog.LevelDebug {
			lvl = slog.LevelDebug
		}
		level.Set(lvl)
		return nil
	})
}
