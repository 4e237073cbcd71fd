package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var longHelp = strings.TrimSpace(`
Remove blank and duplicate lines from plain text.

Every line is trimmed of surrounding whitespace, blank lines are dropped and
only the first occurrence of each remaining line is kept, in input order.
Input larger than the size ceiling is rejected as a whole.
`)

var exampleUsage = strings.TrimSpace(`
  linededup clean emails.txt
  cat emails.txt | linededup clean -o cleaned.txt
  linededup clean --format json --max-bytes 1048576 emails.txt
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// newRootCmd builds the command tree. environ replaces the process
// environment when non-nil. It is a constructor rather than a package
// variable so tests get fresh flag state.
func newRootCmd(environ map[string]string) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "linededup",
		Short:         "Remove blank and duplicate lines from plain text",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level (debug, info, warn, error)")

	opts := newCleanOptions()
	opts.environ = environ
	root.AddCommand(newCleanCmd(opts, func(cmd *cobra.Command) *slog.Logger {
		return newLogger(cmd.ErrOrStderr(), logLevel)
	}))

	return root
}

// newLogger writes text logs to w so stdout stays reserved for output.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
