package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/SebastienMelki/linededup/internal/dedup"
)

// outputFormat selects how a cleaned result is printed.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
)

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(v string) error {
	switch outputFormat(v) {
	case formatText, formatJSON:
		*f = outputFormat(v)
		return nil
	default:
		return fmt.Errorf("must be %q or %q", formatText, formatJSON)
	}
}

func (f *outputFormat) Type() string { return "format" }

// cleanOptions carries the clean command's flag values.
type cleanOptions struct {
	maxBytes  int64
	chunkSize int
	output    string
	format    outputFormat
	countOnly bool

	// environ overrides the process environment when non-nil.
	environ map[string]string
}

func newCleanOptions() *cleanOptions {
	defaults := dedup.DefaultConfig()
	return &cleanOptions{
		maxBytes:  defaults.MaxUploadBytes,
		chunkSize: defaults.ChunkSize,
		format:    formatText,
	}
}

func newCleanCmd(opts *cleanOptions, loggerFor func(*cobra.Command) *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Deduplicate the lines of a file or stdin",
		Long: `Read a file (or stdin when no file or "-" is given), drop blank and repeated
lines, and write the cleaned text to stdout or --output.

DEDUP_MAX_UPLOAD_BYTES and DEDUP_CHUNK_SIZE are honored; flags take precedence.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return runClean(cmd.Context(), cmd, cfg, opts, args, loggerFor(cmd))
		},
	}

	cmd.Flags().Int64Var(&opts.maxBytes, "max-bytes", opts.maxBytes, "reject input larger than this many bytes")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", opts.chunkSize, "read size in bytes")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write cleaned text to this file instead of stdout")
	cmd.Flags().VarP(&opts.format, "format", "f", "output format (text, json)")
	cmd.Flags().BoolVarP(&opts.countOnly, "count", "c", false, "print only the number of unique lines")

	return cmd
}

// resolveConfig layers defaults, then DEDUP_* environment variables, then
// flags the user set explicitly.
func resolveConfig(flags *pflag.FlagSet, opts *cleanOptions) (dedup.Config, error) {
	cfg := dedup.DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: opts.environ}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "max-bytes":
			cfg.MaxUploadBytes = opts.maxBytes
		case "chunk-size":
			cfg.ChunkSize = opts.chunkSize
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runClean(ctx context.Context, cmd *cobra.Command, cfg dedup.Config, opts *cleanOptions, args []string, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	in := cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in, name = f, args[0]
	}

	m, err := dedup.New(cfg, nil, logger)
	if err != nil {
		return err
	}

	res, err := m.ProcessReader(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, dedup.ErrTooLarge):
			return fmt.Errorf("%s: input exceeds %d bytes", name, cfg.MaxUploadBytes)
		case errors.Is(err, dedup.ErrReadFailed):
			return fmt.Errorf("%s: %w", name, err)
		default:
			return err
		}
	}

	logger.Info("cleaned input",
		"input", name,
		"bytes_ingested", res.BytesIngested,
		"lines_emitted", res.Count,
	)

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(res.Text()), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if !opts.countOnly && opts.format == formatText {
			return nil
		}
	}

	return writeResult(cmd.OutOrStdout(), res, opts)
}

func writeResult(w io.Writer, res *dedup.Result, opts *cleanOptions) error {
	switch {
	case opts.countOnly:
		_, err := fmt.Fprintln(w, res.Count)
		return err
	case opts.format == formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		if res.Count == 0 {
			return nil
		}
		_, err := fmt.Fprintln(w, res.Text())
		return err
	}
}
