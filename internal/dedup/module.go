package dedup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SebastienMelki/linededup/internal/dedup/internal/domain"
	"github.com/SebastienMelki/linededup/internal/dedup/internal/service"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// Re-exported domain types so callers outside this package never reach into
// internal/.
type (
	Buffer      = domain.Buffer
	Outcome     = domain.Outcome
	Result      = domain.Result
	SizeLimit   = domain.SizeLimit
	State       = domain.State
	Stats       = domain.Stats
	ChunkSource = domain.ChunkSource
)

// Terminal states of a run.
const (
	StateAccepted      = domain.StateAccepted
	StateTooLarge      = domain.StateTooLarge
	StateReadFailure   = domain.StateReadFailure
	StateInvalidConfig = domain.StateInvalidConfig
)

// DefaultSizeLimit is the default ingestion ceiling (2 MiB).
const DefaultSizeLimit = domain.DefaultSizeLimit

// Ingest drains src into a Buffer bounded by limit.
func Ingest(ctx context.Context, src ChunkSource, limit SizeLimit) (*Buffer, error) {
	return domain.Ingest(ctx, src, limit)
}

// Deduplicate returns the unique trimmed non-blank lines of buf.
func Deduplicate(buf *Buffer) Outcome {
	return domain.Deduplicate(buf)
}

// DeduplicateWithStats is Deduplicate plus counts of dropped lines.
func DeduplicateWithStats(buf *Buffer) (Outcome, Stats) {
	return domain.DeduplicateWithStats(buf)
}

// StateOf maps an ingestion error to its terminal state.
func StateOf(err error) State {
	return domain.StateOf(err)
}

// Config holds the dedup module configuration.
//
// Environment variable overrides:
//   - DEDUP_MAX_UPLOAD_BYTES: ingestion ceiling in bytes (default: 2097152)
//   - DEDUP_CHUNK_SIZE:       read size for stream sources (default: 32768)
//   - DEDUP_REPEAT_WINDOW:    repeat-upload sliding window (default: 10m)
//   - DEDUP_REPEAT_CAPACITY:  expected distinct outputs per window (default: 100000)
//   - DEDUP_REPEAT_FP_RATE:   repeat tracker false positive rate (default: 0.0001)
type Config struct {
	MaxUploadBytes int64         `env:"DEDUP_MAX_UPLOAD_BYTES" envDefault:"2097152"`
	ChunkSize      int           `env:"DEDUP_CHUNK_SIZE"       envDefault:"32768"`
	RepeatWindow   time.Duration `env:"DEDUP_REPEAT_WINDOW"    envDefault:"10m"`
	RepeatCapacity uint          `env:"DEDUP_REPEAT_CAPACITY"  envDefault:"100000"`
	RepeatFPRate   float64       `env:"DEDUP_REPEAT_FP_RATE"   envDefault:"0.0001"`
}

// DefaultConfig returns the default configuration: a 2 MiB ceiling read in
// 32 KiB chunks and a 10 minute repeat window.
func DefaultConfig() Config {
	return Config{
		MaxUploadBytes: int64(DefaultSizeLimit),
		ChunkSize:      32 * 1024,
		RepeatWindow:   10 * time.Minute,
		RepeatCapacity: 100_000,
		RepeatFPRate:   0.0001,
	}
}

// minRepeatWindow keeps the rotation interval (half the window) positive.
const minRepeatWindow = 2 * time.Nanosecond

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if err := SizeLimit(c.MaxUploadBytes).Validate(); err != nil {
		return fmt.Errorf("DEDUP_MAX_UPLOAD_BYTES: %w", err)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DEDUP_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.RepeatWindow < minRepeatWindow {
		return fmt.Errorf("DEDUP_REPEAT_WINDOW must be at least %s, got %s", minRepeatWindow, c.RepeatWindow)
	}
	if c.RepeatCapacity == 0 {
		return fmt.Errorf("DEDUP_REPEAT_CAPACITY must be positive")
	}
	if c.RepeatFPRate <= 0 || c.RepeatFPRate >= 1 {
		return fmt.Errorf("DEDUP_REPEAT_FP_RATE must be in (0, 1), got %g", c.RepeatFPRate)
	}
	return nil
}

// Module is the dedup module facade. It wraps the pipeline service and
// provides a clean API for integration with the rest of the system.
type Module struct {
	cfg Config
	svc *service.Pipeline
}

// New creates a new dedup Module with the given configuration. The metrics
// parameter is optional (pass nil to disable metric instrumentation).
func New(cfg Config, metrics *observability.Metrics, logger *slog.Logger) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "dedup")

	return &Module{
		cfg: cfg,
		svc: service.NewPipeline(
			SizeLimit(cfg.MaxUploadBytes),
			cfg.RepeatWindow,
			cfg.RepeatCapacity,
			cfg.RepeatFPRate,
			metrics,
			logger,
		),
	}, nil
}

// Limit returns the configured ingestion ceiling.
func (m *Module) Limit() SizeLimit {
	return m.svc.Limit()
}

// ChunkSize returns the read size used by ProcessReader.
func (m *Module) ChunkSize() int {
	return m.cfg.ChunkSize
}

// Start begins the background repeat tracker rotation goroutine.
func (m *Module) Start(ctx context.Context) {
	m.svc.Start(ctx)
}

// Stop signals the rotation goroutine to stop and waits for completion.
func (m *Module) Stop() {
	m.svc.Stop()
}

// Process ingests src under the configured limit and deduplicates it.
func (m *Module) Process(ctx context.Context, src ChunkSource) (*Result, error) {
	return m.svc.Run(ctx, src)
}

// ProcessReader is Process over r read in ChunkSize pieces.
func (m *Module) ProcessReader(ctx context.Context, r io.Reader) (*Result, error) {
	return m.svc.Run(ctx, NewReaderSource(r, m.cfg.ChunkSize))
}
