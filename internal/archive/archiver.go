package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SebastienMelki/linededup/internal/observability"
)

// ObjectWriter stores archived text under generated keys. Implemented by
// *S3Client.
type ObjectWriter interface {
	Upload(ctx context.Context, key string, text string) error
	GenerateKey(runID string, t time.Time) string
}

var _ ObjectWriter = (*S3Client)(nil)

// Archiver writes the cleaned text of accepted runs to object storage.
type Archiver struct {
	store   ObjectWriter
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewArchiver creates an archiver over store. metrics may be nil.
func NewArchiver(store ObjectWriter, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		store:   store,
		timeout: timeout,
		metrics: metrics,
		logger:  logger.With("component", "archiver"),
		now:     time.Now,
	}
}

// Archive stores text for runID and returns the object key. Empty output is
// not archived.
func (a *Archiver) Archive(ctx context.Context, runID, text string) (string, error) {
	if runID == "" {
		return "", ErrMissingRunID
	}
	if text == "" {
		return "", ErrEmptyContent
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	key := a.store.GenerateKey(runID, a.now())
	if err := a.store.Upload(ctx, key, text); err != nil {
		if a.metrics != nil {
			a.metrics.S3WriteErrors.Add(ctx, 1)
		}
		return "", fmt.Errorf("archive run %s: %w", runID, err)
	}

	if a.metrics != nil {
		a.metrics.S3FilesWritten.Add(ctx, 1)
		a.metrics.S3FileSize.Record(ctx, int64(len(text)))
	}

	a.logger.Debug("cleaned output archived", "run_id", runID, "key", key)
	return key, nil
}
