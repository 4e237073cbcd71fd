// Package service runs the ingest-then-deduplicate pipeline with metrics,
// logging and the repeat-upload tracker's rotation lifecycle.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/SebastienMelki/linededup/internal/dedup/internal/domain"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// Pipeline ingests a chunk source under a fixed size limit, deduplicates the
// result, and flags outputs that were produced recently.
type Pipeline struct {
	limit   domain.SizeLimit
	recent  *domain.FingerprintSet
	metrics *observability.Metrics
	logger  *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewPipeline creates a pipeline. The metrics parameter is optional (can be
// nil); logger defaults to slog.Default().
func NewPipeline(
	limit domain.SizeLimit,
	window time.Duration,
	capacity uint,
	fpRate float64,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		limit:   limit,
		recent:  domain.NewFingerprintSet(window, capacity, fpRate),
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Limit returns the ingestion ceiling.
func (p *Pipeline) Limit() domain.SizeLimit {
	return p.limit
}

// Run ingests src and deduplicates it. Rejections return no result.
func (p *Pipeline) Run(ctx context.Context, src domain.ChunkSource) (*domain.Result, error) {
	start := time.Now()

	buf, err := domain.Ingest(ctx, src, p.limit)
	if err != nil {
		state := domain.StateOf(err)
		p.recordRun(ctx, state, start)
		p.logger.Debug("ingestion rejected",
			"state", state,
			"limit_bytes", int64(p.limit),
			"error", err,
		)
		return nil, err
	}

	outcome, stats := domain.DeduplicateWithStats(buf)
	result := &domain.Result{
		Outcome:       outcome,
		BytesIngested: buf.Len(),
	}

	if outcome.Count > 0 {
		fp := xxhash.Sum64String(outcome.Text())
		result.Fingerprint = fmt.Sprintf("%016x", fp)
		result.Repeat = p.recent.SeenBefore(fp)
	}

	p.recordRun(ctx, domain.StateAccepted, start)
	if p.metrics != nil {
		p.metrics.DedupBytesIngested.Record(ctx, int64(result.BytesIngested))
		p.metrics.DedupLinesEmitted.Record(ctx, int64(outcome.Count))
		p.metrics.DedupLinesDropped.Add(ctx, int64(stats.Blank+stats.Duplicates))
		if result.Repeat {
			p.metrics.DedupRepeatUploads.Add(ctx, 1)
		}
	}

	p.logger.Debug("payload deduplicated",
		"bytes", result.BytesIngested,
		"scanned", stats.Scanned,
		"unique", outcome.Count,
		"duplicates", stats.Duplicates,
		"blank", stats.Blank,
		"repeat", result.Repeat,
	)

	return result, nil
}

func (p *Pipeline) recordRun(ctx context.Context, state domain.State, start time.Time) {
	if p.metrics == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("state", string(state)))
	p.metrics.DedupRuns.Add(ctx, 1, attrs)
	p.metrics.DedupDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

// Start launches the goroutine that rotates the repeat tracker every
// window/2. It stops when ctx is cancelled or Stop is called. Calling Start
// more than once has no effect.
func (p *Pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started = true
		rotateInterval := p.recent.Window() / 2
		p.logger.Info("dedup pipeline started",
			"limit_bytes", int64(p.limit),
			"repeat_window", p.recent.Window(),
			"rotate_interval", rotateInterval,
		)

		go func() {
			defer close(p.doneCh)
			ticker := time.NewTicker(rotateInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					p.recent.Rotate()
					p.logger.Debug("repeat tracker rotated")
				case <-ctx.Done():
					p.logger.Info("dedup pipeline stopping (context cancelled)")
					return
				case <-p.stopCh:
					p.logger.Info("dedup pipeline stopping (stop requested)")
					return
				}
			}
		}()
	})
}

// Stop signals the rotation goroutine and waits for it. Safe to call without
// Start and more than once.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.startOnce.Do(func() {})
	if p.started {
		<-p.doneCh
	}
}
