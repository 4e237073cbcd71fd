package gateway

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/events"
)

// SummaryPublisher publishes run summaries. Implemented by *nats.Publisher.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, s *events.RunSummary) error
}

// ContentArchiver stores cleaned output. Implemented by *archive.Archiver.
type ContentArchiver interface {
	Archive(ctx context.Context, runID, text string) (string, error)
}

// CleanRequest is one payload to deduplicate.
type CleanRequest struct {
	Source   string
	Filename string
	Body     io.Reader
}

// CleanResponse is an accepted run.
type CleanResponse struct {
	RunID  string
	Result *dedup.Result
}

// DedupService runs payloads through the dedup module and reports every
// run to the optional sinks. Sink failures are logged and never change the
// response.
type DedupService struct {
	processor dedup.Processor
	publisher SummaryPublisher
	archiver  ContentArchiver
	logger    *slog.Logger
}

// NewDedupService creates a service. publisher and archiver may be nil.
func NewDedupService(processor dedup.Processor, publisher SummaryPublisher, archiver ContentArchiver, logger *slog.Logger) *DedupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupService{
		processor: processor,
		publisher: publisher,
		archiver:  archiver,
		logger:    logger.With("component", "dedup-service"),
	}
}

// Clean deduplicates req.Body. Rejections return an error that classify
// understands and no response.
func (s *DedupService) Clean(ctx context.Context, req CleanRequest) (*CleanResponse, error) {
	start := time.Now()

	res, err := s.processor.ProcessReader(ctx, req.Body)

	summary := events.NewRunSummary(req.Source, GetRequestID(ctx), res, err, time.Since(start))
	summary.Filename = req.Filename

	if err == nil && s.archiver != nil && res.Count > 0 {
		if _, archiveErr := s.archiver.Archive(ctx, summary.ID, res.Text()); archiveErr != nil {
			s.logger.Warn("failed to archive cleaned output",
				"run_id", summary.ID,
				"error", archiveErr,
			)
		}
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishSummary(ctx, summary); pubErr != nil {
			s.logger.Warn("failed to publish run summary",
				"run_id", summary.ID,
				"state", summary.State,
				"error", pubErr,
			)
		}
	}

	if err != nil {
		s.logger.Info("payload rejected",
			"run_id", summary.ID,
			"source", req.Source,
			"state", summary.State,
			"request_id", summary.RequestID,
		)
		return nil, err
	}

	s.logger.Debug("payload cleaned",
		"run_id", summary.ID,
		"source", req.Source,
		"lines", res.Count,
		"bytes", res.BytesIngested,
		"repeat", res.Repeat,
	)

	return &CleanResponse{RunID: summary.ID, Result: res}, nil
}
