package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/SebastienMelki/linededup/internal/events"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// StreamPublisher is the slice of jetstream.JetStream the publisher needs.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

var _ StreamPublisher = (jetstream.JetStream)(nil)

// Publisher publishes run summaries to NATS JetStream as JSON.
type Publisher struct {
	js      StreamPublisher
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a run summary publisher. metrics may be nil.
func NewPublisher(js StreamPublisher, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		js:      js,
		timeout: timeout,
		metrics: metrics,
		logger:  logger.With("component", "publisher"),
	}
}

// PublishSummary publishes s on its derived subject. The summary ID is used
// as the JetStream message ID so retried publishes are stored once.
func (p *Publisher) PublishSummary(ctx context.Context, s *events.RunSummary) error {
	if s == nil {
		return ErrNilSummary
	}

	subject := s.Subject()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	attrs := otelmetric.WithAttributes(attribute.String("state", string(s.State)))

	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(s.ID))
	if err != nil {
		if p.metrics != nil {
			p.metrics.NATSPublishFailures.Add(ctx, 1, attrs)
		}
		return fmt.Errorf("failed to publish run summary: %w", err)
	}

	if p.metrics != nil {
		p.metrics.NATSSummariesPublished.Add(ctx, 1, attrs)
	}

	p.logger.Debug("run summary published",
		"run_id", s.ID,
		"subject", subject,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)

	return nil
}
