package observability

import (
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments used across the service.
// Instruments are created once at startup and shared with middleware,
// handlers, and service components.
type Metrics struct {
	// HTTP metrics
	HTTPRequestDuration otelmetric.Float64Histogram
	HTTPRequestTotal    otelmetric.Int64Counter
	HTTPRequestErrors   otelmetric.Int64Counter

	// Deduplication pipeline metrics
	DedupRuns          otelmetric.Int64Counter
	DedupDuration      otelmetric.Float64Histogram
	DedupBytesIngested otelmetric.Int64Histogram
	DedupLinesEmitted  otelmetric.Int64Histogram
	DedupLinesDropped  otelmetric.Int64Counter
	DedupRepeatUploads otelmetric.Int64Counter

	// Upload boundary metrics
	UploadsRejected otelmetric.Int64Counter

	// NATS metrics
	NATSSummariesPublished otelmetric.Int64Counter
	NATSPublishFailures    otelmetric.Int64Counter

	// S3 archive metrics
	S3FilesWritten otelmetric.Int64Counter
	S3FileSize     otelmetric.Int64Histogram
	S3WriteErrors  otelmetric.Int64Counter
}

// NewMetrics creates all metric instruments from the given Meter.
// Each instrument is created with a descriptive name, unit, and description
// following OpenTelemetry semantic conventions.
func NewMetrics(meter otelmetric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.request.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestTotal, err = meter.Int64Counter(
		"http.request.total",
		otelmetric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPRequestErrors, err = meter.Int64Counter(
		"http.request.errors",
		otelmetric.WithDescription("HTTP request errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, err
	}

	// Deduplication pipeline metrics
	m.DedupRuns, err = meter.Int64Counter(
		"dedup.runs",
		otelmetric.WithDescription("Deduplication runs by terminal state"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupDuration, err = meter.Float64Histogram(
		"dedup.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("Ingest plus deduplicate duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupBytesIngested, err = meter.Int64Histogram(
		"dedup.bytes.ingested",
		otelmetric.WithUnit("By"),
		otelmetric.WithDescription("Accepted payload sizes in bytes"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupLinesEmitted, err = meter.Int64Histogram(
		"dedup.lines.emitted",
		otelmetric.WithDescription("Unique lines returned per run"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupLinesDropped, err = meter.Int64Counter(
		"dedup.lines.dropped",
		otelmetric.WithDescription("Blank and duplicate lines dropped"),
	)
	if err != nil {
		return nil, err
	}

	m.DedupRepeatUploads, err = meter.Int64Counter(
		"dedup.repeat.uploads",
		otelmetric.WithDescription("Runs whose cleaned output was produced recently"),
	)
	if err != nil {
		return nil, err
	}

	// Upload boundary metrics
	m.UploadsRejected, err = meter.Int64Counter(
		"upload.rejected",
		otelmetric.WithDescription("Uploads rejected before or during ingestion, by reason"),
	)
	if err != nil {
		return nil, err
	}

	// NATS metrics
	m.NATSSummariesPublished, err = meter.Int64Counter(
		"nats.summaries.published",
		otelmetric.WithDescription("Run summaries published to NATS"),
	)
	if err != nil {
		return nil, err
	}

	m.NATSPublishFailures, err = meter.Int64Counter(
		"nats.publish.failures",
		otelmetric.WithDescription("Run summaries that failed to publish"),
	)
	if err != nil {
		return nil, err
	}

	// S3 archive metrics
	m.S3FilesWritten, err = meter.Int64Counter(
		"s3.files.written",
		otelmetric.WithDescription("S3 files written"),
	)
	if err != nil {
		return nil, err
	}

	m.S3FileSize, err = meter.Int64Histogram(
		"s3.file.size",
		otelmetric.WithUnit("By"),
		otelmetric.WithDescription("S3 file sizes in bytes"),
	)
	if err != nil {
		return nil, err
	}

	m.S3WriteErrors, err = meter.Int64Counter(
		"s3.write.errors",
		otelmetric.WithDescription("S3 writes that failed"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
