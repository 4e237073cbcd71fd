// Package observability provides OpenTelemetry-based metrics instrumentation
// with a Prometheus exporter for the line deduplication service.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Module holds the OTel MeterProvider and the instruments built from it.
type Module struct {
	provider *sdkmetric.MeterProvider
	meter    otelmetric.Meter
	metrics  *Metrics
}

// New configures a Prometheus exporter as the metric reader, installs the
// MeterProvider globally and creates every instrument in Metrics. The
// serviceName is used as the meter scope name.
func New(serviceName string) (*Module, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	metrics, err := NewMetrics(meter)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metric instruments: %w", err)
	}

	return &Module{
		provider: provider,
		meter:    meter,
		metrics:  metrics,
	}, nil
}

// Shutdown flushes and stops the MeterProvider.
func (m *Module) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// MetricsHandler serves Prometheus metrics. Mount at "/metrics".
func (m *Module) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Meter returns the OTel Meter for creating additional instruments.
func (m *Module) Meter() otelmetric.Meter {
	return m.meter
}

// Metrics returns the shared instruments.
func (m *Module) Metrics() *Metrics {
	return m.metrics
}
