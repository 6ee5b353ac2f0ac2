// Package otelsink is a [ninelives.Sink] that records each telemetry
// event as an OpenTelemetry metric, grounded on the retrieval pack's
// observability-factory idiom (jonwraymond-toolops's observe package:
// a Config-driven meter provider wired to a concrete exporter). Here
// the provider is fixed to the Prometheus exporter already in the
// module's dependency set, since the core has no equivalent of the
// pack's multi-exporter Config surface.
package otelsink

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/flyingrobots/ninelives"
)

// Sink records telemetry events as OpenTelemetry counters and
// histograms, tagged with category/variant/source attributes.
type Sink struct {
	provider *sdkmetric.MeterProvider
	registry *promclient.Registry

	events  metric.Int64Counter
	delay   metric.Float64Histogram
	elapsed metric.Float64Histogram
}

// New wraps an existing [metric.Meter] (e.g. from an application's own
// MeterProvider) as a Sink.
func New(meter metric.Meter) (*Sink, error) {
	events, err := meter.Int64Counter(
		"ninelives.events",
		metric.WithDescription("count of resilience-primitive telemetry events"),
	)
	if err != nil {
		return nil, fmt.Errorf("otelsink: build events counter: %w", err)
	}

	delay, err := meter.Float64Histogram(
		"ninelives.retry.delay_seconds",
		metric.WithDescription("backoff delay before a retry attempt"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("otelsink: build delay histogram: %w", err)
	}

	elapsed, err := meter.Float64Histogram(
		"ninelives.timeout.elapsed_seconds",
		metric.WithDescription("elapsed time of a call that exceeded its timeout budget"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("otelsink: build elapsed histogram: %w", err)
	}

	return &Sink{events: events, delay: delay, elapsed: elapsed}, nil
}

// NewPrometheus builds a self-contained Sink backed by a Prometheus
// exporter registered with its own registry (not the global default,
// so multiple Sinks never collide); Close releases its resources. Use
// this when the host application has no OTel MeterProvider of its own.
func NewPrometheus() (*Sink, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("otelsink: build prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	sink, err := New(provider.Meter("github.com/flyingrobots/ninelives"))
	if err != nil {
		return nil, err
	}

	sink.provider = provider
	sink.registry = registry

	return sink, nil
}

// Handler returns an http.Handler serving this Sink's metrics in the
// Prometheus exposition format, when the Sink owns its registry (i.e.
// it was built with NewPrometheus). It returns nil for a Sink built
// with New.
func (s *Sink) Handler() http.Handler {
	if s.registry == nil {
		return nil
	}

	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Close shuts down the Sink's own MeterProvider, when it owns one
// (i.e. it was built with NewPrometheus). It is a no-op for a Sink
// built with New.
func (s *Sink) Close(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}

	return s.provider.Shutdown(ctx)
}

// Emit records event as a metric. It never returns an error or blocks
// on I/O; measurement recording is in-memory until the next export.
func (s *Sink) Emit(event ninelives.TelemetryEvent) {
	ctx := context.Background()

	attrs := metric.WithAttributes(
		attribute.String("category", categoryName(event.Category)),
		attribute.String("variant", variantName(event.Variant)),
		attribute.String("source", event.Source),
	)

	s.events.Add(ctx, 1, attrs)

	switch event.Variant {
	case ninelives.RetryAttempt:
		s.delay.Record(ctx, event.Delay.Seconds(), attrs)
	case ninelives.TimeoutElapsed:
		s.elapsed.Record(ctx, event.Elapsed.Seconds(), attrs)
	}
}

func categoryName(c ninelives.EventCategory) string {
	switch c {
	case ninelives.CategoryRetry:
		return "retry"
	case ninelives.CategoryCircuitBreaker:
		return "circuit_breaker"
	case ninelives.CategoryBulkhead:
		return "bulkhead"
	case ninelives.CategoryTimeout:
		return "timeout"
	case ninelives.CategoryRequest:
		return "request"
	default:
		return "unknown"
	}
}

func variantName(v ninelives.EventVariant) string {
	switch v {
	case ninelives.RetryAttempt:
		return "retry_attempt"
	case ninelives.RetryExhausted:
		return "retry_exhausted"
	case ninelives.BreakerOpened:
		return "breaker_opened"
	case ninelives.BreakerClosed:
		return "breaker_closed"
	case ninelives.BreakerHalfOpenProbe:
		return "breaker_half_open_probe"
	case ninelives.BreakerProbeSuccess:
		return "breaker_probe_success"
	case ninelives.BreakerProbeFailure:
		return "breaker_probe_failure"
	case ninelives.BulkheadAcquired:
		return "bulkhead_acquired"
	case ninelives.BulkheadRejected:
		return "bulkhead_rejected"
	case ninelives.BulkheadReleased:
		return "bulkhead_released"
	case ninelives.TimeoutElapsed:
		return "timeout_elapsed"
	case ninelives.RequestSuccess:
		return "request_success"
	case ninelives.RequestFailure:
		return "request_failure"
	default:
		return "unknown"
	}
}
