// Package jsonlog is a [ninelives.Sink] that renders each telemetry
// event as one JSON line, grounded on the retrieval pack's
// structured-JSON-logger idiom (jonwraymond-toolops's observe.Logger:
// a mutex-guarded writer, a map[string]any entry built per call,
// marshaled and written with a trailing newline).
package jsonlog

import (
	"io"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/flyingrobots/ninelives"
)

// Sink writes one JSON object per [ninelives.TelemetryEvent] to its writer,
// guarded by a mutex so concurrent primitives can share one instance
// safely.
type Sink struct {
	mu     sync.Mutex
	writer io.Writer
}

// New returns a Sink writing to w.
func New(w io.Writer) *Sink {
	return &Sink{writer: w}
}

// NewStderr returns a Sink writing to os.Stderr, the pack's default
// destination for a structured logger with no explicit writer.
func NewStderr() *Sink {
	return New(os.Stderr)
}

// Emit renders event as a single-line JSON object and writes it,
// silently dropping the event if it cannot be marshaled — a telemetry
// sink must never propagate a failure back to the caller it observes.
func (s *Sink) Emit(event ninelives.TelemetryEvent) {
	entry := map[string]any{
		"timestamp": event.At.UTC().Format(time.RFC3339Nano),
		"category":  categoryName(event.Category),
		"variant":   variantName(event.Variant),
		"source":    event.Source,
	}

	switch event.Variant {
	case ninelives.RetryAttempt:
		entry["attempt"] = event.Attempt
		entry["delay_ms"] = event.Delay.Milliseconds()
	case ninelives.RetryExhausted:
		entry["failure_count"] = event.FailureCount
	case ninelives.BulkheadRejected:
		entry["reason"] = bulkheadReasonName(event.Reason)
	case ninelives.TimeoutElapsed:
		entry["elapsed_ms"] = event.Elapsed.Milliseconds()
		entry["configured_ms"] = event.Configured.Milliseconds()
	case ninelives.RequestFailure:
		entry["error_kind"] = failureKindName(event.ErrorKind)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Write(data)
	s.writer.Write([]byte("\n"))
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

func bulkheadReasonName(r ninelives.BulkheadRejectReason) string {
	return r.String()
}

func failureKindName(k ninelives.FailureKind) string {
	return k.String()
}
