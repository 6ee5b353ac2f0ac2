package ninelives

import "time"

// EventCategory identifies which primitive family produced a
// [TelemetryEvent].
type EventCategory int

const (
	CategoryRetry EventCategory = iota
	CategoryCircuitBreaker
	CategoryBulkhead
	CategoryTimeout
	CategoryRequest
)

// EventVariant identifies the specific event within its category.
type EventVariant int

const (
	RetryAttempt EventVariant = iota
	RetryExhausted

	BreakerOpened
	BreakerClosed
	BreakerHalfOpenProbe
	BreakerProbeSuccess
	BreakerProbeFailure

	BulkheadAcquired
	BulkheadRejected
	BulkheadReleased

	TimeoutElapsed

	RequestSuccess
	RequestFailure
)

// TelemetryEvent is the single tagged-sum event type every primitive
// emits. Only the fields relevant to Category/Variant are meaningful.
type TelemetryEvent struct {
	Category EventCategory
	Variant  EventVariant
	// Source identifies the emitting primitive (its name, or a breaker ID).
	Source string
	// At is a monotonic-derived timestamp taken from the primitive's Clock.
	At time.Time

	Attempt      int
	Delay        time.Duration
	FailureCount int
	Reason       BulkheadRejectReason
	Elapsed      time.Duration
	Configured   time.Duration
	ErrorKind    FailureKind
}

// RetryAttemptEvent reports that attempt is about to be retried after
// waiting delay.
func RetryAttemptEvent(source string, attempt int, delay time.Duration, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryRetry, Variant: RetryAttempt, Source: source, At: at, Attempt: attempt, Delay: delay}
}

// RetryExhaustedEvent reports that every retry attempt failed.
func RetryExhaustedEvent(source string, failureCount int, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryRetry, Variant: RetryExhausted, Source: source, At: at, FailureCount: failureCount}
}

// BreakerOpenedEvent reports a breaker transitioning to Open.
func BreakerOpenedEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryCircuitBreaker, Variant: BreakerOpened, Source: source, At: at}
}

// BreakerClosedEvent reports a breaker transitioning to Closed.
func BreakerClosedEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryCircuitBreaker, Variant: BreakerClosed, Source: source, At: at}
}

// BreakerHalfOpenProbeEvent reports a breaker admitting a half-open probe.
func BreakerHalfOpenProbeEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryCircuitBreaker, Variant: BreakerHalfOpenProbe, Source: source, At: at}
}

// BreakerProbeSuccessEvent reports a half-open probe that succeeded.
func BreakerProbeSuccessEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryCircuitBreaker, Variant: BreakerProbeSuccess, Source: source, At: at}
}

// BreakerProbeFailureEvent reports a half-open probe that failed.
func BreakerProbeFailureEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryCircuitBreaker, Variant: BreakerProbeFailure, Source: source, At: at}
}

// BulkheadAcquiredEvent reports a successful permit acquisition.
func BulkheadAcquiredEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryBulkhead, Variant: BulkheadAcquired, Source: source, At: at}
}

// BulkheadRejectedEvent reports a failed permit acquisition.
func BulkheadRejectedEvent(source string, reason BulkheadRejectReason, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryBulkhead, Variant: BulkheadRejected, Source: source, At: at, Reason: reason}
}

// BulkheadReleasedEvent reports a permit release.
func BulkheadReleasedEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryBulkhead, Variant: BulkheadReleased, Source: source, At: at}
}

// TimeoutElapsedEvent reports a call that exceeded its budget.
func TimeoutElapsedEvent(source string, elapsed, configured time.Duration, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryTimeout, Variant: TimeoutElapsed, Source: source, At: at, Elapsed: elapsed, Configured: configured}
}

// RequestSuccessEvent reports that a composed policy call succeeded.
func RequestSuccessEvent(source string, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryRequest, Variant: RequestSuccess, Source: source, At: at}
}

// RequestFailureEvent reports that a composed policy call failed.
func RequestFailureEvent(source string, kind FailureKind, at time.Time) TelemetryEvent {
	return TelemetryEvent{Category: CategoryRequest, Variant: RequestFailure, Source: source, At: at, ErrorKind: kind}
}

// Sink consumes telemetry events, best-effort. Implementations must not
// block the caller beyond their own cost; a blocking sink (network
// publisher, slow disk writer) should be wrapped in a non-blocking
// adapter (e.g. a buffered channel with a drop policy) before being handed
// to a primitive.
type Sink interface {
	Emit(event TelemetryEvent)
}

// SinkFunc adapts a plain function into a [Sink].
type SinkFunc func(TelemetryEvent)

// Emit calls the underlying function.
func (f SinkFunc) Emit(event TelemetryEvent) { f(event) }

// NopSink discards every event. Primitives also accept a nil Sink, which
// emits nothing in the same way.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(TelemetryEvent) {}

// emit dispatches event to sink, tolerating a nil sink and isolating a
// panicking sink so it cannot fail the caller's request — the core treats
// a panicking emission exactly like a dropped event.
func emit(sink Sink, event TelemetryEvent) {
	if sink == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	sink.Emit(event)
}

// MulticastSink broadcasts every event to each of its members, in order.
// A panicking member does not prevent the rest from receiving the event.
type MulticastSink struct {
	Sinks []Sink
}

// NewMulticastSink returns a [Sink] that broadcasts to every member.
func NewMulticastSink(sinks ...Sink) *MulticastSink {
	return &MulticastSink{Sinks: sinks}
}

// Emit broadcasts event to every member sink.
func (m *MulticastSink) Emit(event TelemetryEvent) {
	for _, s := range m.Sinks {
		emit(s, event)
	}
}

// FallbackSink gives each event to Primary first and then to Secondary; a
// panic in Primary does not stop Secondary from receiving it. Unlike the FALLBACK policy combinator there is no
// notion of "success" for a sink emission (Emit returns nothing), so both
// members are always given the event — Secondary exists to guarantee
// delivery to at least one durable sink when Primary is best-effort (e.g.
// an in-memory ring buffer) and Secondary is a slower durable one.
type FallbackSink struct {
	Primary, Secondary Sink
}

// NewFallbackSink returns a [Sink] that emits to primary and secondary.
func NewFallbackSink(primary, secondary Sink) *FallbackSink {
	return &FallbackSink{Primary: primary, Secondary: secondary}
}

// Emit delivers event to both Primary and Secondary, isolating a panic in
// either.
func (f *FallbackSink) Emit(event TelemetryEvent) {
	emit(f.Primary, event)
	emit(f.Secondary, event)
}
