package ninelives

import "context"

// Call is a request already bound to its request-producer: invoking it
// performs one attempt against the wrapped service (or the next policy in
// a composition). Request/response types are opaque to the core; the only
// requirement a combinator imposes is that a Call be safe to invoke more
// than once when it needs to retry, fall back, or race.
type Call[T any] func(context.Context) (T, error)

// Policy is a composable resilience behavior: given the next Call in the
// chain, it returns a new Call that wraps it. A Policy is itself "anything
// that can be invoked like a service" once bound to a terminal Call via
// [WRAP] or an [Executor] — composition is fractal because WRAP, FALLBACK,
// and RACE all take Policy values and return a Policy.
type Policy[T any] func(next Call[T]) Call[T]

// RetryPolicy adapts r into a [Policy]: the canonical retry entry in a
// WRAP stack.
func RetryPolicy[T any](r *Retry) Policy[T] {
	return func(next Call[T]) Call[T] {
		return func(ctx context.Context) (T, error) {
			return doRetry(ctx, r, next)
		}
	}
}

// TimeoutPolicy adapts t into a [Policy].
func TimeoutPolicy[T any](t *Timeout) Policy[T] {
	return func(next Call[T]) Call[T] {
		return func(ctx context.Context) (T, error) {
			return doTimeout(ctx, t, next)
		}
	}
}

// BulkheadPolicy adapts b into a [Policy].
func BulkheadPolicy[T any](b *Bulkhead) Policy[T] {
	return func(next Call[T]) Call[T] {
		return func(ctx context.Context) (T, error) {
			return doBulkhead(ctx, b, next)
		}
	}
}

// CircuitBreakerPolicy adapts cb into a [Policy].
func CircuitBreakerPolicy[T any](cb *CircuitBreaker) Policy[T] {
	return func(next Call[T]) Call[T] {
		return func(ctx context.Context) (T, error) {
			return doCircuitBreaker(ctx, cb, next)
		}
	}
}

// Identity is the Policy that does nothing; WRAP() with no members behaves
// the same way.
func Identity[T any]() Policy[T] {
	return func(next Call[T]) Call[T] { return next }
}

// Executor binds a fully composed Policy to an identity and a clock, and
// is the boundary at which the core's "Request" telemetry (success or
// failure of the whole composed call) is emitted — no individual
// primitive or combinator owns that event, since it describes the
// outcome of everything WRAP/FALLBACK/RACE stitched together.
type Executor[T any] struct {
	name   string
	policy Policy[T]
	clock  Clock
	sink   Sink
}

// NewExecutor binds policy under name, ready to [Executor.Do] against a
// concrete request producer.
func NewExecutor[T any](name string, policy Policy[T], clock Clock, sink Sink) *Executor[T] {
	return &Executor[T]{name: name, policy: policy, clock: clock, sink: sink}
}

// Do invokes fn through the executor's composed policy, emitting a
// Request{Success|Failure} telemetry event for the whole call.
func (e *Executor[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	call := e.policy(fn)

	v, err := call(ctx)
	if err == nil {
		emit(e.sink, RequestSuccessEvent(e.name, e.clock.Now()))
		return v, nil
	}

	kind := KindCustom
	if f, ok := AsFailure(err); ok {
		kind = f.Kind
	}

	emit(e.sink, RequestFailureEvent(e.name, kind, e.clock.Now()))

	return v, err
}
