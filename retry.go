package ninelives

import (
	"context"
)

// RetryConfig is the immutable per-call snapshot a [Retry] reads through
// its adaptive handle at the start of every call.
type RetryConfig struct {
	// MaxAttempts bounds the number of producer invocations. 0 is a
	// configuration error (caught by NewRetry, not silently coerced to 1).
	MaxAttempts int
	// Strategy computes the unjittered delay for a given attempt.
	Strategy Backoff
	// Jitter perturbs Strategy's output. Nil means [NoJitter].
	Jitter Jitter
	// RetryIf overrides the default retryable predicate (retry only
	// KindInner failures). Returning false stops the loop immediately,
	// surfacing the current failure.
	RetryIf func(error) bool
}

// Retry retries a fallible call up to MaxAttempts times, backing off
// between attempts per its configured [Backoff] and [Jitter]. It reads a
// fresh [RetryConfig] snapshot from its adaptive handle at the start of
// every call, so a live reconfiguration is observed by the next call, not
// an in-flight one.
type Retry struct {
	name    string
	cfg     *Adaptive[RetryConfig]
	clock   Clock
	sleeper Sleeper
	sink    Sink
}

// NewRetry constructs a Retry named name. It fails if cfg.MaxAttempts is
// not positive.
func NewRetry(name string, cfg RetryConfig, clock Clock, sleeper Sleeper, sink Sink) (*Retry, error) {
	if err := validateRetryConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Jitter == nil {
		cfg.Jitter = NoJitter()
	}

	return &Retry{
		name:    name,
		cfg:     NewAdaptive(cfg),
		clock:   clock,
		sleeper: sleeper,
		sink:    sink,
	}, nil
}

func validateRetryConfig(cfg RetryConfig) error {
	if cfg.MaxAttempts <= 0 {
		return &ConfigError{Field: "max_attempts", Message: "must be > 0"}
	}
	if cfg.Strategy == nil {
		return &ConfigError{Field: "strategy", Message: "must not be nil"}
	}
	return nil
}

// Config returns the retry's adaptive config handle so the control plane
// can register it under a dotted path in a [ConfigRegistry].
func (r *Retry) Config() *Adaptive[RetryConfig] { return r.cfg }

// Name returns the retry's identity, used to attribute telemetry events.
func (r *Retry) Name() string { return r.name }

func (r *Retry) retryable(cfg RetryConfig, err error) bool {
	if cfg.RetryIf != nil {
		return cfg.RetryIf(err)
	}
	// Default: only KindInner is retryable. Carrier failures from
	// timeout/bulkhead/breaker bubble up immediately.
	return IsInner(err) && !isCarrierFailure(err)
}

// doRetry executes fn (the request producer), retrying per r's current
// config snapshot. attempt is strictly increasing; the 0th attempt always
// has delay 0.
func doRetry[T any](ctx context.Context, r *Retry, fn func(context.Context) (T, error)) (T, error) {
	cfg := r.cfg.Read()

	var zero T
	var failures []error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		failures = append(failures, err)

		if !r.retryable(cfg, err) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := clampCeiling(cfg.Jitter.Apply(cfg.Strategy.Delay(attempt)))

		emit(r.sink, RetryAttemptEvent(r.name, attempt, delay, r.clock.Now()))

		if sleepErr := r.sleeper.Sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}

	emit(r.sink, RetryExhaustedEvent(r.name, len(failures), r.clock.Now()))

	return zero, RetryExhaustedFailure(failures)
}

// DoRetry executes fn through r. It is the generic entry point; [RetryPolicy]
// adapts a Retry into a [Policy] for use in [WRAP].
func DoRetry[T any](ctx context.Context, r *Retry, fn func(context.Context) (T, error)) (T, error) {
	return doRetry(ctx, r, fn)
}
