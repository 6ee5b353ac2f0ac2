package ninelives

import (
	"context"
	"time"
)

// timeoutGlobalCeiling is the documented ceiling a [TimeoutConfig].Duration
// may not exceed unless constructed via [NewTimeoutWithCeiling].
const timeoutGlobalCeiling = 10 * time.Minute

// TimeoutConfig is the immutable per-call snapshot a [Timeout] reads
// through its adaptive handle at the start of every call.
type TimeoutConfig struct {
	// Duration is the budget a call is given before it is cancelled and
	// fails with a KindTimeout [Failure].
	Duration time.Duration
}

// Timeout races a call against a scheduled expiry drawn from its adaptive
// duration handle at call entry. If the expiry wins, the in-flight work's
// context is cancelled and the call fails with a KindTimeout [Failure].
type Timeout struct {
	name    string
	cfg     *Adaptive[TimeoutConfig]
	ceiling time.Duration
	clock   Clock
	sink    Sink
}

// NewTimeout constructs a Timeout named name, bounded by the documented
// ceiling. Duration must be > 0 and <= the ceiling; use
// [NewTimeoutWithCeiling] to raise it explicitly.
func NewTimeout(name string, cfg TimeoutConfig, clock Clock, sink Sink) (*Timeout, error) {
	return NewTimeoutWithCeiling(name, cfg, timeoutGlobalCeiling, clock, sink)
}

// NewTimeoutWithCeiling is like [NewTimeout] but lets the operator raise
// the validation ceiling explicitly, guarding against an accidental
// denial-of-service via an unbounded wait while still allowing a
// legitimately long budget.
func NewTimeoutWithCeiling(name string, cfg TimeoutConfig, ceiling time.Duration, clock Clock, sink Sink) (*Timeout, error) {
	if cfg.Duration <= 0 {
		return nil, &ConfigError{Field: "duration", Message: "must be > 0"}
	}
	if cfg.Duration > ceiling {
		return nil, &ConfigError{Field: "duration", Message: "must be <= ceiling"}
	}

	return &Timeout{
		name:    name,
		cfg:     NewAdaptive(cfg),
		ceiling: ceiling,
		clock:   clock,
		sink:    sink,
	}, nil
}

// Config returns the timeout's adaptive config handle for registration in
// a [ConfigRegistry].
func (t *Timeout) Config() *Adaptive[TimeoutConfig] { return t.cfg }

// Name returns the timeout's identity.
func (t *Timeout) Name() string { return t.name }

// doTimeout executes fn, racing it against t's current duration snapshot.
// It distinguishes a timeout (the derived deadline fired) from the parent
// context ending first, returning the parent's own error in the latter
// case rather than misreporting it as a timeout.
func doTimeout[T any](ctx context.Context, t *Timeout, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	cfg := t.cfg.Read()

	timeoutCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	start := t.clock.Now()

	type result struct {
		val T
		err error
	}

	ch := make(chan result, 1)

	go func() {
		v, err := fn(timeoutCtx)
		ch <- result{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		elapsed := t.clock.Since(start)
		emit(t.sink, TimeoutElapsedEvent(t.name, elapsed, cfg.Duration, t.clock.Now()))

		return zero, TimeoutFailure(elapsed, cfg.Duration)
	}
}

// DoTimeout executes fn through t.
func DoTimeout[T any](ctx context.Context, t *Timeout, fn func(context.Context) (T, error)) (T, error) {
	return doTimeout(ctx, t, fn)
}
