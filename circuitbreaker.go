package ninelives

import (
	"context"
	"sync/atomic"
	"time"
)

// Circuit breaker states, stored in the state atomic.
const (
	breakerClosed   uint32 = 0
	breakerOpen     uint32 = 1
	breakerHalfOpen uint32 = 2
)

// CircuitBreakerConfig is the immutable per-call snapshot a
// [CircuitBreaker] reads through its adaptive handle at the start of
// every call.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in Closed
	// state before the breaker opens.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays Open before admitting
	// a half-open probe.
	RecoveryTimeout time.Duration
	// HalfOpenMax bounds concurrent probes admitted while HalfOpen, and
	// the number of consecutive probe successes required to close.
	HalfOpenMax int
}

// CircuitBreaker tracks the health of a downstream dependency and fails
// fast when it is unhealthy, auto-recovering via a half-open probe once
// the recovery window elapses. All state transitions use compare-and-swap
// so at most one transition fires per triggering event, even under
// contention.
type CircuitBreaker struct {
	name  string
	cfg   *Adaptive[CircuitBreakerConfig]
	clock Clock
	sink  Sink

	state              atomic.Uint32
	consecFailures     atomic.Int64
	openedAtNano       atomic.Int64
	halfOpenInFlight   atomic.Int64
	halfOpenSuccesses  atomic.Int64
}

// NewCircuitBreaker constructs a CircuitBreaker named name, starting
// Closed.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, clock Clock, sink Sink) (*CircuitBreaker, error) {
	if cfg.FailureThreshold <= 0 {
		return nil, &ConfigError{Field: "failure_threshold", Message: "must be > 0"}
	}
	if cfg.RecoveryTimeout <= 0 {
		return nil, &ConfigError{Field: "recovery_timeout", Message: "must be > 0"}
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}

	return &CircuitBreaker{
		name:  name,
		cfg:   NewAdaptive(cfg),
		clock: clock,
		sink:  sink,
	}, nil
}

// Config returns the breaker's adaptive config handle for registration in
// a [ConfigRegistry].
func (cb *CircuitBreaker) Config() *Adaptive[CircuitBreakerConfig] { return cb.cfg }

// Name returns the breaker's identity; an empty name means the breaker is
// anonymous and not addressable by a [CircuitBreakerRegistry] command.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State reports the breaker's current state as "closed", "open", or
// "half_open".
func (cb *CircuitBreaker) State() string {
	switch cb.state.Load() {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Reset forces the breaker back to Closed, clearing every counter. The
// control plane uses this for the reset_circuit_breaker command; callers
// are responsible for auditing the action.
func (cb *CircuitBreaker) Reset() {
	cb.state.Store(breakerClosed)
	cb.consecFailures.Store(0)
	cb.halfOpenInFlight.Store(0)
	cb.halfOpenSuccesses.Store(0)
	cb.openedAtNano.Store(0)
	emit(cb.sink, BreakerClosedEvent(cb.name, cb.clock.Now()))
}

// admission describes how a single call was let through, so its outcome
// can be recorded against the state it was admitted under rather than
// whatever the state happens to be when it completes.
type admission int

const (
	admissionClosed admission = iota
	admissionProbe
)

// allow decides whether a call may proceed. It returns the admission mode
// so the eventual result is recorded consistently with how the call was
// let in.
func (cb *CircuitBreaker) allow(cfg CircuitBreakerConfig) (admission, error) {
	for {
		s := cb.state.Load()

		switch s {
		case breakerClosed:
			return admissionClosed, nil

		case breakerHalfOpen:
			for {
				inFlight := cb.halfOpenInFlight.Load()
				if inFlight >= int64(cfg.HalfOpenMax) {
					return 0, CircuitOpenFailure()
				}
				if cb.halfOpenInFlight.CompareAndSwap(inFlight, inFlight+1) {
					return admissionProbe, nil
				}
			}

		default: // breakerOpen
			openedAt := time.Unix(0, cb.openedAtNano.Load())
			if cb.clock.Since(openedAt) < cfg.RecoveryTimeout {
				return 0, CircuitOpenFailure()
			}

			if cb.state.CompareAndSwap(breakerOpen, breakerHalfOpen) {
				cb.halfOpenSuccesses.Store(0)
				cb.halfOpenInFlight.Store(0)
				emit(cb.sink, BreakerHalfOpenProbeEvent(cb.name, cb.clock.Now()))
			}
			// Loop: whoever won the CAS or not, the state is now
			// half-open (or about to be); re-evaluate admission there.
		}
	}
}

func (cb *CircuitBreaker) recordSuccess(cfg CircuitBreakerConfig, adm admission) {
	switch adm {
	case admissionClosed:
		cb.consecFailures.Store(0)

	case admissionProbe:
		emit(cb.sink, BreakerProbeSuccessEvent(cb.name, cb.clock.Now()))

		successes := cb.halfOpenSuccesses.Add(1)
		if successes < int64(cfg.HalfOpenMax) {
			return
		}

		if cb.state.CompareAndSwap(breakerHalfOpen, breakerClosed) {
			cb.consecFailures.Store(0)
			cb.halfOpenSuccesses.Store(0)
			emit(cb.sink, BreakerClosedEvent(cb.name, cb.clock.Now()))
		}
	}
}

func (cb *CircuitBreaker) recordFailure(cfg CircuitBreakerConfig, adm admission) {
	cb.openedAtNano.Store(cb.clock.Now().UnixNano())

	switch adm {
	case admissionClosed:
		failures := cb.consecFailures.Add(1)
		if failures < int64(cfg.FailureThreshold) {
			return
		}

		if cb.state.CompareAndSwap(breakerClosed, breakerOpen) {
			emit(cb.sink, BreakerOpenedEvent(cb.name, cb.clock.Now()))
		}

	case admissionProbe:
		emit(cb.sink, BreakerProbeFailureEvent(cb.name, cb.clock.Now()))

		if cb.state.CompareAndSwap(breakerHalfOpen, breakerOpen) {
			cb.halfOpenSuccesses.Store(0)
			emit(cb.sink, BreakerOpenedEvent(cb.name, cb.clock.Now()))
		}
	}
}

// doCircuitBreaker executes fn through cb, short-circuiting with
// KindCircuitOpen when the breaker is open or the half-open probe budget
// is exhausted.
func doCircuitBreaker[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	cfg := cb.cfg.Read()

	adm, err := cb.allow(cfg)
	if err != nil {
		return zero, err
	}

	defer func() {
		if adm == admissionProbe {
			cb.halfOpenInFlight.Add(-1)
		}
	}()

	v, ferr := fn(ctx)
	if ferr == nil {
		cb.recordSuccess(cfg, adm)
		return v, nil
	}

	cb.recordFailure(cfg, adm)

	return zero, ferr
}

// DoCircuitBreaker executes fn through cb.
func DoCircuitBreaker[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	return doCircuitBreaker(ctx, cb, fn)
}
