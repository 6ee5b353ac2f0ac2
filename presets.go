package ninelives

import "time"

// Preset bundles the four primitives of a canonical resilience stack,
// already composed into a single [Policy] via WRAP in the order
// Timeout(Retry(Bulkhead(CircuitBreaker))) — the outermost primitive
// bounds total latency, the innermost one is closest to the protected
// call. Generalized from the teacher's factory-function preset idiom
// (StandardHTTPClient/AggressiveHTTPClient, a []any option bundle) into
// ready-made Policy values matching the spec's WRAP algebra.
type Preset[T any] struct {
	Timeout  *Timeout
	Retry    *Retry
	Bulkhead *Bulkhead
	Breaker  *CircuitBreaker
	Policy   Policy[T]
}

// StandardStack returns a moderate preset suited to a typical outbound
// HTTP dependency: 5s timeout, 3 attempts with 100ms exponential
// backoff, a breaker tripping after 5 failures with a 30s recovery
// window, and a 10-permit bulkhead.
func StandardStack[T any](name string, clock Clock, sleeper Sleeper, sink Sink) (*Preset[T], error) {
	strategy, err := ExponentialBackoff(100 * time.Millisecond)
	if err != nil {
		return nil, err
	}

	return buildStack[T](name, clock, sleeper, sink, RetryConfig{
		MaxAttempts: 3,
		Strategy:    strategy,
	}, TimeoutConfig{Duration: 5 * time.Second}, BulkheadConfig{Capacity: 10}, CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMax:      1,
	})
}

// AggressiveStack returns a preset suited to a latency-sensitive,
// high-fanout dependency: 2s timeout, 5 attempts with 50ms exponential
// backoff capped at 5s, a breaker tripping after 3 failures with a 15s
// recovery window, and a 20-permit bulkhead.
func AggressiveStack[T any](name string, clock Clock, sleeper Sleeper, sink Sink) (*Preset[T], error) {
	strategy, err := ExponentialBackoff(50*time.Millisecond, WithMax(5*time.Second))
	if err != nil {
		return nil, err
	}

	return buildStack[T](name, clock, sleeper, sink, RetryConfig{
		MaxAttempts: 5,
		Strategy:    strategy,
	}, TimeoutConfig{Duration: 2 * time.Second}, BulkheadConfig{Capacity: 20}, CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  15 * time.Second,
		HalfOpenMax:      1,
	})
}

func buildStack[T any](
	name string,
	clock Clock,
	sleeper Sleeper,
	sink Sink,
	retryCfg RetryConfig,
	timeoutCfg TimeoutConfig,
	bulkheadCfg BulkheadConfig,
	breakerCfg CircuitBreakerConfig,
) (*Preset[T], error) {
	timeout, err := NewTimeout(name, timeoutCfg, clock, sink)
	if err != nil {
		return nil, err
	}

	retry, err := NewRetry(name, retryCfg, clock, sleeper, sink)
	if err != nil {
		return nil, err
	}

	bulkhead, err := NewBulkhead(name, bulkheadCfg, clock, sink)
	if err != nil {
		return nil, err
	}

	breaker, err := NewCircuitBreaker(name, breakerCfg, clock, sink)
	if err != nil {
		return nil, err
	}

	policy := WRAP(
		TimeoutPolicy[T](timeout),
		RetryPolicy[T](retry),
		BulkheadPolicy[T](bulkhead),
		CircuitBreakerPolicy[T](breaker),
	)

	return &Preset[T]{
		Timeout:  timeout,
		Retry:    retry,
		Bulkhead: bulkhead,
		Breaker:  breaker,
		Policy:   policy,
	}, nil
}
