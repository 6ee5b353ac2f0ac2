package ninelives

import "time"

// globalBackoffCeiling is the sanity ceiling no backoff delay may exceed,
// regardless of strategy or configured max. It also bounds the arithmetic
// used to compute exponential delays so large attempt counts saturate
// instead of overflowing time.Duration.
const globalBackoffCeiling = 10 * time.Minute

// Backoff produces the delay to wait before a given retry attempt.
// Attempt 0 always has delay 0 by definition; the sequence for attempt ≥ 1
// is non-decreasing and bounded by the configured max (if any) and by
// [globalBackoffCeiling].
type Backoff interface {
	Delay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function into a [Backoff].
type BackoffFunc func(attempt int) time.Duration

// Delay calls the underlying function, except for attempt 0 which is
// always 0 regardless of what fn would return.
func (f BackoffFunc) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return clampCeiling(f(attempt))
}

func clampCeiling(d time.Duration) time.Duration {
	if d < 0 || d > globalBackoffCeiling {
		return globalBackoffCeiling
	}
	return d
}

// constantBackoff returns the same delay for every attempt after the
// zeroth. Constant does not accept a max cap — its one delay value is the
// cap.
type constantBackoff struct {
	d time.Duration
}

func (b *constantBackoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return clampCeiling(b.d)
}

// ConstantBackoff returns a [Backoff] that returns d for every attempt past
// the zeroth (attempt 0 is always 0, per the core's attempt-0 invariant).
func ConstantBackoff(d time.Duration) Backoff {
	return &constantBackoff{d: d}
}

// cappedBackoff is the shared shape for Linear and Exponential: a base unit
// and an optional max. max == 0 means uncapped (only globalBackoffCeiling
// applies).
type cappedBackoff struct {
	base        time.Duration
	max         time.Duration
	maxSet      bool
	exponential bool
}

func (b *cappedBackoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var d time.Duration
	if b.exponential {
		d = saturatingDouble(b.base, attempt-1)
	} else {
		d = b.base * time.Duration(attempt)
		if d < b.base { // overflow wrapped around to a smaller/negative value
			d = globalBackoffCeiling
		}
	}

	d = clampCeiling(d)
	if b.maxSet && d > b.max {
		d = b.max
	}

	return d
}

// saturatingDouble computes base*2^doublings without wrapping: once the
// running value would exceed the ceiling on the next doubling, it saturates
// at the ceiling instead of overflowing time.Duration's int64.
func saturatingDouble(base time.Duration, doublings int) time.Duration {
	if base <= 0 {
		return 0
	}

	d := base

	for range doublings {
		if d > globalBackoffCeiling/2 {
			return globalBackoffCeiling
		}
		d *= 2
	}

	return d
}

// BackoffOption configures an optional cap on a Linear or Exponential
// backoff via [WithMax].
type BackoffOption func(*cappedBackoff)

// WithMax caps the backoff's delay at max. Construction fails if max is
// less than base or equal to zero — use a bare constructor call (no
// options) to leave the backoff uncapped except by the global ceiling.
func WithMax(max time.Duration) BackoffOption {
	return func(b *cappedBackoff) {
		b.max = max
		b.maxSet = true
	}
}

// LinearBackoff returns a [Backoff] whose attempt-k delay is base*k for
// k ≥ 1 (attempt 0 is always 0). An optional [WithMax] caps the delay.
func LinearBackoff(base time.Duration, opts ...BackoffOption) (Backoff, error) {
	b := &cappedBackoff{base: base}
	for _, o := range opts {
		o(b)
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	return b, nil
}

// ExponentialBackoff returns a [Backoff] whose attempt-k delay is
// base*2^(k-1) for k ≥ 1 (attempt 0 is always 0). An optional [WithMax]
// caps the delay.
func ExponentialBackoff(base time.Duration, opts ...BackoffOption) (Backoff, error) {
	b := &cappedBackoff{base: base, exponential: true}
	for _, o := range opts {
		o(b)
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *cappedBackoff) validate() error {
	if b.base <= 0 {
		return &ConfigError{Field: "base", Message: "must be > 0"}
	}

	if !b.maxSet {
		return nil
	}

	if b.max <= 0 {
		return &ConfigError{Field: "max", Message: "must be > 0 when present"}
	}

	if b.max < b.base {
		return &ConfigError{Field: "max", Message: "must be >= base"}
	}

	return nil
}
