package ninelives

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind tags the closed set of failure variants a policy call can
// produce. The core never converts one kind into another silently; each
// primitive and combinator surfaces its own kind up the call stack.
type FailureKind int

const (
	// KindInner marks a failure that originated from the wrapped service
	// itself, not from a resilience primitive. It is the only kind a retry
	// loop retries by default.
	KindInner FailureKind = iota
	// KindTimeout marks a call that exceeded its configured budget.
	KindTimeout
	// KindCircuitOpen marks a call short-circuited by an open breaker.
	KindCircuitOpen
	// KindBulkheadFull marks a call rejected for lack of a bulkhead permit.
	KindBulkheadFull
	// KindRetryExhausted marks a retry loop that used every attempt.
	KindRetryExhausted
	// KindCustom is an escape hatch for combinators (e.g. RACE) whose
	// failure shape does not fit the other five kinds.
	KindCustom
)

// String renders the kind as a lower-case snake_case name, as used for
// telemetry error kinds. These names are distinct from the ErrorCode names
// carried by command error results.
func (k FailureKind) String() string {
	switch k {
	case KindInner:
		return "inner"
	case KindTimeout:
		return "timeout"
	case KindCircuitOpen:
		return "circuit_open"
	case KindBulkheadFull:
		return "bulkhead_full"
	case KindRetryExhausted:
		return "retry_exhausted"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// BulkheadRejectReason distinguishes why a bulkhead acquisition failed.
type BulkheadRejectReason int

const (
	// ReasonSaturated means every permit was in use.
	ReasonSaturated BulkheadRejectReason = iota
	// ReasonClosed means the bulkhead was shut down.
	ReasonClosed
)

func (r BulkheadRejectReason) String() string {
	if r == ReasonClosed {
		return "closed"
	}
	return "saturated"
}

// Failure is the single error sum carried through every primitive and
// combinator. Only the fields relevant to Kind are meaningful; the rest are
// zero. Use the Is* helpers or errors.As to inspect one in a caller.
type Failure struct {
	// Kind selects which fields below are populated.
	Kind FailureKind
	// Err is the wrapped error for KindInner and KindCustom.
	Err error
	// Elapsed and Configured are populated for KindTimeout.
	Elapsed, Configured time.Duration
	// Reason is populated for KindBulkheadFull.
	Reason BulkheadRejectReason
	// Failures is the ordered sequence of per-attempt errors for
	// KindRetryExhausted.
	Failures []error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch f.Kind {
	case KindInner:
		return fmt.Sprintf("inner: %v", f.Err)
	case KindTimeout:
		return fmt.Sprintf("timeout: elapsed %s, configured %s", f.Elapsed, f.Configured)
	case KindCircuitOpen:
		return "circuit open"
	case KindBulkheadFull:
		return fmt.Sprintf("bulkhead full: %s", f.Reason)
	case KindRetryExhausted:
		return fmt.Sprintf("retry exhausted after %d attempts: %v", len(f.Failures), f.lastFailure())
	case KindCustom:
		return fmt.Sprintf("custom: %v", f.Err)
	default:
		return "unknown failure"
	}
}

// Unwrap exposes the wrapped error, when there is one, to errors.Is/As.
func (f *Failure) Unwrap() error {
	if f.Kind == KindRetryExhausted {
		return f.lastFailure()
	}
	return f.Err
}

func (f *Failure) lastFailure() error {
	if len(f.Failures) == 0 {
		return nil
	}
	return f.Failures[len(f.Failures)-1]
}

// InnerFailure wraps an application-level error as KindInner. It returns
// nil if err is nil.
func InnerFailure(err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: KindInner, Err: err}
}

// TimeoutFailure reports a call that exceeded its configured budget.
func TimeoutFailure(elapsed, configured time.Duration) error {
	return &Failure{Kind: KindTimeout, Elapsed: elapsed, Configured: configured}
}

// CircuitOpenFailure reports a call short-circuited by an open breaker.
func CircuitOpenFailure() error {
	return &Failure{Kind: KindCircuitOpen}
}

// BulkheadFullFailure reports a rejected bulkhead acquisition.
func BulkheadFullFailure(reason BulkheadRejectReason) error {
	return &Failure{Kind: KindBulkheadFull, Reason: reason}
}

// RetryExhaustedFailure reports a retry loop that used every attempt,
// carrying the ordered sequence of per-attempt failures.
func RetryExhaustedFailure(failures []error) error {
	return &Failure{Kind: KindRetryExhausted, Failures: failures}
}

// CustomFailure wraps an arbitrary error produced by a user combinator or
// extension (e.g. RACE's combined-both-failed error). It returns nil if err
// is nil.
func CustomFailure(err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: KindCustom, Err: err}
}

// classify reports whether err is a *Failure of the given kind.
func classify(err error, kind FailureKind) bool {
	var f *Failure
	if !errors.As(err, &f) {
		return false
	}
	return f.Kind == kind
}

// IsInner reports whether err is a KindInner failure.
func IsInner(err error) bool { return classify(err, KindInner) }

// IsTimeout reports whether err is a KindTimeout failure.
func IsTimeout(err error) bool { return classify(err, KindTimeout) }

// IsCircuitOpen reports whether err is a KindCircuitOpen failure.
func IsCircuitOpen(err error) bool { return classify(err, KindCircuitOpen) }

// IsBulkheadFull reports whether err is a KindBulkheadFull failure.
func IsBulkheadFull(err error) bool { return classify(err, KindBulkheadFull) }

// IsRetryExhausted reports whether err is a KindRetryExhausted failure.
func IsRetryExhausted(err error) bool { return classify(err, KindRetryExhausted) }

// IsCustom reports whether err is a KindCustom failure.
func IsCustom(err error) bool { return classify(err, KindCustom) }

// AsFailure extracts the *Failure from err, reporting whether one was
// found via errors.As.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

// isCarrierFailure reports whether err is one of the three kinds a retry
// loop must not retry by default: the primitive produced it itself and
// retrying blindly cannot improve on the upstream condition it reports.
func isCarrierFailure(err error) bool {
	return IsTimeout(err) || IsCircuitOpen(err) || IsBulkheadFull(err)
}

// RaceFailure is the combined error RACE returns when both branches fail.
// It is carried as the Err field of a KindCustom *Failure.
type RaceFailure struct {
	Left, Right error
}

func (f *RaceFailure) Error() string {
	return fmt.Sprintf("race: both branches failed: left=%v right=%v", f.Left, f.Right)
}

// Unwrap exposes both branch errors to errors.Is/As.
func (f *RaceFailure) Unwrap() []error { return []error{f.Left, f.Right} }

// ConfigError reports a rejected construction or write of a policy
// configuration value (e.g. max_attempts == 0, a bulkhead shrink attempt).
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// AsConfigError extracts a *ConfigError from err via errors.As.
func AsConfigError(err error) (*ConfigError, bool) {
	var c *ConfigError
	ok := errors.As(err, &c)
	return c, ok
}
