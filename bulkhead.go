package ninelives

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// BulkheadConfig is the immutable per-call snapshot a [Bulkhead] reads
// through its adaptive handle at the start of every acquisition.
type BulkheadConfig struct {
	// Capacity bounds concurrent in-flight calls. Capacity may only grow
	// over the bulkhead's lifetime — see [Bulkhead.Grow].
	Capacity int64
	// MaxWait is the per-acquisition queueing deadline used by [DoBulkhead].
	// Zero means non-queueing: an acquisition over capacity fails
	// immediately instead of waiting for a permit to free up.
	MaxWait time.Duration
}

// Bulkhead guarantees at most Capacity concurrent in-flight calls. In
// non-queueing mode (maxWait == 0 at acquisition) a call over capacity
// fails immediately; in queueing mode it waits up to maxWait for a permit
// to free up. Every successful acquisition is paired with exactly one
// release, guaranteed on every exit path including cancellation.
type Bulkhead struct {
	name  string
	cfg   *Adaptive[BulkheadConfig]
	inUse atomic.Int64
	closed atomic.Bool
	clock Clock
	sink  Sink

	mu      sync.Mutex
	waiters []chan struct{}
}

// NewBulkhead constructs a Bulkhead named name with the given capacity.
// Capacity must be > 0.
func NewBulkhead(name string, cfg BulkheadConfig, clock Clock, sink Sink) (*Bulkhead, error) {
	if cfg.Capacity <= 0 {
		return nil, &ConfigError{Field: "capacity", Message: "must be > 0"}
	}

	return &Bulkhead{
		name:  name,
		cfg:   NewAdaptive(cfg),
		clock: clock,
		sink:  sink,
	}, nil
}

// Config returns the bulkhead's adaptive config handle for read-only
// registration (e.g. diagnostics); writes must go through [Bulkhead.Grow],
// not the handle directly, so the no-shrink invariant is enforced.
func (b *Bulkhead) Config() *Adaptive[BulkheadConfig] { return b.cfg }

// Name returns the bulkhead's identity.
func (b *Bulkhead) Name() string { return b.name }

// Grow atomically raises the bulkhead's capacity. Shrinking is
// unsupported — surplus permits are only reclaimed as in-flight calls
// return, so a shrink attempt returns a [ConfigError] rather than
// cancelling a caller that is already running.
func (b *Bulkhead) Grow(capacity int64) error {
	cur := b.cfg.Read()
	if capacity < cur.Capacity {
		return &ConfigError{Field: "capacity", Message: "shrink is not supported"}
	}

	b.cfg.Write(BulkheadConfig{Capacity: capacity, MaxWait: cur.MaxWait})

	for i := int64(0); i < capacity-cur.Capacity; i++ {
		b.wakeOne()
	}

	return nil
}

// SetMaxWait updates the bulkhead's queueing deadline. Unlike Capacity,
// MaxWait has no monotonicity constraint.
func (b *Bulkhead) SetMaxWait(maxWait time.Duration) {
	cur := b.cfg.Read()
	b.cfg.Write(BulkheadConfig{Capacity: cur.Capacity, MaxWait: maxWait})
}

// Close shuts the bulkhead down: every subsequent acquisition is rejected
// with ReasonClosed. In-flight calls are unaffected and still release
// normally.
func (b *Bulkhead) Close() {
	b.closed.Store(true)
}

// Full reports whether the bulkhead is presently saturated.
func (b *Bulkhead) Full() bool {
	cfg := b.cfg.Read()
	return b.inUse.Load() >= cfg.Capacity
}

// Release is returned by a successful acquisition; it must be called
// exactly once, typically via defer, on every exit path.
type Release func()

// Acquire attempts to obtain a permit, waiting up to maxWait in queueing
// mode (maxWait > 0) or failing immediately in non-queueing mode
// (maxWait <= 0). ctx cancellation always ends the wait early.
func (b *Bulkhead) Acquire(ctx context.Context, maxWait time.Duration) (Release, error) {
	for {
		if b.closed.Load() {
			emit(b.sink, BulkheadRejectedEvent(b.name, ReasonClosed, b.clock.Now()))
			return nil, BulkheadFullFailure(ReasonClosed)
		}

		cfg := b.cfg.Read()

		cur := b.inUse.Load()
		if cur < cfg.Capacity {
			if b.inUse.CompareAndSwap(cur, cur+1) {
				emit(b.sink, BulkheadAcquiredEvent(b.name, b.clock.Now()))
				return b.releaseFunc(), nil
			}
			continue
		}

		if maxWait <= 0 {
			emit(b.sink, BulkheadRejectedEvent(b.name, ReasonSaturated, b.clock.Now()))
			return nil, BulkheadFullFailure(ReasonSaturated)
		}

		if !b.waitForSlot(ctx, maxWait) {
			emit(b.sink, BulkheadRejectedEvent(b.name, ReasonSaturated, b.clock.Now()))
			return nil, BulkheadFullFailure(ReasonSaturated)
		}
		// A slot may have been taken by another waiter racing us; loop
		// back and re-attempt the CAS rather than assuming we own it.
	}
}

func (b *Bulkhead) releaseFunc() Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			b.inUse.Add(-1)
			emit(b.sink, BulkheadReleasedEvent(b.name, b.clock.Now()))
			b.wakeOne()
		})
	}
}

func (b *Bulkhead) wakeOne() {
	b.mu.Lock()
	if len(b.waiters) == 0 {
		b.mu.Unlock()
		return
	}
	w := b.waiters[0]
	b.waiters = b.waiters[1:]
	b.mu.Unlock()

	select {
	case w <- struct{}{}:
	default:
	}
}

func (b *Bulkhead) waitForSlot(ctx context.Context, maxWait time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	w := make(chan struct{}, 1)

	b.mu.Lock()
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case <-w:
		return true
	case <-waitCtx.Done():
		return false
	}
}

// doBulkhead acquires a permit (per b's current MaxWait snapshot), invokes
// fn, and releases the permit on every exit path including a panic
// propagating out of fn.
func doBulkhead[T any](ctx context.Context, b *Bulkhead, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	cfg := b.cfg.Read()

	rel, err := b.Acquire(ctx, cfg.MaxWait)
	if err != nil {
		return zero, err
	}
	defer rel()

	return fn(ctx)
}

// DoBulkhead executes fn through b.
func DoBulkhead[T any](ctx context.Context, b *Bulkhead, fn func(context.Context) (T, error)) (T, error) {
	return doBulkhead(ctx, b, fn)
}
