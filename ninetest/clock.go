// Package ninetest exports the Clock/Sleeper test doubles the core's
// own test suite uses, promoted out of test-only private types
// (grounded on the teacher's fakeClock/fakeTimer compile-check stubs
// in clock_test.go) into a reusable subpackage, per the contract that
// tracking and instant Sleeper implementations are meant for reuse by
// test-writers outside the core package.
package ninetest

import (
	"context"
	"sync"
	"time"

	"github.com/flyingrobots/ninelives"
)

// ManualClock is a [ninelives.Clock] whose notion of "now" only moves
// when Advance is called. Timers created via NewTimer fire when the
// clock is advanced past their deadline.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManualClock returns a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current simulated time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Since returns the simulated duration elapsed since t.
func (c *ManualClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// NewTimer returns a [ninelives.Timer] that fires once the clock is
// advanced to or past its deadline.
func (c *ManualClock) NewTimer(d time.Duration) ninelives.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTimer{
		deadline: c.now.Add(d),
		ch:       make(chan time.Time, 1),
		active:   true,
	}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the clock forward by d, firing every live timer whose
// deadline has been reached, in the order the timers were created.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	live := c.timers[:0]

	for _, t := range c.timers {
		t.mu.Lock()
		if t.active && !t.deadline.After(c.now) {
			t.active = false
			select {
			case t.ch <- c.now:
			default:
			}
		} else if t.active {
			live = append(live, t)
		}
		t.mu.Unlock()
	}

	c.timers = live
}

type manualTimer struct {
	mu       sync.Mutex
	deadline time.Time
	ch       chan time.Time
	active   bool
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	fired := !t.active
	t.active = false

	return !fired
}

func (t *manualTimer) Reset(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasActive := t.active
	t.active = true
	t.deadline = t.deadline.Add(d)

	return wasActive
}

// TrackingSleeper is a [ninelives.Sleeper] that records every requested
// duration without actually waiting, letting a test assert on the
// backoff delays a retry loop computed without spending real wall-clock
// time.
type TrackingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

// NewTrackingSleeper returns an empty TrackingSleeper.
func NewTrackingSleeper() *TrackingSleeper {
	return &TrackingSleeper{}
}

// Sleep records d and returns immediately, unless ctx is already done.
func (s *TrackingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()

	return nil
}

// Sleeps returns the durations requested so far, in order.
func (s *TrackingSleeper) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]time.Duration, len(s.sleeps))
	copy(out, s.sleeps)

	return out
}

// InstantSleeper is a [ninelives.Sleeper] that completes every sleep
// immediately, for tests that don't care about requested durations but
// want a retry loop or timeout race to run at full speed.
type InstantSleeper struct{}

// Sleep returns immediately unless ctx is already done.
func (InstantSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
