package ninetest

import (
	"context"
	"testing"
	"time"
)

func TestManualClockAdvanceFiresTimer(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))

	timer := c.NewTimer(10 * time.Second)

	c.Advance(5 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(5 * time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer should have fired once the deadline was reached")
	}
}

func TestManualClockSinceReflectsSimulatedTime(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewManualClock(start)

	c.Advance(30 * time.Second)

	if got := c.Since(start); got != 30*time.Second {
		t.Fatalf("Since(start) = %v, want 30s", got)
	}
}

func TestManualClockAdvanceFiresOnlyReachedTimers(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))

	early := c.NewTimer(1 * time.Second)
	late := c.NewTimer(10 * time.Second)

	c.Advance(2 * time.Second)

	select {
	case <-early.C():
	default:
		t.Fatal("early timer should have fired")
	}
	select {
	case <-late.C():
		t.Fatal("late timer should not have fired yet")
	default:
	}
}

func TestManualTimerStopPreventsLaterFire(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))

	timer := c.NewTimer(5 * time.Second)
	if stopped := timer.Stop(); !stopped {
		t.Fatal("Stop() on a still-pending timer should report true")
	}

	c.Advance(10 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("a stopped timer should not fire")
	default:
	}
}

func TestTrackingSleeperRecordsDurations(t *testing.T) {
	s := NewTrackingSleeper()

	_ = s.Sleep(context.Background(), 10*time.Millisecond)
	_ = s.Sleep(context.Background(), 20*time.Millisecond)

	got := s.Sleeps()
	if len(got) != 2 || got[0] != 10*time.Millisecond || got[1] != 20*time.Millisecond {
		t.Fatalf("Sleeps() = %v", got)
	}
}

func TestTrackingSleeperRespectsCancelledContext(t *testing.T) {
	s := NewTrackingSleeper()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Sleep(ctx, time.Second); err != context.Canceled {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
	if len(s.Sleeps()) != 0 {
		t.Fatal("a cancelled sleep should not be recorded")
	}
}

func TestInstantSleeperReturnsImmediately(t *testing.T) {
	start := time.Now()
	if err := (InstantSleeper{}).Sleep(context.Background(), time.Hour); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("InstantSleeper should not actually wait")
	}
}

func TestInstantSleeperRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := (InstantSleeper{}).Sleep(ctx, time.Second); err != context.Canceled {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
}
