package ninelives

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeoutValidation(t *testing.T) {
	if _, err := NewTimeout("x", TimeoutConfig{Duration: 0}, RealClock{}, NopSink{}); err == nil {
		t.Fatal("Duration == 0 should be rejected")
	}

	if _, err := NewTimeout("x", TimeoutConfig{Duration: -time.Second}, RealClock{}, NopSink{}); err == nil {
		t.Fatal("negative Duration should be rejected")
	}

	if _, err := NewTimeout("x", TimeoutConfig{Duration: time.Hour}, RealClock{}, NopSink{}); err == nil {
		t.Fatal("Duration above the default ceiling should be rejected")
	}
}

func TestNewTimeoutWithCeilingAllowsRaisedBudget(t *testing.T) {
	to, err := NewTimeoutWithCeiling("x", TimeoutConfig{Duration: time.Hour}, 2*time.Hour, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewTimeoutWithCeiling: %v", err)
	}
	if to.Config().Read().Duration != time.Hour {
		t.Fatalf("unexpected duration: %v", to.Config().Read().Duration)
	}
}

func TestTimeoutSucceedsWithinBudget(t *testing.T) {
	to, err := NewTimeout("x", TimeoutConfig{Duration: time.Second}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewTimeout: %v", err)
	}

	v, callErr := DoTimeout(context.Background(), to, func(context.Context) (int, error) {
		return 99, nil
	})

	if callErr != nil || v != 99 {
		t.Fatalf("got (%d, %v), want (99, nil)", v, callErr)
	}
}

func TestTimeoutExpiresAndCancelsInFlightWork(t *testing.T) {
	to, err := NewTimeout("x", TimeoutConfig{Duration: 10 * time.Millisecond}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewTimeout: %v", err)
	}

	cancelled := make(chan struct{})

	_, callErr := DoTimeout(context.Background(), to, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	})

	if !IsTimeout(callErr) {
		t.Fatalf("err = %v, want Timeout failure", callErr)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight work's context was never cancelled")
	}
}

func TestTimeoutPropagatesParentCancellation(t *testing.T) {
	to, err := NewTimeout("x", TimeoutConfig{Duration: time.Hour}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewTimeout: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	_, callErr := DoTimeout(ctx, to, func(innerCtx context.Context) (int, error) {
		close(started)
		<-innerCtx.Done()
		return 0, innerCtx.Err()
	})

	if !errors.Is(callErr, context.Canceled) {
		t.Fatalf("err = %v, want the parent's own Canceled error, not a Timeout failure", callErr)
	}
	if IsTimeout(callErr) {
		t.Fatal("parent cancellation must not be misreported as a Timeout failure")
	}
}

func TestTimeoutRejectsAlreadyDoneContext(t *testing.T) {
	to, err := NewTimeout("x", TimeoutConfig{Duration: time.Second}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewTimeout: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, callErr := DoTimeout(ctx, to, func(context.Context) (int, error) {
		t.Fatal("fn should not be invoked for an already-done context")
		return 0, nil
	})

	if !errors.Is(callErr, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", callErr)
	}
}
