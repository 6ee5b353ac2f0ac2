package ninelives

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRaceReturnsFirstSuccess(t *testing.T) {
	fast := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) { return 1, nil }
	})
	slow := Policy[int](func(Call[int]) Call[int] {
		return func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Second):
				return 2, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	})

	call := RACE(fast, slow)(func(context.Context) (int, error) {
		t.Fatal("terminal should not be reached; branches supply their own Call")
		return 0, nil
	})

	v, err := call(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("got (%d, %v), want (1, nil)", v, err)
	}
}

func TestRaceCancelsLoserContext(t *testing.T) {
	loserCancelled := make(chan struct{})

	fast := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) { return 1, nil }
	})
	slow := Policy[int](func(Call[int]) Call[int] {
		return func(ctx context.Context) (int, error) {
			<-ctx.Done()
			close(loserCancelled)
			return 0, ctx.Err()
		}
	})

	call := RACE(fast, slow)(func(context.Context) (int, error) { return 0, nil })

	if _, err := call(context.Background()); err != nil {
		t.Fatalf("call: %v", err)
	}

	select {
	case <-loserCancelled:
	case <-time.After(time.Second):
		t.Fatal("losing branch's context should have been cancelled")
	}
}

func TestRaceReturnsCustomFailureWhenBothFail(t *testing.T) {
	leftErr := errors.New("left down")
	rightErr := errors.New("right down")

	left := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) { return 0, leftErr }
	})
	right := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) { return 0, rightErr }
	})

	call := RACE(left, right)(func(context.Context) (int, error) { return 0, nil })

	_, err := call(context.Background())
	if !IsCustom(err) {
		t.Fatalf("err = %v, want Custom wrapping a RaceFailure", err)
	}
	if !errors.Is(err, leftErr) || !errors.Is(err, rightErr) {
		t.Fatalf("err = %v, want it to unwrap to both branch errors", err)
	}
}

// TestRaceAttributesFailuresToTheirOwnBranch guards against assigning
// RaceFailure.Left/Right by arrival order instead of by which branch
// actually produced the error: the slower branch here answers second but
// must still land in Right.
func TestRaceAttributesFailuresToTheirOwnBranch(t *testing.T) {
	leftErr := errors.New("left down")
	rightErr := errors.New("right down")

	left := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) { return 0, leftErr }
	})
	right := Policy[int](func(Call[int]) Call[int] {
		return func(context.Context) (int, error) {
			time.Sleep(20 * time.Millisecond)
			return 0, rightErr
		}
	})

	call := RACE(left, right)(func(context.Context) (int, error) { return 0, nil })

	_, err := call(context.Background())

	var raceErr *RaceFailure
	if !errors.As(err, &raceErr) {
		t.Fatalf("err = %v, want it to unwrap to a *RaceFailure", err)
	}
	if raceErr.Left != leftErr {
		t.Errorf("Left = %v, want %v", raceErr.Left, leftErr)
	}
	if raceErr.Right != rightErr {
		t.Errorf("Right = %v, want %v", raceErr.Right, rightErr)
	}
}
