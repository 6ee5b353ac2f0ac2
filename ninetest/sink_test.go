package ninetest

import (
	"testing"
	"time"

	"github.com/flyingrobots/ninelives"
)

func TestRecordingSinkAppendsInOrder(t *testing.T) {
	s := NewRecordingSink()

	s.Emit(ninelives.RequestSuccessEvent("a", time.Now()))
	s.Emit(ninelives.RequestFailureEvent("b", ninelives.KindTimeout, time.Now()))

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("len(Events()) = %d, want 2", len(events))
	}
	if events[0].Source != "a" || events[1].Source != "b" {
		t.Fatalf("events out of order: %+v", events)
	}
}

func TestRecordingSinkReset(t *testing.T) {
	s := NewRecordingSink()
	s.Emit(ninelives.RequestSuccessEvent("a", time.Now()))

	s.Reset()

	if len(s.Events()) != 0 {
		t.Fatal("Reset() should discard every recorded event")
	}
}

func TestRecordingSinkEventsReturnsCopy(t *testing.T) {
	s := NewRecordingSink()
	s.Emit(ninelives.RequestSuccessEvent("a", time.Now()))

	got := s.Events()
	got[0].Source = "mutated"

	if s.Events()[0].Source != "a" {
		t.Fatal("Events() should return a defensive copy")
	}
}
