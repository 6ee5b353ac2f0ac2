package ninetest

import (
	"sync"

	"github.com/flyingrobots/ninelives"
)

// RecordingSink is a [ninelives.Sink] that appends every event to an
// in-memory slice, for tests asserting on which telemetry a primitive
// emitted and in what order.
type RecordingSink struct {
	mu     sync.Mutex
	events []ninelives.TelemetryEvent
}

// NewRecordingSink returns an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Emit appends event.
func (s *RecordingSink) Emit(event ninelives.TelemetryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
}

// Events returns a copy of the events recorded so far, in order.
func (s *RecordingSink) Events() []ninelives.TelemetryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ninelives.TelemetryEvent, len(s.events))
	copy(out, s.events)

	return out
}

// Reset discards every recorded event.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
}
