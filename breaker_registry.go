package ninelives

import (
	"log/slog"
	"sync"
)

// CircuitBreakerRegistry maps a breaker_id to a [CircuitBreaker] so
// operators can address a specific breaker via a command (e.g.
// reset_circuit_breaker). IDs are unique per registry; re-registering the
// same ID replaces the prior handle and logs a warning — the registry
// does not refuse the replacement, since a redeploy that recreates a
// policy under its old name is a normal occurrence.
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	logger   *slog.Logger
}

// NewCircuitBreakerRegistry returns an empty registry. A nil logger uses
// [slog.Default].
func NewCircuitBreakerRegistry(logger *slog.Logger) *CircuitBreakerRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	return &CircuitBreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
		logger:   logger,
	}
}

// Register adds cb under its own name. An unnamed breaker (empty Name())
// is not addressable and Register is a no-op for it — the breaker still
// works, it simply cannot be reached by a command.
func (r *CircuitBreakerRegistry) Register(cb *CircuitBreaker) {
	if cb.Name() == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.breakers[cb.Name()]; exists {
		r.logger.Warn("ninelives: circuit breaker re-registered, replacing prior handle", "name", cb.Name())
	}

	r.breakers[cb.Name()] = cb
}

// Get returns the breaker registered under name, if any.
func (r *CircuitBreakerRegistry) Get(name string) (*CircuitBreaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cb, ok := r.breakers[name]

	return cb, ok
}

// List returns every registered breaker_id.
func (r *CircuitBreakerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}

	return names
}

// Reset forces the named breaker back to Closed. It returns false if name
// is not registered; no state is mutated anywhere in that case.
func (r *CircuitBreakerRegistry) Reset(name string) bool {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	cb.Reset()

	return true
}
