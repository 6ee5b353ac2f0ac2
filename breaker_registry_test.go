package ninelives

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerRegistryRegisterGetList(t *testing.T) {
	reg := NewCircuitBreakerRegistry(nil)

	cb, err := NewCircuitBreaker("orders-api", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker: %v", err)
	}

	reg.Register(cb)

	got, ok := reg.Get("orders-api")
	if !ok || got != cb {
		t.Fatalf("Get(orders-api) = %v, %v", got, ok)
	}

	if list := reg.List(); len(list) != 1 || list[0] != "orders-api" {
		t.Fatalf("List() = %v, want [orders-api]", list)
	}
}

func TestCircuitBreakerRegistryGetMissing(t *testing.T) {
	reg := NewCircuitBreakerRegistry(nil)

	if _, ok := reg.Get("nope"); ok {
		t.Fatal("Get on an unregistered name should report false")
	}
}

func TestCircuitBreakerRegistryResetClearsOpenBreaker(t *testing.T) {
	reg := NewCircuitBreakerRegistry(nil)

	cb, err := NewCircuitBreaker("orders-api", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker: %v", err)
	}
	reg.Register(cb)

	boom := errors.New("boom")
	_, _ = DoCircuitBreaker(context.Background(), cb, func(context.Context) (int, error) { return 0, boom })

	if cb.State() != "open" {
		t.Fatalf("State() = %q, want open", cb.State())
	}

	if !reg.Reset("orders-api") {
		t.Fatal("Reset(orders-api) should report true")
	}
	if cb.State() != "closed" {
		t.Fatalf("State() = %q, want closed after Reset", cb.State())
	}
}

func TestCircuitBreakerRegistryResetMissingReportsFalse(t *testing.T) {
	reg := NewCircuitBreakerRegistry(nil)

	if reg.Reset("nope") {
		t.Fatal("Reset on an unregistered name should report false")
	}
}

func TestCircuitBreakerRegistryReRegisterReplaces(t *testing.T) {
	reg := NewCircuitBreakerRegistry(nil)

	first, err := NewCircuitBreaker("orders-api", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Minute}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker: %v", err)
	}
	second, err := NewCircuitBreaker("orders-api", CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute}, RealClock{}, NopSink{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker: %v", err)
	}

	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("orders-api")
	if !ok || got != second {
		t.Fatal("re-registering under the same name should replace the prior breaker")
	}
}
