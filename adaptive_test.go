package ninelives

import (
	"sync"
	"testing"
)

func TestAdaptiveReadReturnsInitialValue(t *testing.T) {
	a := NewAdaptive(RetryConfig{MaxAttempts: 3})
	if got := a.Read().MaxAttempts; got != 3 {
		t.Fatalf("Read().MaxAttempts = %d, want 3", got)
	}
}

func TestAdaptiveWriteReplacesSnapshot(t *testing.T) {
	a := NewAdaptive(RetryConfig{MaxAttempts: 3})

	snapshot := a.Read()

	a.Write(RetryConfig{MaxAttempts: 9})

	if got := a.Read().MaxAttempts; got != 9 {
		t.Fatalf("Read().MaxAttempts = %d, want 9 after Write", got)
	}
	if snapshot.MaxAttempts != 3 {
		t.Fatal("a prior snapshot must not be mutated by a later Write")
	}
}

func TestAdaptiveConcurrentReadWrite(t *testing.T) {
	a := NewAdaptive(BulkheadConfig{Capacity: 1})

	var wg sync.WaitGroup
	for i := int64(2); i < 50; i++ {
		wg.Add(1)
		go func(capacity int64) {
			defer wg.Done()
			a.Write(BulkheadConfig{Capacity: capacity})
		}(i)
	}
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Read().Capacity
		}()
	}
	wg.Wait()

	if a.Read().Capacity < 1 {
		t.Fatal("final snapshot should be one of the written values")
	}
}
