package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGateSpacesCalls(t *testing.T) {
	interval := 40 * time.Millisecond
	g := NewGate(interval)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Do(ctx, func() error { return nil }); err != nil {
			t.Fatalf("do: %v", err)
		}
	}
	// First call consumes the burst token; the next two each wait a full interval.
	if elapsed := time.Since(start); elapsed < 2*interval-5*time.Millisecond {
		t.Fatalf("three calls finished in %v, want >= %v", elapsed, 2*interval)
	}
}

func TestGateSequencesConcurrentCallers(t *testing.T) {
	g := NewGate(10 * time.Millisecond)
	ctx := context.Background()

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(ctx, func() error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("gate admitted %d concurrent calls, want 1", maxInFlight)
	}
}

func TestGateContextCancel(t *testing.T) {
	g := NewGate(time.Hour)
	ctx := context.Background()

	// Use the burst token.
	if err := g.Do(ctx, func() error { return nil }); err != nil {
		t.Fatalf("first do: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := g.Do(cctx, func() error { return nil }); err == nil {
		t.Fatalf("expected context error while waiting for interval")
	}
}

func TestDailyBudget(t *testing.T) {
	b := NewDailyBudget(2)
	if !b.Allow() || !b.Allow() {
		t.Fatalf("first two calls should pass")
	}
	if b.Allow() {
		t.Fatalf("third call should be rejected")
	}
	if r := b.Remaining(); r != 0 {
		t.Fatalf("remaining = %d, want 0", r)
	}
}

func TestDailyBudgetUnlimited(t *testing.T) {
	b := NewDailyBudget(0)
	for i := 0; i < 100; i++ {
		if !b.Allow() {
			t.Fatalf("unlimited budget rejected call %d", i)
		}
	}
}
