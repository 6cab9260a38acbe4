package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_Empty(t *testing.T) {
	called := false
	results := Map(context.Background(), []int{}, 2, func(ctx context.Context, i int, item int) int {
		called = true
		return item
	})

	if len(results) != 0 {
		t.Errorf("expected empty result, got %d entries", len(results))
	}
	if called {
		t.Error("worker must not be invoked for zero items")
	}
}

func TestMap_OrderMatchesInput(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	results := Map(context.Background(), items, 2, func(ctx context.Context, i int, item string) string {
		// Finish out of order on purpose.
		time.Sleep(time.Duration(len(items)-i) * 10 * time.Millisecond)
		return fmt.Sprintf("%d:%s", i, item)
	})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, item := range items {
		want := fmt.Sprintf("%d:%s", i, item)
		if results[i] != want {
			t.Errorf("slot %d: expected %q, got %q", i, want, results[i])
		}
	}
}

func TestMap_ConcurrencyLimit(t *testing.T) {
	var active, peak int32
	var mu sync.Mutex

	Map(context.Background(), []int{0, 1, 2, 3, 4}, 2, func(ctx context.Context, i int, item int) int {
		n := atomic.AddInt32(&active, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return item
	})

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent workers, observed %d", peak)
	}
}

func TestMap_WorkerFailureDoesNotAbortSiblings(t *testing.T) {
	var executed int32

	type out struct{ err error }
	results := Map(context.Background(), []int{0, 1, 2, 3}, 2, func(ctx context.Context, i int, item int) out {
		atomic.AddInt32(&executed, 1)
		if item == 1 {
			return out{err: fmt.Errorf("boom")}
		}
		return out{}
	})

	if atomic.LoadInt32(&executed) != 4 {
		t.Errorf("expected all 4 workers to run, got %d", executed)
	}
	if results[1].err == nil {
		t.Error("expected failure to be preserved in its slot")
	}
	if results[0].err != nil || results[2].err != nil || results[3].err != nil {
		t.Error("sibling results must be unaffected by one failure")
	}
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Map(ctx, []int{1, 2, 3}, 1, func(ctx context.Context, i int, item int) int {
		return item * 10
	})

	// Slots for tasks that never ran stay at the zero value.
	if len(results) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(results))
	}
}

func TestJitter_RespectsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Jitter(ctx, time.Minute)
	if time.Since(start) > time.Second {
		t.Error("jitter must return promptly when the context is cancelled")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)

	if err := l.Wait(context.Background(), "https://example.com/racecards"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same host reuses the same limiter.
	if got := l.forHost("example.com"); got != l.forHost("example.com") {
		t.Error("expected one limiter per host")
	}
}
