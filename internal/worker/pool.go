package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Task processes the item at the given input index and returns its
// result. Tasks that can fail are expected to fold the failure into R;
// Map itself never inspects results.
type Task[T, R any] func(ctx context.Context, index int, item T) R

// Map runs task over every item with at most limit tasks in flight and
// returns results positioned to match the input order regardless of
// completion order. Each task owns the slot at its own index, so no
// locking is needed around the result slice.
func Map[T, R any](ctx context.Context, items []T, limit int, task Task[T, R]) []R {
	if len(items) == 0 {
		return []R{}
	}
	if limit <= 0 {
		limit = 1
	}

	results := make([]R, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			results[idx] = task(ctx, idx, it)
		}(i, item)
	}

	wg.Wait()
	return results
}

// Jitter sleeps for a random duration in [0, max), used to stagger task
// start times so navigations do not hit the site in a burst. It returns
// early if the context is cancelled.
func Jitter(ctx context.Context, max time.Duration) {
	if max <= 0 {
		return
	}
	d := time.Duration(rand.Int63n(int64(max)))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
