package score

import (
	"context"
	"log"
	"sync"

	"github.com/zhaidewei/active-info-daily/internal/dedupe"
)

// Fallback wraps a primary scorer with the heuristic. A primary failure
// on one item falls back for that item only and is logged as a degraded
// signal, never silently.
type Fallback struct {
	primary  Scorer
	fallback *Heuristic
}

// NewFallback creates the fallback wrapper.
func NewFallback(primary Scorer, fallback *Heuristic) *Fallback {
	return &Fallback{primary: primary, fallback: fallback}
}

// Score tries the primary strategy, then the heuristic.
func (f *Fallback) Score(ctx context.Context, group dedupe.Group) (Breakdown, error) {
	b, err := f.primary.Score(ctx, group)
	if err == nil {
		return b, nil
	}
	if ctx.Err() != nil {
		// A cancelled run produces no scores at all.
		return Breakdown{}, ctx.Err()
	}
	log.Printf("Model scoring degraded to heuristic for %q: %v", group.Rep.Title, err)
	return f.fallback.Score(ctx, group)
}

// All scores every group with a bounded worker pool. Results keep input
// order. Scoring stops and returns the context error on cancellation;
// any other per-item error has already been absorbed by the scorer's
// fallback policy.
func All(ctx context.Context, scorer Scorer, groups []dedupe.Group, workers int) ([]Scored, error) {
	if workers < 1 {
		workers = 1
	}
	if len(groups) == 0 {
		return nil, nil
	}

	results := make([]Scored, len(groups))
	indices := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				b, err := scorer.Score(ctx, groups[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[i] = Scored{Group: groups[i], Breakdown: b, Adjusted: b.Final}
			}
		}()
	}

	for i := range groups {
		select {
		case indices <- i:
		case <-ctx.Done():
			close(indices)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
