// Package novelty suppresses repetition across successive reports.
// Items that already appeared in the lookback window are penalized
// multiplicatively and bounded out of the front of the ranking.
package novelty

import (
	"sort"

	"github.com/zhaidewei/active-info-daily/internal/score"
)

// Adjuster applies the repeat penalty and the front-of-list cap.
type Adjuster struct {
	penalty          float64
	maxReusedInFront int
}

// NewAdjuster creates an adjuster. penalty must be > 1 (validated by
// config); maxReusedInFront bounds how many repeated items may precede
// any non-repeated one.
func NewAdjuster(penalty float64, maxReusedInFront int) *Adjuster {
	return &Adjuster{penalty: penalty, maxReusedInFront: maxReusedInFront}
}

// Apply penalizes repeated items, re-sorts by adjusted score, then
// demotes repeats beyond the front cap below all remaining non-repeated
// items while preserving their relative order. The multiplicative
// penalty keeps the adjustment monotonic: a strong enough repeat can
// still outrank a weak fresh item.
func (a *Adjuster) Apply(items []score.Scored) []score.Scored {
	if len(items) == 0 {
		return nil
	}

	out := make([]score.Scored, len(items))
	copy(out, items)

	for i := range out {
		if out[i].Group.Repeated {
			out[i].Adjusted /= a.penalty
		}
	}

	sortByAdjusted(out)

	// Sweep from the front; once the cap is hit, remaining repeats are
	// reinserted after all non-repeated items in their existing order.
	kept := make([]score.Scored, 0, len(out))
	var overflow []score.Scored
	repeats := 0
	for _, item := range out {
		if item.Group.Repeated {
			if repeats >= a.maxReusedInFront {
				overflow = append(overflow, item)
				continue
			}
			repeats++
		}
		kept = append(kept, item)
	}

	return append(kept, overflow...)
}

// sortByAdjusted orders by adjusted score descending with reproducible
// tie-breaks: representative publication time, then canonical key.
func sortByAdjusted(items []score.Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Adjusted != b.Adjusted {
			return a.Adjusted > b.Adjusted
		}

		at, bt := a.Group.Rep.PublishedAt, b.Group.Rep.PublishedAt
		switch {
		case at != nil && bt == nil:
			return true
		case at == nil && bt != nil:
			return false
		case at != nil && bt != nil && !at.Equal(*bt):
			return at.Before(*bt)
		}

		if a.Group.Key.URLKey != b.Group.Key.URLKey {
			return a.Group.Key.URLKey < b.Group.Key.URLKey
		}
		return a.Group.Key.Fingerprint < b.Group.Key.Fingerprint
	})
}
