// Package rank produces the final report-ready sequence. Consumers may
// filter or paginate the result but must not re-rank it.
package rank

import (
	"github.com/zhaidewei/active-info-daily/internal/dedupe"
	"github.com/zhaidewei/active-info-daily/internal/score"
)

// RankedItem is the terminal output of the engine for one event.
type RankedItem struct {
	Rank       int
	Group      dedupe.Group
	Breakdown  score.Breakdown
	FinalScore float64
}

// CapSource limits how many items of one source survive, preserving
// order. A negative limit means unlimited.
func CapSource(items []score.Scored, source string, limit int) []score.Scored {
	if limit < 0 {
		return items
	}
	kept := make([]score.Scored, 0, len(items))
	count := 0
	for _, item := range items {
		if item.Group.Rep.Source == source {
			if count >= limit {
				continue
			}
			count++
		}
		kept = append(kept, item)
	}
	return kept
}

// Select applies the top-K bound (0 = unbounded) and assigns rank
// positions starting at 1. Input order is already final.
func Select(items []score.Scored, topK int) []RankedItem {
	n := len(items)
	if topK > 0 && topK < n {
		n = topK
	}

	ranked := make([]RankedItem, n)
	for i := 0; i < n; i++ {
		ranked[i] = RankedItem{
			Rank:       i + 1,
			Group:      items[i].Group,
			Breakdown:  items[i].Breakdown,
			FinalScore: items[i].Adjusted,
		}
	}
	return ranked
}
