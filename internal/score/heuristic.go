package score

import (
	"context"
	"strings"

	"github.com/zhaidewei/active-info-daily/internal/config"
	"github.com/zhaidewei/active-info-daily/internal/dedupe"
)

// Heuristic is the keyword rule scorer. It is pure and deterministic:
// the same group and config always produce the same breakdown, which
// makes it the universal fallback for every other strategy.
type Heuristic struct {
	base           float64
	floor          float64
	baseCategories map[string]bool
	positive       []config.WeightedKeyword
	negative       []config.WeightedKeyword
}

// NewHeuristic creates a heuristic scorer from the scoring config.
func NewHeuristic(cfg config.Scoring) *Heuristic {
	cats := make(map[string]bool, len(cfg.BaseCategories))
	for _, c := range cfg.BaseCategories {
		cats[c] = true
	}
	return &Heuristic{
		base:           cfg.BaseScore,
		floor:          cfg.ScoreFloor,
		baseCategories: cats,
		positive:       cfg.PositiveKeywords,
		negative:       cfg.NegativeKeywords,
	}
}

// Score applies the keyword rules to the group representative's title,
// summary, and category. Negative terms subtract so that bad-news items
// do not crowd out opportunity signals; the result never drops below the
// configured floor.
func (h *Heuristic) Score(_ context.Context, group dedupe.Group) (Breakdown, error) {
	rep := group.Rep
	blob := strings.ToLower(rep.Title + " " + rep.Summary + " " + rep.Category)

	b := Breakdown{Strategy: StrategyHeuristic}
	if len(h.baseCategories) == 0 || h.baseCategories[rep.Category] {
		b.Base = h.base
	}

	total := b.Base
	for _, kw := range h.positive {
		if strings.Contains(blob, strings.ToLower(kw.Term)) {
			b.Matches = append(b.Matches, KeywordMatch{Term: kw.Term, Weight: kw.Weight})
			total += kw.Weight
		}
	}
	for _, kw := range h.negative {
		if strings.Contains(blob, strings.ToLower(kw.Term)) {
			b.Matches = append(b.Matches, KeywordMatch{Term: kw.Term, Weight: -kw.Weight})
			total -= kw.Weight
		}
	}

	if total < h.floor {
		total = h.floor
	}
	b.Final = total
	return b, nil
}
