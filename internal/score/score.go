// Package score ranks item groups by judgment quality. Two strategies
// sit behind one contract: a deterministic keyword heuristic and an LLM
// rubric scorer that falls back to the heuristic per item on any failure.
package score

import (
	"context"

	"github.com/zhaidewei/active-info-daily/internal/dedupe"
)

// Strategy names which scorer produced a breakdown.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyModel     Strategy = "model"
)

// KeywordMatch is one additive heuristic contribution.
type KeywordMatch struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Breakdown explains a final score. Heuristic scores carry the keyword
// matches; model scores carry the rubric dimensions. Final is always the
// single resolved scalar.
type Breakdown struct {
	Strategy   Strategy           `json:"strategy"`
	Base       float64            `json:"base,omitempty"`
	Matches    []KeywordMatch     `json:"matches,omitempty"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
	Final      float64            `json:"final"`
}

// Scorer scores one merged item group.
type Scorer interface {
	Score(ctx context.Context, group dedupe.Group) (Breakdown, error)
}

// Scored pairs a group with its breakdown. Adjusted starts at the raw
// final score; trend resonance and the novelty penalty revise it.
type Scored struct {
	Group     dedupe.Group
	Breakdown Breakdown
	Adjusted  float64
}
