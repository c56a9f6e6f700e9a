package score

import (
	"context"
	"fmt"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/dedupe"
	"github.com/zhaidewei/active-info-daily/internal/llm"
)

const modelPrompt = `You are scoring a news/signal item for a daily investment research briefing.

Item Title: %s
Source: %s
Category: %s
Content:
%s

Rate the item on each dimension from 0 to 10:
- positivity: opportunity signal vs. negative-news noise
- incrementality: how much genuinely new information it carries
- novelty: how unexpected the development is
- investability: how actionable it is for an investor
- verifiability: how well the claim can be checked against primary sources

Respond with ONLY this JSON:
{
    "positivity": 0-10,
    "incrementality": 0-10,
    "novelty": 0-10,
    "investability": 0-10,
    "verifiability": 0-10
}`

// rubricDimensions is the fixed scoring rubric. Every dimension must be
// present and within [0, dimensionMax] or the result is rejected.
var rubricDimensions = []string{"positivity", "incrementality", "novelty", "investability", "verifiability"}

const dimensionMax = 10.0

// Model delegates scoring to an external judgment provider. One bounded
// blocking call per group; any failure surfaces as an error so the
// fallback scorer can take over for that item alone.
type Model struct {
	provider  llm.Provider
	timeout   time.Duration
	maxTokens int
}

// NewModel creates a model scorer over a provider.
func NewModel(provider llm.Provider, timeout time.Duration, maxTokens int) *Model {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Model{provider: provider, timeout: timeout, maxTokens: maxTokens}
}

// Score sends the group representative to the provider and combines the
// rubric dimensions into one scalar (their mean).
func (m *Model) Score(ctx context.Context, group dedupe.Group) (Breakdown, error) {
	if m.provider == nil {
		return Breakdown{}, fmt.Errorf("no judgment provider configured")
	}

	rep := group.Rep
	content := rep.Summary
	if content == "" {
		content = rep.Title
	}
	if len(content) > 4000 {
		content = content[:4000] + "..."
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	prompt := fmt.Sprintf(modelPrompt, rep.Title, rep.Source, rep.Category, content)
	responseText, err := m.provider.Generate(callCtx, prompt, m.maxTokens)
	if err != nil {
		return Breakdown{}, fmt.Errorf("judgment call: %w", err)
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return Breakdown{}, fmt.Errorf("unparseable judgment response")
	}

	dims := make(map[string]float64, len(rubricDimensions))
	sum := 0.0
	for _, name := range rubricDimensions {
		v, ok := llm.GetFloat(parsed, name)
		if !ok {
			return Breakdown{}, fmt.Errorf("judgment response missing dimension %q", name)
		}
		if v < 0 || v > dimensionMax {
			return Breakdown{}, fmt.Errorf("dimension %q out of range: %v", name, v)
		}
		dims[name] = v
		sum += v
	}

	return Breakdown{
		Strategy:   StrategyModel,
		Dimensions: dims,
		Final:      sum / float64(len(rubricDimensions)),
	}, nil
}
