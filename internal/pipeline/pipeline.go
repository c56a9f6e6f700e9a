// Package pipeline orchestrates a full report run: collect, merge,
// score, adjust for novelty, rank, analyze and store.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/analyze"
	"github.com/zhaidewei/active-info-daily/internal/config"
	"github.com/zhaidewei/active-info-daily/internal/database"
	"github.com/zhaidewei/active-info-daily/internal/dedupe"
	"github.com/zhaidewei/active-info-daily/internal/enrich"
	"github.com/zhaidewei/active-info-daily/internal/feeds"
	"github.com/zhaidewei/active-info-daily/internal/llm"
	"github.com/zhaidewei/active-info-daily/internal/novelty"
	"github.com/zhaidewei/active-info-daily/internal/rank"
	"github.com/zhaidewei/active-info-daily/internal/report"
	"github.com/zhaidewei/active-info-daily/internal/score"
	"github.com/zhaidewei/active-info-daily/internal/trends"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	ReportDate string
	Steps      []StepResult
}

// Pipeline orchestrates the report generation steps.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
}

// New creates a new pipeline. The provider is only probed when model
// scoring is enabled; everything else runs fully offline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	var provider llm.Provider
	if cfg.Model.Enabled {
		provider = llm.CreateProvider(cfg.Model)
	}
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
	}
}

// Run executes the full pipeline for a report date, fetching fresh
// items from all configured sources.
func (p *Pipeline) Run(ctx context.Context, dateKey string) *Result {
	log.Println("Step 1/6: Collecting items...")
	collector := feeds.NewCollector(p.cfg)
	items := collector.CollectAll()

	r := &Result{ReportDate: dateKey}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Downloaded %d items from configured sources", len(items)),
	})

	if path, err := feeds.WriteSnapshot(p.dataDir(), dateKey, items); err != nil {
		log.Printf("Snapshot not written: %v", err)
	} else {
		log.Printf("Snapshot written to %s", path)
	}

	return p.process(ctx, dateKey, items, r)
}

// RunFromSnapshot executes the pipeline against a previously written
// snapshot instead of fetching.
func (p *Pipeline) RunFromSnapshot(ctx context.Context, dateKey string) (*Result, error) {
	items, err := feeds.ReadSnapshot(p.dataDir(), dateKey)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s: %w", dateKey, err)
	}

	r := &Result{ReportDate: dateKey}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Loaded %d items from snapshot", len(items)),
	})
	return p.process(ctx, dateKey, items, r), nil
}

func (p *Pipeline) process(ctx context.Context, dateKey string, items []feeds.Item, r *Result) *Result {
	totalDownloaded := len(items)

	// Step 2: Merge duplicates
	log.Println("Step 2/6: Merging duplicates...")
	merger := dedupe.NewMerger(p.cfg.Dedupe.SimilarityThreshold, p.cfg.Sources.Priority)
	groups, stats := merger.Merge(items)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Merge",
		Summary: fmt.Sprintf("%d raw items, %d unique, %d duplicates merged", stats.RawItems, stats.UniqueItems, stats.DuplicatesRemoved),
	})

	// Step 3: Score
	log.Println("Step 3/6: Scoring...")
	scored, err := score.All(ctx, p.scorer(), groups, p.workers())
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Score", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Scored %d groups (%s)", len(scored), p.strategyLabel()),
	})

	// Step 4: Trends and novelty
	log.Println("Step 4/6: Applying trend resonance and novelty...")
	trendRows := trends.Apply(scored)

	signatures, err := p.db.RecentSignatures(p.cfg.Novelty.LookbackReports, dateKey)
	if err != nil {
		log.Printf("History unavailable, skipping repeat detection: %v", err)
		signatures = nil
	}
	groups = merger.FlagRepeats(groupsOf(scored), signatures)
	for i := range scored {
		scored[i].Group = groups[i]
	}

	adjuster := novelty.NewAdjuster(p.cfg.Novelty.RepeatPenalty, p.cfg.Novelty.MaxReusedInFront)
	scored = adjuster.Apply(scored)

	repeats := 0
	for _, s := range scored {
		if s.Group.Repeated {
			repeats++
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Novelty",
		Summary: fmt.Sprintf("%d themes resonating, %d repeated items down-weighted", len(trendRows), repeats),
	})

	// Step 5: Rank and analyze
	log.Println("Step 5/6: Ranking and analyzing...")
	for source, limit := range p.cfg.Report.SourceCaps {
		scored = rank.CapSource(scored, source, limit)
	}
	if max := p.cfg.Report.MaxItems; max > 0 && len(scored) > max {
		scored = scored[:max]
	}
	ranked := rank.Select(scored, p.cfg.Report.TopK)

	shortlist := ranked
	if n := p.cfg.Report.Shortlist; n > 0 && len(shortlist) > n {
		shortlist = shortlist[:n]
	}
	enricher := enrich.NewEnricher(15 * time.Second)
	shortlist = enricher.Shortlist(ctx, shortlist)

	// Enrichment and analysis degrade quietly on per-item failures, so
	// a cancelled run has to be caught here or a partial report would
	// slip through to storage.
	if err := ctx.Err(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Err: err})
		return r
	}

	analyzer := analyze.NewAnalyzer(p.provider)
	analysis := analyzer.Analyze(ctx, dateKey, shortlist)
	earnings := analyze.EarningsRadar(ranked)
	powerFocus := powerFocusItems(ranked)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("Ranked %d items, analyzed shortlist of %d", len(ranked), len(shortlist)),
	})

	// Step 6: Render and store
	log.Println("Step 6/6: Rendering report...")
	if err := ctx.Err(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}
	input := report.Input{
		ReportDate:      dateKey,
		GeneratedAt:     time.Now(),
		TotalDownloaded: totalDownloaded,
		Stats:           stats,
		Items:           ranked,
		TrendRows:       trendRows,
		Analysis:        analysis,
		PowerFocus:      powerFocus,
		Earnings:        earnings,
	}
	markdown := report.BuildMarkdown(input)
	jsonContent, err := report.BuildJSON(input)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}

	if err := p.db.UpsertReport(database.Report{
		ReportDate:  dateKey,
		TotalItems:  len(ranked),
		Markdown:    markdown,
		JSONContent: jsonContent,
	}, reportItems(dateKey, ranked)); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}

	mdPath, _, err := report.WriteFiles(p.reportDir(), dateKey, markdown, jsonContent)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Report for %s stored with %d items (%s)", dateKey, len(ranked), mdPath),
	})
	return r
}

// scorer returns the configured scorer. The model scorer always wraps
// the heuristic so a provider failure never drops an item.
func (p *Pipeline) scorer() score.Scorer {
	heuristic := score.NewHeuristic(p.cfg.Scoring)
	if !p.cfg.Model.Enabled || p.provider == nil {
		return heuristic
	}
	timeout := time.Duration(p.cfg.Model.TimeoutSeconds * float64(time.Second))
	return score.NewFallback(score.NewModel(p.provider, timeout, p.cfg.Model.MaxTokens), heuristic)
}

func (p *Pipeline) strategyLabel() string {
	if p.cfg.Model.Enabled && p.provider != nil {
		return "model with heuristic fallback"
	}
	return "heuristic"
}

func (p *Pipeline) workers() int {
	if p.cfg.Model.Enabled && p.provider != nil {
		return p.cfg.Model.Workers
	}
	return 1
}

func (p *Pipeline) dataDir() string {
	if p.cfg.Output.DataDir != "" {
		return p.cfg.Output.DataDir
	}
	return config.DataDir()
}

func (p *Pipeline) reportDir() string {
	return p.cfg.GetReportDir()
}

// powerFocusItems pulls the power market items out of the ranking for
// their own report section.
func powerFocusItems(ranked []rank.RankedItem) []rank.RankedItem {
	var focus []rank.RankedItem
	for _, item := range ranked {
		if item.Group.Rep.Category != "power_trading" {
			continue
		}
		focus = append(focus, item)
		if len(focus) >= 8 {
			break
		}
	}
	return focus
}

func groupsOf(scored []score.Scored) []dedupe.Group {
	groups := make([]dedupe.Group, len(scored))
	for i, s := range scored {
		groups[i] = s.Group
	}
	return groups
}

func reportItems(dateKey string, ranked []rank.RankedItem) []database.ReportItem {
	items := make([]database.ReportItem, 0, len(ranked))
	for _, item := range ranked {
		rep := item.Group.Rep
		items = append(items, database.ReportItem{
			ReportDate:  dateKey,
			Rank:        item.Rank,
			URLKey:      item.Group.Key.URLKey,
			Fingerprint: item.Group.Key.Fingerprint,
			Title:       rep.Title,
			URL:         rep.URL,
			Source:      rep.Source,
			Score:       item.FinalScore,
			Strategy:    string(item.Breakdown.Strategy),
			Repeated:    item.Group.Repeated,
		})
	}
	return items
}
