package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := Parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("embedded default config must parse: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("default config should define feeds")
	}
	if cfg.Dedupe.SimilarityThreshold != 0.8 {
		t.Errorf("similarity threshold = %v, want 0.8", cfg.Dedupe.SimilarityThreshold)
	}
	if cfg.Novelty.RepeatPenalty != 1.2 {
		t.Errorf("repeat penalty = %v, want 1.2", cfg.Novelty.RepeatPenalty)
	}
	if len(cfg.Scoring.PositiveKeywords) == 0 || len(cfg.Scoring.NegativeKeywords) == 0 {
		t.Error("default config should define keyword weights")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("sources:\n  feeds: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Report.TopK != 15 {
		t.Errorf("top_k default = %d, want 15", cfg.Report.TopK)
	}
	if cfg.Novelty.LookbackReports != 2 {
		t.Errorf("lookback default = %d, want 2", cfg.Novelty.LookbackReports)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port default = %d, want 8000", cfg.Server.Port)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("report:\n  top_k: 5\nnovelty:\n  repeat_penalty: 1.5\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Report.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Report.TopK)
	}
	if cfg.Novelty.RepeatPenalty != 1.5 {
		t.Errorf("repeat_penalty = %v, want 1.5", cfg.Novelty.RepeatPenalty)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"threshold", "dedupe:\n  similarity_threshold: 1.5\n", "similarity_threshold"},
		{"penalty not above one", "novelty:\n  repeat_penalty: 1.0\n", "repeat_penalty"},
		{"negative lookback", "novelty:\n  lookback_reports: -1\n", "lookback_reports"},
		{"negative front cap", "novelty:\n  max_reused_items_in_front: -2\n", "max_reused_items_in_front"},
		{"negative top_k", "report:\n  top_k: -1\n", "top_k"},
		{"zero timeout", "model:\n  timeout_seconds: 0\n", "timeout_seconds"},
		{"zero workers", "model:\n  workers: 0\n", "workers"},
		{"empty keyword term", "scoring:\n  positive_keywords:\n    - term: \"\"\n      weight: 1.0\n", "empty term"},
		{"negative keyword weight", "scoring:\n  positive_keywords:\n    - term: funding\n      weight: -1.0\n", "positive weight"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("sources: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Report.MaxItems != 80 {
		t.Errorf("max_items = %d, want 80", cfg.Report.MaxItems)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("data dir must never be empty")
	}

	cfg.Output.DataDir = "/tmp/custom"
	if got := cfg.GetDataDir(); got != "/tmp/custom" {
		t.Errorf("explicit data dir = %q", got)
	}
}

func TestGetReportDir(t *testing.T) {
	cfg := &Config{}
	cfg.Output.DataDir = "/tmp/custom"
	if got := cfg.GetReportDir(); got != filepath.Join("/tmp/custom", "reports") {
		t.Errorf("default report dir = %q", got)
	}

	cfg.Output.ReportDir = "/tmp/reports"
	if got := cfg.GetReportDir(); got != "/tmp/reports" {
		t.Errorf("explicit report dir = %q", got)
	}
}
