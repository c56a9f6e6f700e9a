package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources Sources `yaml:"sources"`
	Dedupe  Dedupe  `yaml:"dedupe"`
	Scoring Scoring `yaml:"scoring"`
	Novelty Novelty `yaml:"novelty"`
	Model   Model   `yaml:"model"`
	Report  Report  `yaml:"report"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
}

type Sources struct {
	Feeds      []Feed     `yaml:"feeds"`
	Polymarket Polymarket `yaml:"polymarket"`
	SEC        SEC        `yaml:"sec_filings"`
	// Priority breaks representative ties when duplicate items come
	// from different sources. Earlier entries win.
	Priority []string `yaml:"priority"`
}

type Feed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type Polymarket struct {
	Enabled   bool    `yaml:"enabled"`
	Limit     int     `yaml:"limit"`
	MinVolume float64 `yaml:"min_volume"`
}

type SEC struct {
	Enabled        bool     `yaml:"enabled"`
	Tickers        []string `yaml:"tickers"`
	Forms          []string `yaml:"forms"`
	LookbackDays   int      `yaml:"lookback_days"`
	PerTickerLimit int      `yaml:"per_ticker_limit"`
	UserAgent      string   `yaml:"user_agent"`
}

type Dedupe struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// WeightedKeyword is one scoring rule: a case-insensitive term and the
// weight it contributes when found in an item's title or summary.
type WeightedKeyword struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

type Scoring struct {
	BaseScore        float64           `yaml:"base_score"`
	ScoreFloor       float64           `yaml:"score_floor"`
	BaseCategories   []string          `yaml:"base_categories"`
	PositiveKeywords []WeightedKeyword `yaml:"positive_keywords"`
	NegativeKeywords []WeightedKeyword `yaml:"negative_keywords"`
}

type Novelty struct {
	LookbackReports  int     `yaml:"lookback_reports"`
	RepeatPenalty    float64 `yaml:"repeat_penalty"`
	MaxReusedInFront int     `yaml:"max_reused_items_in_front"`
}

type Model struct {
	Enabled        bool    `yaml:"enabled"`
	Provider       string  `yaml:"provider"`
	OllamaModel    string  `yaml:"ollama_model"`
	OllamaURL      string  `yaml:"ollama_url"`
	OpenAIModel    string  `yaml:"openai_model"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	MaxTokens      int     `yaml:"max_tokens"`
	Workers        int     `yaml:"workers"`
}

type Report struct {
	TopK       int            `yaml:"top_k"`
	MaxItems   int            `yaml:"max_items"`
	Shortlist  int            `yaml:"shortlist"`
	SourceCaps map[string]int `yaml:"source_caps"`
}

type Output struct {
	DataDir   string `yaml:"data_dir"`
	ReportDir string `yaml:"report_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for activeinfo.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "activeinfo")
}

// DataDir returns the XDG data directory for activeinfo.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "activeinfo")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/activeinfo/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'activeinfo init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses, and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Config, applying defaults and
// validating before anything downstream runs.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Sources: Sources{
			Polymarket: Polymarket{Limit: 40, MinVolume: 20000},
			SEC: SEC{
				Forms:          []string{"10-Q", "10-K", "8-K"},
				LookbackDays:   45,
				PerTickerLimit: 4,
				UserAgent:      "active-info-daily local-research contact@example.com",
			},
		},
		Dedupe: Dedupe{SimilarityThreshold: 0.8},
		Scoring: Scoring{
			BaseScore:  1.0,
			ScoreFloor: 0.0,
		},
		Novelty: Novelty{
			LookbackReports:  2,
			RepeatPenalty:    1.2,
			MaxReusedInFront: 3,
		},
		Model: Model{
			Provider:       "ollama",
			OllamaModel:    "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o-mini",
			OpenAIBaseURL:  "https://api.openai.com",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 20,
			MaxTokens:      512,
			Workers:        4,
		},
		Report: Report{
			TopK:      15,
			MaxItems:  80,
			Shortlist: 25,
			SourceCaps: map[string]int{
				"SEC Filing": 5,
			},
		},
		Server: Server{Port: 8000},
	}
}

// Validate checks every engine knob and fails fast on the first invalid
// value. A config error is fatal before any processing begins.
func (c *Config) Validate() error {
	if t := c.Dedupe.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("config: dedupe.similarity_threshold must be in [0,1], got %v", t)
	}
	if c.Novelty.LookbackReports < 0 {
		return fmt.Errorf("config: novelty.lookback_reports must be >= 0, got %d", c.Novelty.LookbackReports)
	}
	if c.Novelty.RepeatPenalty <= 1 {
		return fmt.Errorf("config: novelty.repeat_penalty must be > 1, got %v", c.Novelty.RepeatPenalty)
	}
	if c.Novelty.MaxReusedInFront < 0 {
		return fmt.Errorf("config: novelty.max_reused_items_in_front must be >= 0, got %d", c.Novelty.MaxReusedInFront)
	}
	if c.Report.TopK < 0 {
		return fmt.Errorf("config: report.top_k must be >= 0 (0 = unbounded), got %d", c.Report.TopK)
	}
	if c.Model.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: model.timeout_seconds must be > 0, got %v", c.Model.TimeoutSeconds)
	}
	if c.Model.Workers < 1 {
		return fmt.Errorf("config: model.workers must be >= 1, got %d", c.Model.Workers)
	}
	for _, kw := range c.Scoring.PositiveKeywords {
		if kw.Term == "" {
			return fmt.Errorf("config: scoring.positive_keywords entry with empty term")
		}
		if kw.Weight <= 0 {
			return fmt.Errorf("config: positive keyword %q must carry a positive weight, got %v", kw.Term, kw.Weight)
		}
	}
	for _, kw := range c.Scoring.NegativeKeywords {
		if kw.Term == "" {
			return fmt.Errorf("config: scoring.negative_keywords entry with empty term")
		}
		if kw.Weight <= 0 {
			return fmt.Errorf("config: negative keyword %q weight is a positive magnitude, got %v", kw.Term, kw.Weight)
		}
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetReportDir returns where rendered report files are written. It
// defaults to a reports/ directory under the data directory.
func (c *Config) GetReportDir() string {
	if c.Output.ReportDir != "" {
		return c.Output.ReportDir
	}
	return filepath.Join(c.GetDataDir(), "reports")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
