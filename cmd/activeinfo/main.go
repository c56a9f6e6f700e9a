package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/zhaidewei/active-info-daily/internal/config"
	"github.com/zhaidewei/active-info-daily/internal/database"
	"github.com/zhaidewei/active-info-daily/internal/feeds"
	"github.com/zhaidewei/active-info-daily/internal/pipeline"
	"github.com/zhaidewei/active-info-daily/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "activeinfo",
	Short:   "Daily investment signal reports",
	Long:    "activeinfo collects news and market data, merges duplicates, scores items by opportunity, and ranks them into a daily report.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("activeinfo", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/activeinfo/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, keyword weights, and the model scorer.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.Today())
		fmt.Println("Reports:")
		fmt.Printf("  Stored: %d\n", stats.Reports)
		fmt.Printf("  Ranked items: %d\n", stats.ReportItems)
		if stats.LastReport != "" {
			fmt.Printf("  Most recent: %s\n", stats.LastReport)
		} else {
			fmt.Println("  Most recent: none")
		}
		fmt.Printf("\nDatabase: %s\n", db.Path())
		return nil
	},
}

// --- fetch command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect items from configured sources and write a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		dateKey := database.Today()
		fmt.Println("Collecting items from sources...")

		collector := feeds.NewCollector(cfg)
		items := collector.CollectAll()

		path, err := feeds.WriteSnapshot(cfg.GetDataDir(), dateKey, items)
		if err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}

		fmt.Printf("\nCollected %d items.\n", len(items))
		bySource := map[string]int{}
		for _, item := range items {
			bySource[item.Source]++
		}
		var sources []string
		for source := range bySource {
			sources = append(sources, source)
		}
		sort.Slice(sources, func(i, j int) bool { return bySource[sources[i]] > bySource[sources[j]] })
		for _, source := range sources {
			fmt.Printf("  %s: %d\n", source, bySource[source])
		}
		fmt.Printf("\nSnapshot: %s\n", path)
		fmt.Println("Run 'activeinfo run --from-snapshot' to build the report without re-fetching.")
		return nil
	},
}

// --- run command ---

var (
	runDate      string
	fromSnapshot bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> merge -> score -> novelty -> rank -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		dateKey := runDate
		if dateKey == "" {
			dateKey = database.Today()
		}
		if _, err := time.Parse("2006-01-02", dateKey); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", runDate)
		}

		pipe := pipeline.New(cfg, db)
		ctx := context.Background()

		var result *pipeline.Result
		if fromSnapshot {
			result, err = pipe.RunFromSnapshot(ctx, dateKey)
			if err != nil {
				return err
			}
		} else {
			result = pipe.Run(ctx, dateKey)
		}

		failed := false
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
				failed = true
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if failed {
			return fmt.Errorf("pipeline finished with errors")
		}
		fmt.Println("\nPipeline complete! Run 'activeinfo serve' to view the report.")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "Report date (YYYY-MM-DD, default today)")
	runCmd.Flags().BoolVar(&fromSnapshot, "from-snapshot", false, "Reuse the snapshot for the date instead of fetching")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- reports command ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := db.ListReports(30)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports stored. Run 'activeinfo run' to generate one.")
			return nil
		}

		for _, r := range reports {
			fmt.Printf("  %s  %3d items  (stored %s)\n", r.ReportDate, r.TotalItems, r.CreatedAt)
		}
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Print a report's markdown (latest when no date given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var report *database.Report
		if len(args) == 1 {
			report, err = db.GetReport(args[0])
		} else {
			report, err = db.LatestReport()
		}
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("report not found")
		}

		fmt.Println(report.Markdown)
		return nil
	},
}

func init() {
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "activeinfo.db")
	return database.Open(dbPath)
}
