// trendplanner turns Google Trends exports and Keyword Planner metrics into
// momentum, seasonality and budget recommendations for search campaigns.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ELevine-RE/levine-marketing-dashboard/api"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/momentum"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/config"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/datasource"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/recommend"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/report"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/scheduler"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals set by PersistentPreRunE.
var (
	cfg *config.Config
	log *logger.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trendplanner",
	Short: "Search trend analysis and campaign planning",
	Long: `trendplanner reads Google Trends exports for a set of campaign themes,
scores momentum and seasonality over 1, 2 and 5 year windows, enriches them
with Keyword Planner competition and CPC, and recommends a priority tier and
budget allocation per theme.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log, err = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading so version works anywhere.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trendplanner %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze every theme in the Trends export directory",
	Long: `Load the Trends exports, fetch keyword metrics, and print per-theme
momentum, seasonality and the recommended priority tier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkOutputFormat(format); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, col, err := runPipeline(ctx, cmd)
		if err != nil {
			return err
		}
		if themeFilter, _ := cmd.Flags().GetStringSlice("theme"); len(themeFilter) > 0 {
			res = filterThemes(res, themeFilter)
		}
		if format != "table" {
			return writeStructured(os.Stdout, format, res)
		}
		printAnalysis(os.Stdout, res, col)
		return nil
	},
}

func init() {
	addPipelineFlags(analyzeCmd)
	analyzeCmd.Flags().StringP("format", "f", "table", "output format: table, json, yaml")
	analyzeCmd.Flags().StringSlice("theme", nil, "only print these themes")
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the strategic brief (markdown, HTML or PDF)",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		sections, _ := cmd.Flags().GetStringSlice("sections")
		title, _ := cmd.Flags().GetString("title")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, _, err := runPipeline(ctx, cmd)
		if err != nil {
			return err
		}

		rcfg := report.DefaultConfig()
		if title != "" {
			rcfg.Title = title
		}
		if len(sections) > 0 {
			rcfg.Sections = make([]report.Section, 0, len(sections))
			for _, s := range sections {
				rcfg.Sections = append(rcfg.Sections, report.Section(strings.ToLower(strings.TrimSpace(s))))
			}
		}

		start := time.Now()
		if format == report.FormatPDF {
			if output == "" {
				output = filepath.Join("reports", "trend-brief-"+report.ReportTimestamp()+".pdf")
			}
			html, err := report.GenerateHTML(res, rcfg)
			if err != nil {
				return err
			}
			pcfg := report.DefaultPDFConfig()
			pcfg.OutputPath = output
			written, err := report.GeneratePDF(ctx, html, pcfg)
			if err != nil {
				return err
			}
			if written != output {
				fmt.Fprintf(os.Stderr, "No PDF engine found (install wkhtmltopdf or chromium); wrote HTML instead.\n")
			}
			fmt.Printf("Report written to %s (%s)\n", written, report.FormatDuration(time.Since(start)))
			return nil
		}

		out, err := report.Generate(res, format, rcfg)
		if err != nil {
			return err
		}
		if output == "" {
			fmt.Print(out)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s (%s)\n", output, report.FormatDuration(time.Since(start)))
		return nil
	},
}

func init() {
	addPipelineFlags(reportCmd)
	reportCmd.Flags().StringP("format", "f", "md", "report format: md, html, pdf")
	reportCmd.Flags().StringP("output", "o", "", "output file (default: stdout; reports/trend-brief-<ts>.pdf for pdf)")
	reportCmd.Flags().StringSlice("sections", nil, "sections to include (summary, momentum, recommendations, geo, seasonality, keywords, plan, clusters, skipped)")
	reportCmd.Flags().String("title", "", "report title")
}

// --- Keywords Command ---

var keywordsCmd = &cobra.Command{
	Use:   "keywords [keyword...]",
	Short: "Look up search volume, competition and CPC for keywords",
	Long: `Query the Google Ads Keyword Planner for the given keywords. Without Ads
credentials, offline heuristic estimates are printed instead. With --ideas the
keywords are used as seeds and every suggested idea is listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkOutputFormat(format); err != nil {
			return err
		}
		ideas, _ := cmd.Flags().GetBool("ideas")
		offline, _ := cmd.Flags().GetBool("offline")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var source datasource.KeywordSource = datasource.NewHeuristicPlanner()
		var planner *datasource.KeywordPlanner
		if !offline {
			p, err := newKeywordPlanner(ctx)
			switch {
			case err == nil:
				planner, source = p, p
			case errors.Is(err, datasource.ErrMissingCredentials):
				log.Info("Ads credentials not configured; using heuristic estimates")
			default:
				return err
			}
		}

		var rows []models.KeywordMetrics
		if ideas {
			if planner == nil {
				return fmt.Errorf("--ideas requires Google Ads credentials (see 'trendplanner status')")
			}
			out, err := planner.GenerateIdeas(ctx, args)
			if err != nil {
				return err
			}
			rows = out
		} else {
			m, err := source.KeywordMetrics(ctx, args)
			if err != nil {
				return err
			}
			for _, kw := range args {
				if km, ok := m[kw]; ok {
					rows = append(rows, km)
				}
			}
		}

		if format != "table" {
			return writeStructured(os.Stdout, format, rows)
		}
		fmt.Printf("Source: %s\n\n", source.Name())
		printKeywords(os.Stdout, rows)
		return nil
	},
}

func init() {
	keywordsCmd.Flags().StringP("format", "f", "table", "output format: table, json, yaml")
	keywordsCmd.Flags().Bool("ideas", false, "list keyword ideas for the given seeds")
	keywordsCmd.Flags().Bool("offline", false, "use heuristic estimates even when credentials are set")
}

// --- Recommend Command ---

var recommendCmd = &cobra.Command{
	Use:   "recommend [theme]",
	Short: "Run the recommendation rules for one theme's metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkOutputFormat(format); err != nil {
			return err
		}
		mom, _ := cmd.Flags().GetFloat64("momentum")
		dirFlag, _ := cmd.Flags().GetString("direction")
		volume, _ := cmd.Flags().GetFloat64("volume")
		competition, _ := cmd.Flags().GetString("competition")
		strength, _ := cmd.Flags().GetFloat64("seasonality")
		peak, _ := cmd.Flags().GetString("peak")

		dir := models.TrendDirection(strings.ToUpper(dirFlag))
		switch dir {
		case models.TrendAccelerating, models.TrendDecelerating, models.TrendStable:
		default:
			return fmt.Errorf("unknown direction %q (want ACCELERATING, DECELERATING or STABLE)", dirFlag)
		}

		in := recommend.Input{
			Theme:               utils.NormalizeTheme(args[0]),
			MomentumScore:       mom,
			Direction:           dir,
			AvgVolume:           volume,
			Competition:         models.ParseCompetition(competition),
			SeasonalityStrength: strength,
			PeakPeriod:          peak,
		}
		if cmd.Flags().Changed("cpc") {
			cpc, _ := cmd.Flags().GetFloat64("cpc")
			in.CPC = &cpc
		}

		rec := recommend.Select(in)
		if format != "table" {
			return writeStructured(os.Stdout, format, rec)
		}
		printRecommendation(os.Stdout, rec)
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringP("format", "f", "table", "output format: table, json, yaml")
	recommendCmd.Flags().Float64("momentum", 0, "momentum score (percent)")
	recommendCmd.Flags().String("direction", "STABLE", "trend direction: ACCELERATING, DECELERATING, STABLE")
	recommendCmd.Flags().Float64("volume", 0, "average relative interest (0-100)")
	recommendCmd.Flags().String("competition", "", "Keyword Planner competition: LOW, MEDIUM, HIGH")
	recommendCmd.Flags().Float64("cpc", 0, "average cost per click in USD")
	recommendCmd.Flags().Float64("seasonality", 0, "seasonality strength (peak / baseline)")
	recommendCmd.Flags().String("peak", "", "peak period label, e.g. April")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.API.Addr()
		}
		noUI, _ := cmd.Flags().GetBool("no-ui")
		noRefresh, _ := cmd.Flags().GetBool("no-initial-refresh")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		agg, err := buildAggregator(ctx, cmd)
		if err != nil {
			return err
		}
		api.Version = version
		srv := api.NewServer(cfg, newEngine(cmd), agg, log)
		if noUI {
			srv.SetServeUI(false)
		}

		if !noRefresh {
			if _, err := srv.Refresh(ctx); err != nil {
				log.Warn("initial refresh failed; serving without a snapshot", "error", err)
			}
		}

		if cfg.Schedule.Enabled {
			sched := scheduler.New(func(ctx context.Context) error {
				_, err := srv.Refresh(ctx)
				return err
			}, log)
			if err := sched.UpdateSchedule(cfg.Schedule.Cron, cfg.Schedule.Timezone); err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
			sched.Start(ctx)
			defer sched.Stop()
			srv.SetScheduler(sched)
		}

		fmt.Printf("trendplanner %s listening on http://%s\n", version, addr)
		return srv.Run(ctx, addr)
	},
}

func init() {
	addPipelineFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config api.host:api.port)")
	serveCmd.Flags().Bool("no-ui", false, "do not serve the embedded dashboard")
	serveCmd.Flags().Bool("no-initial-refresh", false, "start without analyzing the exports")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, credentials and data source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("trendplanner %s\n\n", version)

		file := cfg.File
		if file == "" {
			file = "(defaults)"
		}
		fmt.Printf("Config file:   %s\n", file)
		fmt.Printf("Local time:    %s\n", utils.NowMountain().Format("Mon 02 Jan 2006 15:04 MST"))
		fmt.Printf("Monthly budget %s\n", utils.FormatUSD(cfg.Budget.Monthly))

		dataDir := cfg.Trends.DataDir
		themes, err := listThemeDirs(dataDir)
		if err != nil {
			fmt.Printf("Trends data:   %s (%v)\n", dataDir, err)
		} else {
			fmt.Printf("Trends data:   %s (%d theme directories)\n", dataDir, len(themes))
		}

		if cfg.Schedule.Enabled {
			fmt.Printf("Schedule:      %q (%s)\n", cfg.Schedule.Cron, cfg.Schedule.Timezone)
		} else {
			fmt.Println("Schedule:      disabled")
		}
		pdf := "none (HTML fallback)"
		if e := report.DetectPDFEngine(); e != report.EngineNone {
			pdf = string(e)
		}
		fmt.Printf("PDF engine:    %s\n", pdf)

		fmt.Println("\nGoogle Ads credentials:")
		for _, k := range config.CheckAPIKeys(cfg) {
			mark := "✗"
			if k.IsSet {
				mark = "✓"
			}
			fmt.Printf("  %s %-26s %-7s %s\n", mark, k.Name, k.Source, k.Masked)
		}
		if cfg.Ads.Configured() {
			fmt.Println("  Keyword Planner: live")
		} else {
			fmt.Println("  Keyword Planner: heuristic estimates")
		}
		return nil
	},
}

// ── Pipeline wiring ──

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "Trends export directory (default from config trends.data_dir)")
	cmd.Flags().Float64("budget", 0, "monthly budget override in USD")
	cmd.Flags().Bool("offline", false, "skip Keyword Planner and trending-feed calls")
	cmd.Flags().Bool("no-trending", false, "skip the trending-searches feed")
}

// newEngine builds the analysis engine from cfg and flag overrides.
func newEngine(cmd *cobra.Command) *engine.Engine {
	gran, _ := models.ParseGranularity(cfg.Analysis.Granularity) // validated at load
	budget := cfg.Budget.Monthly
	if b, _ := cmd.Flags().GetFloat64("budget"); b > 0 {
		budget = b
	}
	return engine.New(log, engine.Options{
		Granularity: gran,
		Momentum: momentum.Options{
			TrailingWindow: cfg.Analysis.TrailingWindow,
			EpsilonRatio:   cfg.Analysis.EpsilonRatio,
			Fallback:       cfg.Analysis.FallbackValue,
		},
		WeekBuckets:   cfg.Analysis.WeekBuckets,
		Concurrency:   cfg.Analysis.Concurrency,
		ClusterK:      cfg.Analysis.ClusterK,
		MonthlyBudget: budget,
	})
}

// buildAggregator wires the Trends exports, Keyword Planner (or heuristic
// fallback) and trending feed.
func buildAggregator(ctx context.Context, cmd *cobra.Command) (*datasource.Aggregator, error) {
	dataDir := cfg.Trends.DataDir
	if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
		dataDir = d
	}
	offline, _ := cmd.Flags().GetBool("offline")
	noTrending, _ := cmd.Flags().GetBool("no-trending")

	var opts []datasource.AggregatorOption
	if !offline {
		planner, err := newKeywordPlanner(ctx)
		switch {
		case err == nil:
			opts = append(opts, datasource.WithKeywordSource(planner))
		case errors.Is(err, datasource.ErrMissingCredentials):
			log.Info("Ads credentials not configured; keyword metrics will be estimated")
		default:
			return nil, err
		}
		if !noTrending {
			opts = append(opts, datasource.WithTrendingSource(datasource.NewTrendingFeed(cfg.Trends.FeedURL, cfg.Trends.FeedGeo)))
		}
	}
	return datasource.NewAggregator(datasource.NewTrendsExport(dataDir, log), log, opts...), nil
}

func newKeywordPlanner(ctx context.Context) (*datasource.KeywordPlanner, error) {
	a := cfg.Ads
	return datasource.NewKeywordPlanner(ctx, datasource.KeywordPlannerConfig{
		DeveloperToken:    a.DeveloperToken,
		ClientID:          a.ClientID,
		ClientSecret:      a.ClientSecret,
		RefreshToken:      a.RefreshToken,
		LoginCustomerID:   a.LoginCustomerID,
		CustomerID:        a.CustomerID,
		GeoTargetID:       a.GeoTargetID,
		LanguageID:        a.LanguageID,
		APIVersion:        a.APIVersion,
		BaseURL:           a.BaseURL,
		RequestsPerMinute: a.RequestsPerMinute,
		CacheTTL:          a.CacheTTL,
	}, log)
}

// runPipeline collects a batch and analyzes it.
func runPipeline(ctx context.Context, cmd *cobra.Command) (*engine.BatchResult, *datasource.Collection, error) {
	agg, err := buildAggregator(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	noTrending, _ := cmd.Flags().GetBool("no-trending")

	start := time.Now()
	col, err := agg.Collect(ctx, datasource.CollectOptions{TrendingLimit: 20, SkipTrending: noTrending})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range col.Warnings {
		log.Warn("data source degraded", "warning", w)
	}
	res, err := newEngine(cmd).Run(ctx, *col.Batch)
	if err != nil {
		return nil, nil, err
	}
	log.Info("analysis complete",
		"run_id", res.RunID,
		"themes", len(res.Themes),
		"skipped", len(res.Skipped),
		"duration", report.FormatDuration(time.Since(start)),
	)
	return res, col, nil
}

func filterThemes(res *engine.BatchResult, names []string) *engine.BatchResult {
	out := *res
	out.Themes = nil
	for _, n := range names {
		if t, ok := res.Theme(n); ok {
			out.Themes = append(out.Themes, t)
		}
	}
	return &out
}

func listThemeDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
