// Package engine runs the full analysis over a batch of raw Trends rows:
// normalize, measure momentum and seasonality, recommend, and derive the
// cross-theme views (geography, keywords, campaign groups, budget plan).
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/cluster"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/geo"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/momentum"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/queries"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/seasonality"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/series"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/recommend"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Defaults applied when Options fields are zero.
const (
	DefaultConcurrency   = 4
	DefaultClusterK      = 3
	DefaultMonthlyBudget = 2000.0
	HighValueLimit       = 20
	TopKeywordLimit      = 20
)

// RawSeriesRow is one unparsed interest-over-time reading.
type RawSeriesRow struct {
	Theme     string           `json:"theme" yaml:"theme"`
	Timeframe models.Timeframe `json:"timeframe" yaml:"timeframe"`
	Label     string           `json:"label" yaml:"label"`
	Value     any              `json:"value" yaml:"value"`
}

// RawGeoRow is one unparsed interest-by-region reading.
type RawGeoRow struct {
	Theme     string           `json:"theme" yaml:"theme"`
	Timeframe models.Timeframe `json:"timeframe" yaml:"timeframe"`
	Region    string           `json:"region" yaml:"region"`
	Value     any              `json:"value" yaml:"value"`
}

// Batch is the input boundary of a run. Keywords is keyed by theme name.
type Batch struct {
	Series   []RawSeriesRow                   `json:"series" yaml:"series"`
	Geo      []RawGeoRow                      `json:"geo,omitempty" yaml:"geo,omitempty"`
	Queries  []models.RelatedQueries          `json:"queries,omitempty" yaml:"queries,omitempty"`
	Keywords map[string]models.KeywordMetrics `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Trending []models.TrendingSearch          `json:"trending,omitempty" yaml:"trending,omitempty"`
}

// ThemeResult holds every timeframe's metrics for one theme and the single
// recommendation derived from the longest timeframe available.
type ThemeResult struct {
	Theme          string                     `json:"theme" yaml:"theme"`
	Metrics        []models.ThemeMetrics      `json:"metrics" yaml:"metrics"`
	Recommendation models.Recommendation      `json:"recommendation" yaml:"recommendation"`
	Keyword        *models.KeywordMetrics     `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Comparison     models.TimeframeComparison `json:"comparison" yaml:"comparison"`
	Series         []models.ThemeSeries       `json:"-" yaml:"-"`
}

// Longest returns the metrics of the longest timeframe present.
func (r ThemeResult) Longest() models.ThemeMetrics {
	if len(r.Metrics) == 0 {
		return models.ThemeMetrics{}
	}
	return r.Metrics[len(r.Metrics)-1]
}

// SeriesFor returns the cleaned series for tf, if present.
func (r ThemeResult) SeriesFor(tf models.Timeframe) (models.ThemeSeries, bool) {
	for _, s := range r.Series {
		if s.Timeframe == tf {
			return s, true
		}
	}
	return models.ThemeSeries{}, false
}

// SkippedTheme records a (theme, timeframe) that could not be analyzed.
type SkippedTheme struct {
	Theme     string           `json:"theme" yaml:"theme"`
	Timeframe models.Timeframe `json:"timeframe" yaml:"timeframe"`
	Reason    string           `json:"reason" yaml:"reason"`
}

// BatchResult is the output boundary of a run.
type BatchResult struct {
	RunID         string                    `json:"run_id" yaml:"run_id"`
	GeneratedAt   time.Time                 `json:"generated_at" yaml:"generated_at"`
	Themes        []ThemeResult             `json:"themes" yaml:"themes"`
	Skipped       []SkippedTheme            `json:"skipped" yaml:"skipped"`
	GeoShifts     []models.GeoShift         `json:"geo_shifts,omitempty" yaml:"geo_shifts,omitempty"`
	TopRegions    []models.GeoInterestRow   `json:"top_regions,omitempty" yaml:"top_regions,omitempty"`
	RegionLeaders []models.RegionLeader     `json:"region_leaders,omitempty" yaml:"region_leaders,omitempty"`
	Breakouts     []models.KeywordShift     `json:"breakouts,omitempty" yaml:"breakouts,omitempty"`
	HighValue     []models.HighValueKeyword `json:"high_value,omitempty" yaml:"high_value,omitempty"`
	TopKeywords   []models.RankedKeyword    `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
	Groups        []models.CampaignGroup    `json:"groups,omitempty" yaml:"groups,omitempty"`
	GeoClusters   []models.GeoCluster       `json:"geo_clusters,omitempty" yaml:"geo_clusters,omitempty"`
	Plan          models.CampaignPlan       `json:"plan" yaml:"plan"`
	Trending      []models.TrendingSearch   `json:"trending,omitempty" yaml:"trending,omitempty"`
}

// Theme returns the result for a theme (matched after normalization).
func (r *BatchResult) Theme(name string) (ThemeResult, bool) {
	name = utils.NormalizeTheme(name)
	for _, t := range r.Themes {
		if strings.EqualFold(t.Theme, name) {
			return t, true
		}
	}
	return ThemeResult{}, false
}

// Recommendations returns every theme's recommendation, best tier first.
func (r *BatchResult) Recommendations() []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(r.Themes))
	for _, t := range r.Themes {
		recs = append(recs, t.Recommendation)
	}
	recommend.SortRecommendations(recs)
	return recs
}

// Options configures an Engine.
type Options struct {
	Granularity   models.Granularity
	Momentum      momentum.Options
	WeekBuckets   bool // profile weekly series by ISO week instead of month
	Concurrency   int
	ClusterK      int
	MonthlyBudget float64
}

// Engine runs batches. It is safe for concurrent use.
type Engine struct {
	log        *logger.Logger
	opts       Options
	normalizer *series.Normalizer
	clusterer  cluster.Clusterer
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClusterer replaces the default k-means clusterer.
func WithClusterer(c cluster.Clusterer) Option {
	return func(e *Engine) { e.clusterer = c }
}

// WithClock overrides the GeneratedAt clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(log *logger.Logger, opts Options, options ...Option) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ClusterK <= 0 {
		opts.ClusterK = DefaultClusterK
	}
	if opts.MonthlyBudget <= 0 {
		opts.MonthlyBudget = DefaultMonthlyBudget
	}
	if opts.Granularity == "" {
		opts.Granularity = models.GranularityNative
	}
	log = logger.OrNop(log)
	e := &Engine{
		log:        log,
		opts:       opts,
		normalizer: series.NewNormalizer(log, opts.Momentum.Fallback),
		clusterer:  cluster.KMeans{},
		now:        time.Now,
	}
	for _, o := range options {
		o(e)
	}
	e.opts.Momentum.Fallback = e.normalizer.Fallback()
	return e
}

type seriesKey struct {
	theme string
	tf    models.Timeframe
}

type analyzed struct {
	series  models.ThemeSeries
	metrics models.ThemeMetrics
}

// Run analyzes b. Malformed series are skipped and reported in Skipped; the
// only error is context cancellation.
func (e *Engine) Run(ctx context.Context, b Batch) (*BatchResult, error) {
	keys, grouped, skipped := groupSeries(b.Series)
	geoRows, geoSkipped := e.geoRows(b.Geo)
	skipped = append(skipped, geoSkipped...)
	for _, s := range skipped {
		e.log.Warn("skipping rows", "theme", s.Theme, "timeframe", string(s.Timeframe), "reason", s.Reason)
	}

	out := make([]*analyzed, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, k := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := e.analyze(k, grouped[k])
			if err != nil {
				var malformed *series.MalformedSeriesError
				if !errors.As(err, &malformed) {
					return err
				}
				e.log.Warn("skipping theme", "theme", k.theme, "timeframe", string(k.tf), "error", err)
				mu.Lock()
				skipped = append(skipped, SkippedTheme{Theme: k.theme, Timeframe: k.tf, Reason: err.Error()})
				mu.Unlock()
				return nil // non-fatal
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}

	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].Theme != skipped[j].Theme {
			return skipped[i].Theme < skipped[j].Theme
		}
		if skipped[i].Timeframe.Rank() != skipped[j].Timeframe.Rank() {
			return skipped[i].Timeframe.Rank() < skipped[j].Timeframe.Rank()
		}
		return skipped[i].Timeframe < skipped[j].Timeframe
	})

	res := &BatchResult{
		RunID:       uuid.NewString(),
		GeneratedAt: e.now(),
		Skipped:     skipped,
		Trending:    b.Trending,
	}
	if res.Skipped == nil {
		res.Skipped = []SkippedTheme{}
	}
	res.Themes = e.themeResults(out, b)

	res.GeoShifts = geo.Shifts(geoRows)
	res.TopRegions = sortedTopRegions(geo.TopRegionPerTheme(geoRows))
	res.RegionLeaders = geo.RegionLeaders(geoRows, "")
	res.Breakouts = queries.Breakouts(b.Queries)
	res.HighValue = queries.HighValue(b.Queries, HighValueLimit)
	res.TopKeywords = recommend.RankKeywords(keywordCandidates(b.Queries, res.Themes), nil, TopKeywordLimit)
	res.Groups = e.groups(res.Themes, geoRows)
	res.GeoClusters = e.geoClusters(geoRows)
	res.Plan = recommend.Plan(res.Recommendations(), e.opts.MonthlyBudget)

	e.log.Info("analysis complete",
		"run_id", res.RunID,
		"themes", len(res.Themes),
		"skipped", len(res.Skipped),
		"groups", len(res.Groups))
	return res, nil
}

// Analyze runs the per-series pipeline on an already grouped set of rows.
func (e *Engine) Analyze(theme string, tf models.Timeframe, rows []series.Row) (models.ThemeSeries, models.ThemeMetrics, error) {
	a, err := e.analyze(seriesKey{theme: utils.NormalizeTheme(theme), tf: tf}, rows)
	if err != nil {
		return models.ThemeSeries{}, models.ThemeMetrics{}, err
	}
	return a.series, a.metrics, nil
}

func (e *Engine) analyze(k seriesKey, rows []series.Row) (*analyzed, error) {
	s, err := e.normalizer.Normalize(k.theme, k.tf, rows, e.opts.Granularity)
	if err != nil {
		return nil, err
	}
	mom := momentum.Calculate(s, e.opts.Momentum)
	profile := seasonality.Profile(s, seasonality.Options{WeekBuckets: e.opts.WeekBuckets && isWeekly(s)})
	if profile.InsufficientHistory {
		e.log.Debug("insufficient history for seasonality",
			"theme", s.Theme, "timeframe", string(s.Timeframe), "points", s.Len())
	}
	a := &analyzed{
		series: s,
		metrics: models.ThemeMetrics{
			Theme:               s.Theme,
			Timeframe:           s.Timeframe,
			MomentumScore:       mom.Score,
			TrendDirection:      mom.Direction,
			PeakPeriod:          profile.PeakPeriod,
			SeasonalityStrength: profile.Strength,
			AvgVolume:           mom.FullMean,
			Slope:               mom.Slope,
			TrendR2:             mom.R2,
			Volatility:          mom.Volatility,
			Points:              s.Len(),
			FirstPeriod:         s.First(),
			LastPeriod:          s.Last(),
			Seasonality:         profile,
		},
	}
	a.metrics.SeasonalityPeakToMean = profile.PeakToMean
	return a, nil
}

// themeResults folds per-timeframe output into one result per theme.
func (e *Engine) themeResults(out []*analyzed, b Batch) []ThemeResult {
	byTheme := make(map[string]*ThemeResult)
	var names []string
	for _, a := range out {
		if a == nil {
			continue
		}
		tr, ok := byTheme[a.metrics.Theme]
		if !ok {
			tr = &ThemeResult{Theme: a.metrics.Theme}
			byTheme[a.metrics.Theme] = tr
			names = append(names, a.metrics.Theme)
		}
		tr.Metrics = append(tr.Metrics, a.metrics)
		tr.Series = append(tr.Series, a.series)
	}
	sort.Strings(names)

	keywords := normalizeKeywords(b.Keywords)
	results := make([]ThemeResult, 0, len(names))
	for _, name := range names {
		tr := byTheme[name]
		sort.Slice(tr.Metrics, func(i, j int) bool {
			return tr.Metrics[i].Timeframe.Rank() < tr.Metrics[j].Timeframe.Rank()
		})
		sort.Slice(tr.Series, func(i, j int) bool {
			return tr.Series[i].Timeframe.Rank() < tr.Series[j].Timeframe.Rank()
		})

		byTF := make(map[models.Timeframe]models.ThemeSeries, len(tr.Series))
		for _, s := range tr.Series {
			byTF[s.Timeframe] = s
		}
		tr.Comparison = momentum.CompareTimeframes(name, byTF)

		if kw, ok := keywords[strings.ToLower(name)]; ok {
			tr.Keyword = &kw
		}
		in := recommend.FromMetrics(tr.Longest(), tr.Keyword)
		if trendingMatch(name, b.Trending) {
			in.ExtraTags = append(in.ExtraTags, recommend.TagTrendingNow)
		}
		tr.Recommendation = recommend.Select(in)
		results = append(results, *tr)
	}
	return results
}

// geoRows coerces raw region rows. Rows whose timeframe is not one of the
// known windows are reported once per (theme, timeframe) and dropped.
func (e *Engine) geoRows(raw []RawGeoRow) ([]models.GeoInterestRow, []SkippedTheme) {
	if len(raw) == 0 {
		return nil, nil
	}
	rows := make([]models.GeoInterestRow, 0, len(raw))
	var skipped []SkippedTheme
	seen := make(map[seriesKey]bool)
	for _, r := range raw {
		theme := utils.NormalizeTheme(r.Theme)
		tf, err := resolveTimeframe(r.Timeframe)
		if err != nil {
			k := seriesKey{theme: theme, tf: r.Timeframe}
			if !seen[k] {
				seen[k] = true
				skipped = append(skipped, SkippedTheme{Theme: theme, Timeframe: r.Timeframe, Reason: "geo rows: " + err.Error()})
			}
			continue
		}
		rows = append(rows, models.GeoInterestRow{
			Theme:         theme,
			Region:        r.Region,
			Timeframe:     tf,
			InterestScore: series.CoerceValue(r.Value, e.normalizer.Fallback()),
		})
	}
	return geo.Dedupe(rows), skipped
}

// groups links themes by the weekly shape of their longest series and the
// overlap of their top metros.
func (e *Engine) groups(themes []ThemeResult, geoRows []models.GeoInterestRow) []models.CampaignGroup {
	if len(themes) == 0 {
		return nil
	}
	shapes := make(map[string][]float64, len(themes))
	for _, t := range themes {
		if len(t.Series) == 0 {
			continue
		}
		shapes[t.Theme] = seasonality.WeeklyShape(t.Series[len(t.Series)-1])
	}
	return cluster.GroupThemes(shapes, geo.OverlapSets(geoRows, geo.OverlapMetros), cluster.GroupOptions{})
}

func (e *Engine) geoClusters(geoRows []models.GeoInterestRow) []models.GeoCluster {
	themes, _, matrix := geo.Pivot(geoRows, "")
	if len(themes) < 2 {
		return nil
	}
	out, err := cluster.AssignGeoClusters(e.clusterer, themes, matrix, e.opts.ClusterK)
	if err != nil {
		e.log.Warn("geo clustering failed", "error", err)
		return nil
	}
	return out
}

// groupSeries buckets raw rows by normalized (theme, timeframe), keeping
// first-seen order of both keys and rows. Timeframes are resolved to the
// enum so "5 Year", "long" and "LONG" share one series; rows with an
// unrecognized timeframe are reported once per (theme, timeframe).
func groupSeries(rows []RawSeriesRow) ([]seriesKey, map[seriesKey][]series.Row, []SkippedTheme) {
	grouped := make(map[seriesKey][]series.Row)
	var (
		keys    []seriesKey
		skipped []SkippedTheme
	)
	bad := make(map[seriesKey]bool)
	for _, r := range rows {
		theme := utils.NormalizeTheme(r.Theme)
		if theme == "" {
			continue
		}
		tf, err := resolveTimeframe(r.Timeframe)
		if err != nil {
			k := seriesKey{theme: theme, tf: r.Timeframe}
			if !bad[k] {
				bad[k] = true
				skipped = append(skipped, SkippedTheme{Theme: theme, Timeframe: r.Timeframe, Reason: err.Error()})
			}
			continue
		}
		k := seriesKey{theme: theme, tf: tf}
		if _, ok := grouped[k]; !ok {
			keys = append(keys, k)
		}
		grouped[k] = append(grouped[k], series.Row{Label: r.Label, Value: r.Value})
	}
	return keys, grouped, skipped
}

// resolveTimeframe maps a row's timeframe onto the enum. Empty means LONG.
func resolveTimeframe(tf models.Timeframe) (models.Timeframe, error) {
	if strings.TrimSpace(string(tf)) == "" {
		return models.TimeframeLong, nil
	}
	return models.ParseTimeframe(string(tf))
}

// keywordCandidates turns the TOP related queries of every theme into
// ranking candidates, carrying the theme's longest-window direction.
func keywordCandidates(all []models.RelatedQueries, themes []ThemeResult) []recommend.KeywordCandidate {
	if len(all) == 0 {
		return nil
	}
	byName := make(map[string]ThemeResult, len(themes))
	for _, t := range themes {
		byName[strings.ToLower(t.Theme)] = t
	}
	var out []recommend.KeywordCandidate
	for _, rq := range all {
		market := utils.NormalizeTheme(rq.Theme)
		var dir models.TrendDirection
		if t, ok := byName[strings.ToLower(market)]; ok {
			market, dir = t.Theme, t.Longest().TrendDirection
		}
		for _, q := range rq.Top {
			score, ok := queries.NumericScore(q.Score)
			if !ok {
				continue
			}
			out = append(out, recommend.KeywordCandidate{
				Keyword:   q.Query,
				Market:    market,
				Interest:  score,
				Direction: dir,
			})
		}
	}
	return out
}

func normalizeKeywords(in map[string]models.KeywordMetrics) map[string]models.KeywordMetrics {
	out := make(map[string]models.KeywordMetrics, len(in))
	for theme, kw := range in {
		out[strings.ToLower(utils.NormalizeTheme(theme))] = kw
	}
	return out
}

// trendingMatch reports whether any trending search mentions the theme's
// distinctive terms.
func trendingMatch(theme string, trending []models.TrendingSearch) bool {
	if len(trending) == 0 {
		return false
	}
	short := strings.ToLower(utils.ShortThemeName(theme))
	if short == "" {
		return false
	}
	for _, t := range trending {
		if strings.Contains(strings.ToLower(t.Term), short) {
			return true
		}
	}
	return false
}

func sortedTopRegions(m map[string]models.GeoInterestRow) []models.GeoInterestRow {
	if len(m) == 0 {
		return nil
	}
	out := make([]models.GeoInterestRow, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Theme < out[j].Theme })
	return out
}

// isWeekly reports whether the median spacing of s is at most eight days.
func isWeekly(s models.ThemeSeries) bool {
	if s.Granularity == models.GranularityWeek {
		return true
	}
	if s.Granularity != models.GranularityNative || s.Len() < 2 {
		return false
	}
	gaps := make([]time.Duration, 0, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		gaps = append(gaps, s.Points[i].PeriodStart.Sub(s.Points[i-1].PeriodStart))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2] <= 8*24*time.Hour
}
