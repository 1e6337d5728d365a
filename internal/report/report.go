package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// ErrNoResult is returned when there is nothing to report on.
var ErrNoResult = errors.New("report: result is nil")

// Format specifies the output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts "md", "markdown", "html" and "pdf".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Section identifies a section to include or exclude.
type Section string

const (
	SectionSummary         Section = "summary"
	SectionMomentum        Section = "momentum"
	SectionRecommendations Section = "recommendations"
	SectionGeo             Section = "geo"
	SectionSeasonality     Section = "seasonality"
	SectionKeywords        Section = "keywords"
	SectionPlan            Section = "plan"
	SectionClusters        Section = "clusters"
	SectionSkipped         Section = "skipped"
)

// AllSections returns all report sections in display order.
func AllSections() []Section {
	return []Section{
		SectionSummary,
		SectionMomentum,
		SectionRecommendations,
		SectionGeo,
		SectionSeasonality,
		SectionKeywords,
		SectionPlan,
		SectionClusters,
		SectionSkipped,
	}
}

// Config controls report generation.
type Config struct {
	Sections       []Section      // default: all
	Title          string         // default: "Search Trend Strategic Brief"
	Author         string         // default: "Levine Marketing Analytics"
	Location       *time.Location // GeneratedAt zone (default: America/Denver)
	MaxChartSeries int            // lines per chart (default: 5)
	ChartCfg       ChartConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Sections:       AllSections(),
		Title:          "Search Trend Strategic Brief",
		Author:         "Levine Marketing Analytics",
		Location:       utils.Mountain,
		MaxChartSeries: 5,
		ChartCfg:       DefaultChartConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Sections) == 0 {
		c.Sections = d.Sections
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Author == "" {
		c.Author = d.Author
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.MaxChartSeries <= 0 {
		c.MaxChartSeries = d.MaxChartSeries
	}
	if c.ChartCfg.Width == 0 {
		c.ChartCfg = d.ChartCfg
	}
	return c
}

func (c Config) hasSection(s Section) bool {
	for _, sec := range c.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// Generate renders res in the requested text format. FormatPDF is not a
// text format; use GeneratePDF on the HTML output.
func Generate(res *engine.BatchResult, format Format, cfg Config) (string, error) {
	switch format {
	case FormatMarkdown:
		return GenerateMarkdown(res, cfg)
	case FormatHTML:
		return GenerateHTML(res, cfg)
	}
	return "", fmt.Errorf("format %q cannot be rendered as text", format)
}

// GenerateHTML renders the HTML report with inline SVG charts.
func GenerateHTML(res *engine.BatchResult, cfg Config) (string, error) {
	if res == nil {
		return "", ErrNoResult
	}
	data := buildData(res, cfg.withDefaults(), true)

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(HTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateMarkdown renders the strategic brief as markdown.
func GenerateMarkdown(res *engine.BatchResult, cfg Config) (string, error) {
	if res == nil {
		return "", ErrNoResult
	}
	return renderMarkdown(buildData(res, cfg.withDefaults(), false)), nil
}

// ════════════════════════════════════════════════════════════════════
// Report Data (flattened for rendering)
// ════════════════════════════════════════════════════════════════════

// Data is the model passed to both renderers.
type Data struct {
	Title       string
	Author      string
	GeneratedAt string
	RunID       string

	// Executive summary
	ThemeCount        int
	SkippedCount      int
	AcceleratingCount int
	HighMomentumCount int
	TierCounts        []TierCount
	Takeaways         []string

	Momentum        []MomentumRow
	Recommendations []RecommendationRow
	Seasonality     []SeasonalityRow
	Emerging        []ThemeList
	Declining       []ThemeList
	StableLeaders   []ThemeList // Name is the region, Items its themes
	RegionLeaders   []RegionRow
	TopRegions      []RegionRow
	Breakouts       []ThemeList
	HighValue       []HighValueRow
	TopKeywords     []TopKeywordRow
	Trending        []TrendingRow
	Plan            PlanView
	ActionPlan      []ActionWeek
	Groups          []ThemeList
	GeoClusters     []ThemeList
	Skipped         []SkippedRow

	// Charts (inline SVG, HTML only)
	MomentumChart    template.HTML
	InterestChart    template.HTML
	SeasonalityChart template.HTML

	ShowSummary         bool
	ShowMomentum        bool
	ShowRecommendations bool
	ShowGeo             bool
	ShowSeasonality     bool
	ShowKeywords        bool
	ShowPlan            bool
	ShowClusters        bool
	ShowSkipped         bool
}

// TierCount is the number of themes in one priority tier.
type TierCount struct {
	Tier  string
	Class string
	Count int
}

// MomentumRow is one theme's longest-timeframe trend figures.
type MomentumRow struct {
	Theme         string
	Timeframe     string
	Momentum      string
	MomentumClass string // positive, negative, neutral
	Direction     string
	LongMomentum  string // 1Y vs 5Y average volume, "" when not comparable
	Acceleration  string
	Volume        string // "1Y avg vs 5Y avg"
	CAGR          string
	Volatility    string
}

// RecommendationRow is one theme's campaign recommendation.
type RecommendationRow struct {
	Theme     string
	Tier      string
	TierClass string
	Rule      string
	Tags      []string
	Budget    string
	Searches  string
	Compete   string
	CPC       string
	Action    string
}

// SeasonalityRow compares the long- and short-window peaks.
type SeasonalityRow struct {
	Theme     string
	LongPeak  string
	ShortPeak string
	Strength  string
	Strategy  string
}

// ThemeList is a name with a list of items (regions, keywords, themes).
type ThemeList struct {
	Name  string
	Items []string
}

// RegionRow is a region with its score and leading themes.
type RegionRow struct {
	Region string
	Score  string
	Themes []string
}

// HighValueRow is one high-value related query.
type HighValueRow struct {
	Query   string
	Total   string
	Max     string
	Markets int
}

// TopKeywordRow is one keyword of the budget-ranked list.
type TopKeywordRow struct {
	Keyword  string
	Market   string
	Score    string
	Priority string
	Budget   string
	CPC      string
	Reason   string
}

// TrendingRow is one trending search.
type TrendingRow struct {
	Term    string
	Traffic string
}

// PlanView is the campaign plan formatted for display.
type PlanView struct {
	Monthly     string
	Ads         string
	Testing     string
	Tools       string
	DailyAds    string
	MaxCPC      string
	Allocations []AllocationRow
	Adjustments []string
}

// AllocationRow is one theme's budget.
type AllocationRow struct {
	Theme   string
	Tier    string
	Share   string
	Monthly string
	Daily   string
}

// ActionWeek is one week of the 30-day action plan.
type ActionWeek struct {
	Title string
	Items []string
}

// SkippedRow is a theme/timeframe that could not be analyzed.
type SkippedRow struct {
	Theme     string
	Timeframe string
	Reason    string
}

// ════════════════════════════════════════════════════════════════════
// Internal: build report data
// ════════════════════════════════════════════════════════════════════

const highMomentumThreshold = 20.0

func buildData(res *engine.BatchResult, cfg Config, charts bool) Data {
	generated := res.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	d := Data{
		Title:        cfg.Title,
		Author:       cfg.Author,
		GeneratedAt:  generated.In(cfg.Location).Format("02 Jan 2006, 03:04 PM MST"),
		RunID:        res.RunID,
		ThemeCount:   len(res.Themes),
		SkippedCount: len(res.Skipped),

		ShowSummary:         cfg.hasSection(SectionSummary),
		ShowMomentum:        cfg.hasSection(SectionMomentum),
		ShowRecommendations: cfg.hasSection(SectionRecommendations),
		ShowGeo:             cfg.hasSection(SectionGeo),
		ShowSeasonality:     cfg.hasSection(SectionSeasonality),
		ShowKeywords:        cfg.hasSection(SectionKeywords),
		ShowPlan:            cfg.hasSection(SectionPlan),
		ShowClusters:        cfg.hasSection(SectionClusters),
		ShowSkipped:         cfg.hasSection(SectionSkipped) && len(res.Skipped) > 0,
	}

	themes := byMomentum(res.Themes)
	for _, t := range themes {
		m := t.Longest()
		if m.TrendDirection == models.TrendAccelerating {
			d.AcceleratingCount++
		}
		if m.MomentumScore > highMomentumThreshold {
			d.HighMomentumCount++
		}
		d.Momentum = append(d.Momentum, momentumRow(t))
	}

	d.TierCounts = tierCounts(res.Themes)
	allocations := make(map[string]models.BudgetAllocation, len(res.Plan.Allocations))
	for _, a := range res.Plan.Allocations {
		allocations[a.Theme] = a
	}
	for _, rec := range res.Recommendations() {
		t, _ := res.Theme(rec.Theme)
		d.Recommendations = append(d.Recommendations, recommendationRow(t, allocations[rec.Theme]))
	}

	for _, t := range res.Themes {
		d.Seasonality = append(d.Seasonality, seasonalityRow(t))
	}

	d.Emerging, d.Declining, d.StableLeaders = geoLists(res.GeoShifts)
	for _, l := range res.RegionLeaders {
		d.RegionLeaders = append(d.RegionLeaders, RegionRow{
			Region: l.Region,
			Score:  fmt.Sprintf("%.0f", l.TotalScore),
			Themes: l.TopThemes,
		})
	}
	for _, r := range res.TopRegions {
		d.TopRegions = append(d.TopRegions, RegionRow{
			Region: r.Region,
			Score:  fmt.Sprintf("%.0f", r.InterestScore),
			Themes: []string{r.Theme},
		})
	}

	for _, b := range res.Breakouts {
		if len(b.Breakout) > 0 {
			d.Breakouts = append(d.Breakouts, ThemeList{Name: b.Theme, Items: b.Breakout})
		}
	}
	for _, h := range res.HighValue {
		d.HighValue = append(d.HighValue, HighValueRow{
			Query:   h.Query,
			Total:   fmt.Sprintf("%.0f", h.TotalScore),
			Max:     fmt.Sprintf("%.0f", h.MaxScore),
			Markets: h.MarketCount,
		})
	}
	for _, k := range res.TopKeywords {
		d.TopKeywords = append(d.TopKeywords, TopKeywordRow{
			Keyword:  k.Keyword,
			Market:   k.Market,
			Score:    fmt.Sprintf("%.1f", k.Score),
			Priority: string(k.Priority),
			Budget:   utils.FormatUSD(k.SuggestedBudget),
			CPC:      utils.FormatUSD(k.EstimatedCPC),
			Reason:   k.Reasoning,
		})
	}
	for _, tr := range res.Trending {
		d.Trending = append(d.Trending, TrendingRow{Term: tr.Term, Traffic: tr.ApproxTraffic})
	}

	d.Plan = planView(res.Plan)
	d.ActionPlan = actionPlan(themes, res)

	for _, g := range res.Groups {
		d.Groups = append(d.Groups, ThemeList{Name: g.Name, Items: g.Themes})
	}
	d.GeoClusters = geoClusterLists(res.GeoClusters)

	for _, s := range res.Skipped {
		d.Skipped = append(d.Skipped, SkippedRow{Theme: s.Theme, Timeframe: string(s.Timeframe), Reason: s.Reason})
	}

	d.Takeaways = takeaways(d, res)

	if charts {
		d.MomentumChart = template.HTML(momentumChart(themes, cfg))
		d.InterestChart = template.HTML(interestChart(themes, cfg))
		d.SeasonalityChart = template.HTML(seasonalityChart(themes, cfg))
	}
	return d
}

// byMomentum returns themes ordered by longest-timeframe momentum, highest first.
func byMomentum(in []engine.ThemeResult) []engine.ThemeResult {
	out := append([]engine.ThemeResult(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Longest().MomentumScore, out[j].Longest().MomentumScore
		if mi != mj {
			return mi > mj
		}
		return out[i].Theme < out[j].Theme
	})
	return out
}

func momentumRow(t engine.ThemeResult) MomentumRow {
	m := t.Longest()
	c := t.Comparison
	row := MomentumRow{
		Theme:         t.Theme,
		Timeframe:     m.Timeframe.SourceWindow(),
		Momentum:      utils.FormatPct(m.MomentumScore),
		MomentumClass: signClass(m.MomentumScore),
		Direction:     titleCase(string(m.TrendDirection)),
		Acceleration:  c.Acceleration,
		Volatility:    fmt.Sprintf("%.2f", m.Volatility),
	}
	if c.AvgShort > 0 && c.AvgLong > 0 {
		row.LongMomentum = utils.FormatPct(c.LongMomentum)
		row.Volume = fmt.Sprintf("%.1f vs %.1f", c.AvgShort, c.AvgLong)
	}
	if c.CAGRAvailable {
		row.CAGR = utils.FormatPct(c.CAGR)
	}
	return row
}

func recommendationRow(t engine.ThemeResult, alloc models.BudgetAllocation) RecommendationRow {
	rec := t.Recommendation
	row := RecommendationRow{
		Theme:     rec.Theme,
		Tier:      string(rec.PriorityTier),
		TierClass: strings.ToLower(string(rec.PriorityTier)),
		Rule:      rec.Rule,
		Tags:      rec.RationaleTags,
		Action:    tierAction(rec.PriorityTier),
		Searches:  "n/a",
		Compete:   "n/a",
		CPC:       "n/a",
	}
	if alloc.Theme != "" {
		row.Budget = fmt.Sprintf("%s (%s/mo)", alloc.BudgetTier, utils.FormatUSD(alloc.Monthly))
	} else {
		row.Budget = string(rec.BudgetTier)
	}
	if kw := t.Keyword; kw != nil {
		row.Searches = utils.FormatCount(kw.AvgMonthlySearches)
		if kw.Competition != models.CompetitionUnknown {
			row.Compete = string(kw.Competition)
		}
		if kw.CPC != nil {
			row.CPC = utils.FormatUSD(*kw.CPC)
		}
	}
	return row
}

func tierAction(p models.PriorityTier) string {
	switch p {
	case models.PriorityHigh:
		return "Increase budget"
	case models.PriorityMedium:
		return "Maintain and test"
	case models.PriorityDefensive:
		return "Reduce spend, monitor"
	default:
		return "Monitor only"
	}
}

func tierCounts(themes []engine.ThemeResult) []TierCount {
	counts := make(map[models.PriorityTier]int)
	for _, t := range themes {
		counts[t.Recommendation.PriorityTier]++
	}
	tiers := []models.PriorityTier{models.PriorityHigh, models.PriorityMedium, models.PriorityLow, models.PriorityDefensive}
	out := make([]TierCount, 0, len(tiers))
	for _, p := range tiers {
		out = append(out, TierCount{Tier: string(p), Class: strings.ToLower(string(p)), Count: counts[p]})
	}
	return out
}

// seasonalityRow compares the SHORT and LONG peaks when both exist.
func seasonalityRow(t engine.ThemeResult) SeasonalityRow {
	var short, long *models.ThemeMetrics
	for i := range t.Metrics {
		switch t.Metrics[i].Timeframe {
		case models.TimeframeShort:
			short = &t.Metrics[i]
		case models.TimeframeLong:
			long = &t.Metrics[i]
		}
	}
	ref := t.Longest()
	row := SeasonalityRow{
		Theme:     t.Theme,
		LongPeak:  models.PeakUnknown,
		ShortPeak: models.PeakUnknown,
		Strength:  fmt.Sprintf("%.2f", ref.SeasonalityStrength),
	}
	if long != nil {
		row.LongPeak = long.PeakPeriod
	}
	if short != nil {
		row.ShortPeak = short.PeakPeriod
	}

	switch {
	case row.LongPeak != models.PeakUnknown && row.ShortPeak != models.PeakUnknown && row.LongPeak != row.ShortPeak:
		row.Strategy = fmt.Sprintf("Peak shifted from %s to %s", row.LongPeak, row.ShortPeak)
	case ref.PeakPeriod != models.PeakUnknown && ref.Seasonality.BoostPct > 0:
		row.Strategy = fmt.Sprintf("Increase budget %.0f%% in %s", ref.Seasonality.BoostPct, ref.PeakPeriod)
	case ref.PeakPeriod == models.PeakUnknown:
		row.Strategy = "Insufficient history"
	default:
		row.Strategy = "Maintain steady budget"
	}
	return row
}

// geoLists flattens geo shifts; stable leaders are regrouped by region,
// regions leading the most themes first.
func geoLists(shifts []models.GeoShift) (emerging, declining, stable []ThemeList) {
	byRegion := make(map[string][]string)
	for _, s := range shifts {
		if len(s.Emerging) > 0 {
			emerging = append(emerging, ThemeList{Name: s.Theme, Items: s.Emerging})
		}
		if len(s.Declining) > 0 {
			declining = append(declining, ThemeList{Name: s.Theme, Items: s.Declining})
		}
		for _, r := range s.StableLeaders {
			byRegion[r] = append(byRegion[r], s.Theme)
		}
	}
	for region, themes := range byRegion {
		stable = append(stable, ThemeList{Name: region, Items: themes})
	}
	sort.Slice(stable, func(i, j int) bool {
		if len(stable[i].Items) != len(stable[j].Items) {
			return len(stable[i].Items) > len(stable[j].Items)
		}
		return stable[i].Name < stable[j].Name
	})
	if len(stable) > 5 {
		stable = stable[:5]
	}
	return emerging, declining, stable
}

func geoClusterLists(in []models.GeoCluster) []ThemeList {
	byLabel := make(map[int][]string)
	for _, c := range in {
		byLabel[c.Label] = append(byLabel[c.Label], c.Theme)
	}
	labels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	out := make([]ThemeList, 0, len(labels))
	for _, l := range labels {
		themes := byLabel[l]
		sort.Strings(themes)
		out = append(out, ThemeList{Name: fmt.Sprintf("Cluster %d", l+1), Items: themes})
	}
	return out
}

func planView(p models.CampaignPlan) PlanView {
	v := PlanView{
		Monthly:     utils.FormatUSD(p.Split.Monthly),
		Ads:         utils.FormatUSD(p.Split.Ads),
		Testing:     utils.FormatUSD(p.Split.Testing),
		Tools:       utils.FormatUSD(p.Split.Tools),
		DailyAds:    utils.FormatUSD(p.Split.DailyAds),
		MaxCPC:      utils.FormatUSD(p.Split.MaxCPCTarget),
		Adjustments: p.Adjustments,
	}
	for _, a := range p.Allocations {
		v.Allocations = append(v.Allocations, AllocationRow{
			Theme:   a.Theme,
			Tier:    string(a.BudgetTier),
			Share:   fmt.Sprintf("%.1f%%", a.Share*100),
			Monthly: utils.FormatUSD(a.Monthly),
			Daily:   utils.FormatUSD(a.Daily),
		})
	}
	return v
}

// actionPlan builds the 30-day plan: launch, geo expansion, keywords,
// then budget reallocation. Weeks with nothing to do are omitted.
func actionPlan(themes []engine.ThemeResult, res *engine.BatchResult) []ActionWeek {
	var launch, defend []string
	for _, t := range themes {
		m := t.Longest()
		switch t.Recommendation.PriorityTier {
		case models.PriorityHigh:
			if len(launch) < 3 {
				launch = append(launch, fmt.Sprintf("Launch campaign for %s (momentum %s)", t.Theme, utils.FormatPct(m.MomentumScore)))
			}
		case models.PriorityDefensive:
			defend = append(defend, fmt.Sprintf("Reduce budget for %s (momentum %s)", t.Theme, utils.FormatPct(m.MomentumScore)))
		}
	}
	// Most negative first.
	for i, j := 0, len(defend)-1; i < j; i, j = i+1, j-1 {
		defend[i], defend[j] = defend[j], defend[i]
	}
	if len(defend) > 2 {
		defend = defend[:2]
	}

	var geoItems []string
	for _, s := range res.GeoShifts {
		if len(s.Emerging) == 0 || len(geoItems) == 3 {
			continue
		}
		geoItems = append(geoItems, fmt.Sprintf("Add geo-targeting for %s: %s", s.Theme, strings.Join(firstN(s.Emerging, 2), ", ")))
	}

	var kwItems []string
	for _, b := range res.Breakouts {
		if len(b.Breakout) == 0 || len(kwItems) == 3 {
			continue
		}
		kwItems = append(kwItems, fmt.Sprintf("Add trending keywords for %s: %s", b.Theme, strings.Join(firstN(b.Breakout, 2), ", ")))
	}

	var out []ActionWeek
	for _, w := range []ActionWeek{
		{Title: "Week 1: High-Impact Quick Wins", Items: launch},
		{Title: "Week 2: Geographic Expansion", Items: geoItems},
		{Title: "Week 3: Keyword Optimization", Items: kwItems},
		{Title: "Week 4: Budget Reallocation", Items: defend},
	} {
		if len(w.Items) > 0 {
			out = append(out, w)
		}
	}
	return out
}

func takeaways(d Data, res *engine.BatchResult) []string {
	out := []string{
		fmt.Sprintf("%d of %d themes accelerating", d.AcceleratingCount, d.ThemeCount),
		fmt.Sprintf("%d themes with more than %.0f%% momentum over their long-run average", d.HighMomentumCount, highMomentumThreshold),
	}
	if len(d.Momentum) > 0 {
		top := d.Momentum[0]
		out = append(out, fmt.Sprintf("Strongest momentum: %s (%s)", top.Theme, top.Momentum))
	}
	if n := len(res.Plan.Adjustments); n > 0 {
		out = append(out, fmt.Sprintf("%d seasonal budget adjustments scheduled", n))
	}
	if d.SkippedCount > 0 {
		out = append(out, fmt.Sprintf("%d series skipped for malformed data", d.SkippedCount))
	}
	return out
}

// ════════════════════════════════════════════════════════════════════
// Internal: charts
// ════════════════════════════════════════════════════════════════════

var tierColors = map[models.PriorityTier]string{
	models.PriorityHigh:      "#16a34a",
	models.PriorityMedium:    "#2563eb",
	models.PriorityLow:       "#9ca3af",
	models.PriorityDefensive: "#dc2626",
}

func momentumChart(themes []engine.ThemeResult, cfg Config) string {
	items := make([]BarItem, 0, len(themes))
	for _, t := range themes {
		items = append(items, BarItem{
			Label: utils.ShortThemeName(t.Theme),
			Value: t.Longest().MomentumScore,
			Color: tierColors[t.Recommendation.PriorityTier],
		})
	}
	c := cfg.ChartCfg
	c.Title = "Momentum by Theme (%)"
	if h := 60 + 36*len(items); h > c.Height {
		c.Height = h
	}
	return HorizontalBarChart(items, c)
}

// interestChart plots the top themes' longest series. Series are aligned
// on their last point so the most recent periods line up.
func interestChart(themes []engine.ThemeResult, cfg Config) string {
	var lines []LineChartSeries
	var labels []string
	maxLen := 0
	for _, t := range firstThemes(themes, cfg.MaxChartSeries) {
		s, ok := t.SeriesFor(t.Longest().Timeframe)
		if !ok || s.Len() == 0 {
			continue
		}
		lines = append(lines, LineChartSeries{Name: utils.ShortThemeName(t.Theme), Values: s.Values()})
		if s.Len() > maxLen {
			maxLen = s.Len()
			labels = labels[:0]
			for _, p := range s.Points {
				labels = append(labels, p.PeriodStart.Format("Jan 2006"))
			}
		}
	}
	for i, l := range lines {
		if pad := maxLen - len(l.Values); pad > 0 {
			vals := make([]float64, maxLen)
			for j := 0; j < pad; j++ {
				vals[j] = math.NaN()
			}
			copy(vals[pad:], l.Values)
			lines[i].Values = vals
		}
	}
	c := cfg.ChartCfg
	c.Title = "Search Interest (longest window)"
	return LineChart(lines, labels, c)
}

// seasonalityChart plots month-of-year bucket means.
func seasonalityChart(themes []engine.ThemeResult, cfg Config) string {
	labels := make([]string, 12)
	for m := 1; m <= 12; m++ {
		labels[m-1] = time.Month(m).String()[:3]
	}
	var lines []LineChartSeries
	for _, t := range firstThemes(themes, cfg.MaxChartSeries) {
		prof := t.Longest().Seasonality
		if prof.Kind != models.BucketMonthOfYear || len(prof.Buckets) == 0 {
			continue
		}
		vals := make([]float64, 12)
		for i := range vals {
			vals[i] = math.NaN()
		}
		for _, b := range prof.Buckets {
			if b.Bucket >= 1 && b.Bucket <= 12 {
				vals[b.Bucket-1] = b.Mean
			}
		}
		lines = append(lines, LineChartSeries{Name: utils.ShortThemeName(t.Theme), Values: vals})
	}
	c := cfg.ChartCfg
	c.Title = "Seasonal Shape (mean interest by month)"
	return LineChart(lines, labels, c)
}

// ════════════════════════════════════════════════════════════════════
// Utilities
// ════════════════════════════════════════════════════════════════════

func firstThemes(in []engine.ThemeResult, n int) []engine.ThemeResult {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func firstN(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func signClass(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	}
	return "neutral"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ReportTimestamp returns the current market-local time formatted for
// report headers.
func ReportTimestamp() string {
	return utils.NowMountain().Format("02 Jan 2006, 03:04 PM MST")
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
