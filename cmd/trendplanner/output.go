package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/datasource"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/recommend"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

func checkOutputFormat(f string) error {
	switch f {
	case "table", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", f)
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return checkOutputFormat(format)
}

func printAnalysis(w io.Writer, res *engine.BatchResult, col *datasource.Collection) {
	fmt.Fprintf(w, "Run %s · %s\n", res.RunID, res.GeneratedAt.In(utils.Mountain).Format("02 Jan 2006 15:04 MST"))
	if col != nil && col.KeywordSource != "" {
		fmt.Fprintf(w, "Keyword metrics: %s\n", col.KeywordSource)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "THEME\tWINDOW\tMOMENTUM\tDIRECTION\tPEAK\tSEASONALITY\tPRIORITY\tBUDGET\tRULE")
	for _, t := range res.Themes {
		m := t.Longest()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2fx\t%s\t%s\t%s\n",
			utils.ShortThemeName(t.Theme), m.Timeframe, utils.FormatPct(m.MomentumScore), m.TrendDirection,
			m.PeakPeriod, m.SeasonalityStrength, t.Recommendation.PriorityTier, t.Recommendation.BudgetTier,
			t.Recommendation.Rule)
	}
	tw.Flush()

	if len(res.Plan.Allocations) > 0 {
		s := res.Plan.Split
		fmt.Fprintf(w, "\nBudget %s/mo: ads %s, testing %s, tools %s (daily ads %s, max CPC %s)\n",
			utils.FormatUSD(s.Monthly), utils.FormatUSD(s.Ads), utils.FormatUSD(s.Testing),
			utils.FormatUSD(s.Tools), utils.FormatUSD(s.DailyAds), utils.FormatUSD(s.MaxCPCTarget))
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "THEME\tTIER\tSHARE\tMONTHLY\tDAILY")
		for _, a := range res.Plan.Allocations {
			fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\t%s\n",
				utils.ShortThemeName(a.Theme), a.BudgetTier, a.Share*100, utils.FormatUSD(a.Monthly), utils.FormatUSD(a.Daily))
		}
		tw.Flush()
	}
	for _, adj := range res.Plan.Adjustments {
		fmt.Fprintf(w, "  • %s\n", adj)
	}

	if len(res.TopKeywords) > 0 {
		fmt.Fprintf(w, "\nTop keywords for your budget:\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEYWORD\tMARKET\tSCORE\tPRIORITY\tBUDGET\tEST CPC")
		for _, k := range firstKeywords(res.TopKeywords, 10) {
			fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\n",
				k.Keyword, utils.ShortThemeName(k.Market), k.Score, k.Priority,
				utils.FormatUSD(k.SuggestedBudget), utils.FormatUSD(k.EstimatedCPC))
		}
		tw.Flush()
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped %d series:\n", len(res.Skipped))
		for _, s := range res.Skipped {
			fmt.Fprintf(w, "  %s [%s]: %s\n", s.Theme, s.Timeframe, s.Reason)
		}
	}
	if col != nil {
		for _, warn := range col.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
	}
}

func firstKeywords(ks []models.RankedKeyword, n int) []models.RankedKeyword {
	if len(ks) > n {
		return ks[:n]
	}
	return ks
}

func printKeywords(w io.Writer, rows []models.KeywordMetrics) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tMONTHLY SEARCHES\tCOMPETITION\tCPC\tBID RANGE")
	for _, k := range rows {
		cpc := "n/a"
		if k.CPC != nil {
			cpc = utils.FormatUSD(*k.CPC)
		}
		bids := "-"
		if k.HighBid > 0 {
			bids = utils.FormatUSD(k.LowBid) + " – " + utils.FormatUSD(k.HighBid)
		}
		comp := string(k.Competition)
		if comp == "" {
			comp = "UNKNOWN"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.Keyword, utils.FormatCount(k.AvgMonthlySearches), comp, cpc, bids)
	}
	tw.Flush()
}

func printRecommendation(w io.Writer, rec models.Recommendation) {
	fmt.Fprintf(w, "Theme:     %s\n", rec.Theme)
	fmt.Fprintf(w, "Priority:  %s (rule %s)\n", rec.PriorityTier, rec.Rule)
	fmt.Fprintf(w, "Budget:    %s\n", rec.BudgetTier)
	fmt.Fprintf(w, "Rationale: %s\n", strings.Join(rec.RationaleTags, ", "))
	if adj := recommend.SeasonalAdjustment(rec); adj != "" {
		fmt.Fprintf(w, "Timing:    %s\n", adj)
	}
}
