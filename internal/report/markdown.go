package report

import (
	"fmt"
	"strings"
)

// renderMarkdown writes the strategic brief.
func renderMarkdown(d Data) string {
	var sb strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&sb, format, args...) }

	w("# %s\n\n", d.Title)
	w("_Generated %s by %s", d.GeneratedAt, d.Author)
	if d.RunID != "" {
		w(" · run `%s`", d.RunID)
	}
	w("_\n")

	if d.ShowSummary {
		w("\n## Executive Summary\n\n")
		w("%d themes analyzed", d.ThemeCount)
		if d.SkippedCount > 0 {
			w(", %d series skipped", d.SkippedCount)
		}
		w(".\n\n")
		w("| Priority | Themes |\n|---|---|\n")
		for _, tc := range d.TierCounts {
			w("| %s | %d |\n", tc.Tier, tc.Count)
		}
		w("\n### Key Takeaways\n\n")
		for _, t := range d.Takeaways {
			w("- %s\n", t)
		}
	}

	if d.ShowMomentum && len(d.Momentum) > 0 {
		w("\n## Market Momentum\n\n")
		w("| Theme | Window | Momentum | Direction | 1Y vs 5Y | Acceleration | CAGR | Volatility |\n")
		w("|---|---|---|---|---|---|---|---|\n")
		for _, m := range d.Momentum {
			w("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				cell(m.Theme), m.Timeframe, m.Momentum, m.Direction,
				orDash(joinNonEmpty(m.Volume, m.LongMomentum)), orDash(m.Acceleration), orDash(m.CAGR), m.Volatility)
		}
	}

	if d.ShowRecommendations && len(d.Recommendations) > 0 {
		w("\n## Campaign Recommendations\n\n")
		w("| Theme | Priority | Action | Budget | Searches | Competition | CPC | Rationale |\n")
		w("|---|---|---|---|---|---|---|---|\n")
		for _, r := range d.Recommendations {
			w("| %s | **%s** | %s | %s | %s | %s | %s | %s |\n",
				cell(r.Theme), r.Tier, r.Action, r.Budget, r.Searches, r.Compete, r.CPC, cell(strings.Join(r.Tags, ", ")))
		}
	}

	if d.ShowGeo {
		writeGeo(&sb, d)
	}

	if d.ShowSeasonality && len(d.Seasonality) > 0 {
		w("\n## Seasonal Patterns\n\n")
		w("| Theme | 5-Year Peak | 1-Year Peak | Strength | Strategy |\n|---|---|---|---|---|\n")
		for _, s := range d.Seasonality {
			w("| %s | %s | %s | %s | %s |\n", cell(s.Theme), s.LongPeak, s.ShortPeak, s.Strength, s.Strategy)
		}
	}

	if d.ShowKeywords && (len(d.Breakouts) > 0 || len(d.HighValue) > 0 || len(d.TopKeywords) > 0 || len(d.Trending) > 0) {
		w("\n## Breakout Keywords\n")
		for _, b := range d.Breakouts {
			w("\n**%s**\n\n", b.Name)
			for _, kw := range firstN(b.Items, 5) {
				w("- %s\n", kw)
			}
		}
		if len(d.HighValue) > 0 {
			w("\n### High-Value Keywords\n\n| Query | Total Score | Max Score | Markets |\n|---|---|---|---|\n")
			for _, h := range d.HighValue {
				w("| %s | %s | %s | %d |\n", cell(h.Query), h.Total, h.Max, h.Markets)
			}
		}
		if len(d.TopKeywords) > 0 {
			w("\n### Top Keywords for Your Budget\n\n| Keyword | Market | Score | Priority | Budget | Est. CPC |\n|---|---|---|---|---|---|\n")
			for _, k := range d.TopKeywords {
				w("| %s | %s | %s | %s | %s | %s |\n", cell(k.Keyword), cell(k.Market), k.Score, k.Priority, k.Budget, k.CPC)
			}
		}
		if len(d.Trending) > 0 {
			w("\n### Trending Searches Today\n\n")
			for _, t := range d.Trending {
				if t.Traffic != "" {
					w("- %s (%s)\n", t.Term, t.Traffic)
				} else {
					w("- %s\n", t.Term)
				}
			}
		}
	}

	if d.ShowPlan {
		p := d.Plan
		w("\n## Campaign Plan\n\n")
		w("Monthly budget %s: ads %s, testing %s, tools %s. Daily ads %s, max CPC target %s.\n",
			p.Monthly, p.Ads, p.Testing, p.Tools, p.DailyAds, p.MaxCPC)
		if len(p.Allocations) > 0 {
			w("\n| Theme | Tier | Share | Monthly | Daily |\n|---|---|---|---|---|\n")
			for _, a := range p.Allocations {
				w("| %s | %s | %s | %s | %s |\n", cell(a.Theme), a.Tier, a.Share, a.Monthly, a.Daily)
			}
		}
		if len(p.Adjustments) > 0 {
			w("\n### Seasonal Adjustments\n\n")
			for _, a := range p.Adjustments {
				w("- %s\n", a)
			}
		}
		if len(d.ActionPlan) > 0 {
			w("\n### 30-Day Action Plan\n")
			for _, wk := range d.ActionPlan {
				w("\n**%s**\n\n", wk.Title)
				for _, it := range wk.Items {
					w("- %s\n", it)
				}
			}
		}
	}

	if d.ShowClusters && (len(d.Groups) > 0 || len(d.GeoClusters) > 0) {
		w("\n## Campaign Groups\n")
		for _, g := range d.Groups {
			w("\n- **%s**: %s\n", g.Name, strings.Join(g.Items, ", "))
		}
		if len(d.GeoClusters) > 0 {
			w("\n### Geographic Clusters\n\n")
			for _, c := range d.GeoClusters {
				w("- %s: %s\n", c.Name, strings.Join(c.Items, ", "))
			}
		}
	}

	if d.ShowSkipped {
		w("\n## Skipped Series\n\n| Theme | Window | Reason |\n|---|---|---|\n")
		for _, s := range d.Skipped {
			w("| %s | %s | %s |\n", cell(s.Theme), s.Timeframe, cell(s.Reason))
		}
	}

	return sb.String()
}

func writeGeo(sb *strings.Builder, d Data) {
	if len(d.Emerging)+len(d.Declining)+len(d.StableLeaders)+len(d.RegionLeaders) == 0 {
		return
	}
	sb.WriteString("\n## Geographic Market Evolution\n")
	if len(d.Emerging) > 0 {
		sb.WriteString("\n### Emerging Markets\n\n")
		for _, e := range d.Emerging {
			fmt.Fprintf(sb, "- **%s**: %s\n", e.Name, strings.Join(firstN(e.Items, 3), ", "))
		}
	}
	if len(d.Declining) > 0 {
		sb.WriteString("\n### Declining Markets\n\n")
		for _, e := range d.Declining {
			fmt.Fprintf(sb, "- **%s**: %s\n", e.Name, strings.Join(firstN(e.Items, 3), ", "))
		}
	}
	if len(d.StableLeaders) > 0 {
		sb.WriteString("\n### Stable Market Leaders\n\n")
		for _, s := range d.StableLeaders {
			fmt.Fprintf(sb, "- **%s**: popular for %s\n", s.Name, strings.Join(firstN(s.Items, 3), ", "))
		}
	}
	if len(d.RegionLeaders) > 0 {
		sb.WriteString("\n### Top Regions Across Themes\n\n| Region | Total Score | Top Themes |\n|---|---|---|\n")
		for _, r := range d.RegionLeaders {
			fmt.Fprintf(sb, "| %s | %s | %s |\n", cell(r.Region), r.Score, cell(strings.Join(r.Themes, ", ")))
		}
	}
}

// cell escapes pipes so a value cannot break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
