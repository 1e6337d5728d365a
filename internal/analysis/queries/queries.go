// Package queries compares related-search queries across timeframes and
// ranks keywords that recur across themes.
package queries

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

const (
	recentTopN   = 10 // TOP queries taken from each export
	shiftListCap = 5
)

// Breakouts lists queries that entered (recent SHORT set minus LONG set) or
// left (LONG minus SHORT) each theme's related queries. A theme's set is its
// first ten TOP queries plus every RISING query. Themes missing either
// timeframe are skipped.
func Breakouts(all []models.RelatedQueries) []models.KeywordShift {
	sets := make(map[string]map[models.Timeframe]map[string]struct{})
	for _, rq := range all {
		if sets[rq.Theme] == nil {
			sets[rq.Theme] = make(map[models.Timeframe]map[string]struct{})
		}
		set := sets[rq.Theme][rq.Timeframe]
		if set == nil {
			set = make(map[string]struct{})
			sets[rq.Theme][rq.Timeframe] = set
		}
		for i, q := range rq.Top {
			if i >= recentTopN {
				break
			}
			addQuery(set, q.Query)
		}
		for _, q := range rq.Rising {
			addQuery(set, q.Query)
		}
	}

	themes := make([]string, 0, len(sets))
	for t := range sets {
		themes = append(themes, t)
	}
	sort.Strings(themes)

	var out []models.KeywordShift
	for _, theme := range themes {
		recent, okR := sets[theme][models.TimeframeShort]
		historical, okH := sets[theme][models.TimeframeLong]
		if !okR || !okH {
			continue
		}
		out = append(out, models.KeywordShift{
			Theme:     theme,
			Breakout:  capList(minus(recent, historical)),
			Declining: capList(minus(historical, recent)),
		})
	}
	return out
}

// HighValue ranks TOP queries with numeric scores across themes by
// total score + max score + number of themes that list them.
func HighValue(all []models.RelatedQueries, limit int) []models.HighValueKeyword {
	type agg struct {
		total, max float64
		markets    map[string]struct{}
	}
	byQuery := make(map[string]*agg)
	for _, rq := range all {
		for _, q := range rq.Top {
			score, ok := NumericScore(q.Score)
			if !ok {
				continue
			}
			query := normalizeQuery(q.Query)
			if query == "" {
				continue
			}
			a := byQuery[query]
			if a == nil {
				a = &agg{markets: make(map[string]struct{})}
				byQuery[query] = a
			}
			a.total += score
			if score > a.max {
				a.max = score
			}
			a.markets[rq.Theme] = struct{}{}
		}
	}

	out := make([]models.HighValueKeyword, 0, len(byQuery))
	for q, a := range byQuery {
		out = append(out, models.HighValueKeyword{
			Query:       q,
			TotalScore:  a.total,
			MaxScore:    a.max,
			MarketCount: len(a.markets),
		})
	}
	rank := func(k models.HighValueKeyword) float64 {
		return k.TotalScore + k.MaxScore + float64(k.MarketCount)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri > rj
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NumericScore parses a TOP-section score ("100", "<1" is not numeric).
// RISING scores such as "+250%" or "Breakout" are rejected.
func NumericScore(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "%+<") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func addQuery(set map[string]struct{}, q string) {
	if q = normalizeQuery(q); q != "" {
		set[q] = struct{}{}
	}
}

func minus(a, b map[string]struct{}) []string {
	var out []string
	for q := range a {
		if _, ok := b[q]; !ok {
			out = append(out, q)
		}
	}
	sort.Strings(out)
	return out
}

func capList(s []string) []string {
	if len(s) > shiftListCap {
		return s[:shiftListCap]
	}
	return s
}
