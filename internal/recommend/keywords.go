package recommend

import (
	"sort"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Composite keyword score weights.
const (
	interestWeight = 0.5
	marketWeight   = 0.3
	trendWeight    = 0.2

	defaultMarketBonus = 50.0
)

// DefaultMarketBonus scores each market's strength on a 0-100 scale. Keys
// are normalized theme names; unlisted markets score 50.
var DefaultMarketBonus = map[string]float64{
	"Park City Real Estate":        100,
	"Deer Valley Real Estate":      95,
	"Deer Valley East Real Estate": 90,
	"Heber Utah Real Estate":       85,
	"Kamas Real Estate":            80,
	"Glenwild":                     75,
	"Promontory Park City":         70,
	"Red Ledges Real Estate":       65,
	"Ski In Ski Out Home For Sale": 60,
	"Victory Ranch Real Estate":    55,
}

// KeywordCandidate is one keyword considered for ranking.
type KeywordCandidate struct {
	Keyword   string
	Market    string  // theme the keyword was found under
	Interest  float64 // 0-100 related-query score
	Direction models.TrendDirection
}

type keywordStrategy struct {
	min      float64
	priority models.KeywordPriority
	budget   float64
	cpc      float64
	reason   string
}

// Evaluated top to bottom against the composite score.
var keywordStrategies = []keywordStrategy{
	{80, models.KeywordPriorityHigh, 800, 15, "High search volume + trending market = strong opportunity"},
	{65, models.KeywordPriorityMedium, 600, 12, "Good search volume with stable trends = reliable traffic"},
	{50, models.KeywordPriorityLow, 400, 8, "Moderate volume, test with smaller budget first"},
	{0, models.KeywordPriorityMonitor, 200, 5, "Low volume or declining trend, monitor for changes"},
}

// TrendBonus scores a market's trend direction on a 0-100 scale.
func TrendBonus(d models.TrendDirection) float64 {
	switch d {
	case models.TrendAccelerating:
		return 100
	case models.TrendStable:
		return 75
	case models.TrendDecelerating:
		return 25
	}
	return 50
}

// RankKeywords scores candidates as 0.5*interest + 0.3*market + 0.2*trend,
// attaches a budget strategy and returns them best first. A nil bonus map
// uses DefaultMarketBonus. Duplicate (keyword, market) pairs keep the
// highest interest. limit <= 0 returns every keyword.
func RankKeywords(cands []KeywordCandidate, bonus map[string]float64, limit int) []models.RankedKeyword {
	if bonus == nil {
		bonus = DefaultMarketBonus
	}
	normBonus := make(map[string]float64, len(bonus))
	for k, v := range bonus {
		normBonus[strings.ToLower(utils.NormalizeTheme(k))] = v
	}

	type key struct{ kw, market string }
	best := make(map[key]KeywordCandidate, len(cands))
	for _, c := range cands {
		c.Keyword = strings.TrimSpace(c.Keyword)
		if c.Keyword == "" {
			continue
		}
		c.Market = utils.NormalizeTheme(c.Market)
		k := key{strings.ToLower(c.Keyword), strings.ToLower(c.Market)}
		if cur, ok := best[k]; !ok || c.Interest > cur.Interest {
			best[k] = c
		}
	}

	out := make([]models.RankedKeyword, 0, len(best))
	for _, c := range best {
		market, ok := normBonus[strings.ToLower(c.Market)]
		if !ok {
			market = defaultMarketBonus
		}
		score := c.Interest*interestWeight + market*marketWeight + TrendBonus(c.Direction)*trendWeight
		st := strategyFor(score)
		out = append(out, models.RankedKeyword{
			Keyword:         c.Keyword,
			Market:          c.Market,
			Score:           score,
			InterestScore:   c.Interest,
			TrendDirection:  c.Direction,
			Priority:        st.priority,
			SuggestedBudget: st.budget,
			EstimatedCPC:    st.cpc,
			Reasoning:       st.reason,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Keyword != out[j].Keyword {
			return out[i].Keyword < out[j].Keyword
		}
		return out[i].Market < out[j].Market
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func strategyFor(score float64) keywordStrategy {
	for _, s := range keywordStrategies {
		if score >= s.min {
			return s
		}
	}
	return keywordStrategies[len(keywordStrategies)-1]
}
