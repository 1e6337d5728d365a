package datasource

import (
	"context"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// HeuristicPlanner estimates keyword metrics offline from keyword terms. It
// stands in for the Keyword Planner when no Ads credentials are configured.
type HeuristicPlanner struct{}

// NewHeuristicPlanner returns the offline estimator.
func NewHeuristicPlanner() *HeuristicPlanner { return &HeuristicPlanner{} }

// Name returns the source name.
func (h *HeuristicPlanner) Name() string { return "Heuristic estimates" }

type termEstimate struct {
	term     string
	searches int64
}

// Ordered: the first contained term wins.
var searchEstimates = []termEstimate{
	{"park city real estate", 12000},
	{"park city utah", 8000},
	{"deer valley real estate", 6000},
	{"heber utah real estate", 4000},
	{"kamas real estate", 2000},
	{"utah real estate", 15000},
	{"ski in ski out", 3000},
	{"luxury real estate", 8000},
	{"montana real estate", 8000},
	{"billings montana real estate", 3000},
	{"missoula montana real estate", 2500},
	{"bozeman montana real estate", 2000},
	{"montana ski real estate", 1500},
	{"montana luxury real estate", 1200},
}

var (
	emergingMarketTerms = []string{"montana", "billings", "missoula", "bozeman"}
	highCompetition     = []string{"real estate", "park city", "utah", "luxury"}
	mediumCompetition   = []string{"deer valley", "heber", "kamas", "ski"}
	highCPCTerms        = []string{"luxury", "deer valley", "park city"}
	mediumCPCTerms      = []string{"real estate", "utah", "ski"}
)

// CPC estimates in USD.
const (
	emergingCPC = 6.50
	highCPC     = 18.50
	mediumCPC   = 12.75
	baseCPC     = 8.25
)

// KeywordMetrics implements KeywordSource. It never fails.
func (h *HeuristicPlanner) KeywordMetrics(_ context.Context, keywords []string) (map[string]models.KeywordMetrics, error) {
	out := make(map[string]models.KeywordMetrics, len(keywords))
	for _, kw := range keywords {
		out[kw] = Estimate(kw)
	}
	return out, nil
}

// Estimate returns heuristic metrics for one keyword. Bids bracket the cpc
// at 70% and 130%.
func Estimate(keyword string) models.KeywordMetrics {
	cpc := EstimateCPC(keyword)
	return models.KeywordMetrics{
		Keyword:            keyword,
		AvgMonthlySearches: EstimateMonthlySearches(keyword),
		Competition:        EstimateCompetition(keyword),
		CPC:                &cpc,
		LowBid:             cpc * 0.7,
		HighBid:            cpc * 1.3,
		Source:             "heuristic",
	}
}

// EstimateMonthlySearches guesses monthly search volume.
func EstimateMonthlySearches(keyword string) int64 {
	kw := strings.ToLower(keyword)
	for _, e := range searchEstimates {
		if strings.Contains(kw, e.term) {
			return e.searches
		}
	}
	if containsAny(kw, "montana") {
		return 2000
	}
	switch n := len(strings.Fields(kw)); {
	case n >= 3:
		return 2000
	case n == 2:
		return 5000
	default:
		return 8000
	}
}

// EstimateCompetition guesses the competition level. Emerging markets are LOW.
func EstimateCompetition(keyword string) models.CompetitionLevel {
	kw := strings.ToLower(keyword)
	switch {
	case containsAny(kw, emergingMarketTerms...):
		return models.CompetitionLow
	case containsAny(kw, highCompetition...):
		return models.CompetitionHigh
	case containsAny(kw, mediumCompetition...):
		return models.CompetitionMedium
	default:
		return models.CompetitionLow
	}
}

// EstimateCPC guesses cost per click in USD.
func EstimateCPC(keyword string) float64 {
	kw := strings.ToLower(keyword)
	switch {
	case containsAny(kw, emergingMarketTerms...):
		return emergingCPC
	case containsAny(kw, highCPCTerms...):
		return highCPC
	case containsAny(kw, mediumCPCTerms...):
		return mediumCPC
	default:
		return baseCPC
	}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
