// Package recommend turns theme metrics and keyword economics into a
// campaign priority, rationale tags and a budget plan.
package recommend

import (
	"math"
	"sort"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Decision thresholds.
const (
	MomentumDefensive   = -20.0 // below: DEFENSIVE
	MomentumGrowth      = 20.0  // above (with acceleration): growth engine
	LowCPC              = 1.00
	HighCPC             = 5.00
	HighVolumeThreshold = 20.0 // mean interest index
	SeasonalPeakMin     = 1.25 // seasonality strength that earns a seasonal-peak tag
)

// Rule names, also used as rationale tags for the deciding rule.
const (
	RuleDefensive          = "declining-momentum"
	RuleGrowthEngine       = "growth-engine"
	RuleLowCostOpportunity = "low-cost-opportunity"
	RuleHighValueTarget    = "high-value-target"
	RuleDefault            = "default"
)

// Rationale tags.
const (
	TagHighMomentum       = "high-momentum"
	TagAccelerating       = "accelerating"
	TagDecelerating       = "decelerating"
	TagLowCPC             = "low-cpc"
	TagHighCompetition    = "high-competition"
	TagHighVolume         = "high-volume"
	TagLowVolume          = "low-volume"
	TagUnknownCompetition = "unknown-competition"
	TagUnknownCPC         = "unknown-cpc"
	TagSeasonalPeak       = "seasonal-peak"
	TagTrendingNow        = "trending-now"
)

// Input is everything the selector looks at for one theme.
type Input struct {
	Theme         string
	MomentumScore float64
	Direction     models.TrendDirection
	AvgVolume     float64
	Competition   models.CompetitionLevel // CompetitionUnknown is treated as HIGH
	CPC           *float64                // nil, NaN or negative is treated as 0

	// Optional seasonality timing signal.
	SeasonalityStrength float64
	PeakPeriod          string

	// ExtraTags are appended as-is (e.g. trending-now from the live feed).
	ExtraTags []string
}

// FromMetrics builds an Input from derived metrics and optional keyword figures.
func FromMetrics(m models.ThemeMetrics, kw *models.KeywordMetrics) Input {
	in := Input{
		Theme:               m.Theme,
		MomentumScore:       m.MomentumScore,
		Direction:           m.TrendDirection,
		AvgVolume:           m.AvgVolume,
		SeasonalityStrength: m.SeasonalityStrength,
		PeakPeriod:          m.PeakPeriod,
	}
	if kw != nil {
		in.Competition = kw.Competition
		in.CPC = kw.CPC
	}
	return in
}

// Select evaluates the decision table top to bottom; the first matching rule
// fixes the tier. Tags accumulate from every trigger that holds. Never fails.
func Select(in Input) models.Recommendation {
	tags := make(map[string]struct{})
	add := func(t string) { tags[t] = struct{}{} }

	competition := in.Competition
	switch competition {
	case models.CompetitionLow, models.CompetitionMedium, models.CompetitionHigh:
	default:
		add(TagUnknownCompetition)
		competition = models.CompetitionHigh
	}

	cpc := 0.0
	if in.CPC == nil || math.IsNaN(*in.CPC) || math.IsInf(*in.CPC, 0) || *in.CPC < 0 {
		add(TagUnknownCPC)
	} else {
		cpc = *in.CPC
		if cpc < LowCPC {
			add(TagLowCPC)
		}
	}

	momentum := in.MomentumScore
	if math.IsNaN(momentum) || math.IsInf(momentum, 0) {
		momentum = 0
	}

	declining := momentum < MomentumDefensive
	growth := momentum > MomentumGrowth && in.Direction == models.TrendAccelerating && competition != models.CompetitionHigh
	lowCost := cpc < LowCPC && competition == models.CompetitionLow
	highValue := competition == models.CompetitionHigh && cpc > HighCPC

	if declining {
		add(RuleDefensive)
	}
	if momentum > MomentumGrowth {
		add(TagHighMomentum)
	}
	switch in.Direction {
	case models.TrendAccelerating:
		add(TagAccelerating)
	case models.TrendDecelerating:
		add(TagDecelerating)
	}
	if growth {
		add(RuleGrowthEngine)
	}
	if lowCost {
		add(RuleLowCostOpportunity)
	}
	if competition == models.CompetitionHigh && in.Competition != models.CompetitionUnknown {
		add(TagHighCompetition)
	}
	if highValue {
		add(RuleHighValueTarget)
	}
	if in.AvgVolume >= HighVolumeThreshold {
		add(TagHighVolume)
	} else {
		add(TagLowVolume)
	}
	hasPeak := in.PeakPeriod != "" && in.PeakPeriod != models.PeakUnknown
	if hasPeak && in.SeasonalityStrength >= SeasonalPeakMin {
		add(TagSeasonalPeak)
	}
	for _, t := range in.ExtraTags {
		if t != "" {
			add(t)
		}
	}

	rec := models.Recommendation{Theme: in.Theme}
	switch {
	case declining:
		rec.PriorityTier, rec.Rule = models.PriorityDefensive, RuleDefensive
	case growth:
		rec.PriorityTier, rec.Rule = models.PriorityHigh, RuleGrowthEngine
	case lowCost:
		rec.PriorityTier, rec.Rule = models.PriorityHigh, RuleLowCostOpportunity
	case highValue:
		rec.PriorityTier, rec.Rule = models.PriorityMedium, RuleHighValueTarget
	default:
		rec.PriorityTier, rec.Rule = models.PriorityLow, RuleDefault
	}
	rec.BudgetTier = BudgetTierFor(rec.PriorityTier)

	if hasPeak && in.SeasonalityStrength > 1 && !math.IsInf(in.SeasonalityStrength, 0) {
		rec.PeakPeriod = in.PeakPeriod
		rec.SeasonalBoostPct = (in.SeasonalityStrength - 1) * 100
	}

	rec.RationaleTags = make([]string, 0, len(tags))
	for t := range tags {
		rec.RationaleTags = append(rec.RationaleTags, t)
	}
	sort.Strings(rec.RationaleTags)
	return rec
}

// BudgetTierFor maps a priority onto its budget bucket.
func BudgetTierFor(p models.PriorityTier) models.BudgetTier {
	switch p {
	case models.PriorityHigh:
		return models.BudgetCore
	case models.PriorityMedium:
		return models.BudgetStable
	case models.PriorityDefensive:
		return models.BudgetMonitor
	default:
		return models.BudgetTest
	}
}

// SortRecommendations orders by priority tier, then theme name.
func SortRecommendations(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if ri, rj := recs[i].PriorityTier.Rank(), recs[j].PriorityTier.Rank(); ri != rj {
			return ri < rj
		}
		return recs[i].Theme < recs[j].Theme
	})
}
