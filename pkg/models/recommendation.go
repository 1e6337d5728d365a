package models

import (
	"fmt"
	"strings"
)

// PriorityTier is the decisional output of the recommendation selector.
type PriorityTier string

const (
	PriorityHigh      PriorityTier = "HIGH"
	PriorityMedium    PriorityTier = "MEDIUM"
	PriorityLow       PriorityTier = "LOW"
	PriorityDefensive PriorityTier = "DEFENSIVE"
)

// Rank orders tiers for sorting (HIGH first).
func (p PriorityTier) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	case PriorityDefensive:
		return 3
	}
	return 4
}

// CompetitionLevel is the Keyword Planner competition bucket.
type CompetitionLevel string

const (
	CompetitionUnknown CompetitionLevel = ""
	CompetitionLow     CompetitionLevel = "LOW"
	CompetitionMedium  CompetitionLevel = "MEDIUM"
	CompetitionHigh    CompetitionLevel = "HIGH"
)

// ParseCompetition maps API and spreadsheet spellings onto a level.
// Anything unrecognised (including "UNSPECIFIED") is CompetitionUnknown.
func ParseCompetition(s string) CompetitionLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return CompetitionLow
	case "MEDIUM", "MED":
		return CompetitionMedium
	case "HIGH":
		return CompetitionHigh
	}
	return CompetitionUnknown
}

// BudgetTier is the campaign budget bucket a priority maps onto.
type BudgetTier string

const (
	BudgetCore    BudgetTier = "CORE"
	BudgetStable  BudgetTier = "STABLE"
	BudgetTest    BudgetTier = "TEST"
	BudgetMonitor BudgetTier = "MONITOR"
)

// KeywordMetrics holds Keyword Planner figures for one keyword or theme.
type KeywordMetrics struct {
	Keyword            string           `json:"keyword"`
	AvgMonthlySearches int64            `json:"avg_monthly_searches"`
	Competition        CompetitionLevel `json:"competition"`
	CompetitionIndex   int              `json:"competition_index,omitempty"` // 0-100
	CPC                *float64         `json:"cpc,omitempty"`               // USD, nil when unknown
	LowBid             float64          `json:"low_bid,omitempty"`
	HighBid            float64          `json:"high_bid,omitempty"`
	Source             string           `json:"source"` // "google_ads" or "heuristic"
}

// String implements fmt.Stringer for log lines.
func (k KeywordMetrics) String() string {
	cpc := "n/a"
	if k.CPC != nil {
		cpc = fmt.Sprintf("$%.2f", *k.CPC)
	}
	return fmt.Sprintf("%s searches=%d competition=%s cpc=%s", k.Keyword, k.AvgMonthlySearches, k.Competition, cpc)
}

// Recommendation is the advisory output for one theme. Never persisted.
type Recommendation struct {
	Theme            string       `json:"theme"`
	PriorityTier     PriorityTier `json:"priority_tier"`
	RationaleTags    []string     `json:"rationale_tags"` // sorted, unique
	Rule             string       `json:"rule"`           // deciding rule name
	BudgetTier       BudgetTier   `json:"budget_tier"`
	SeasonalBoostPct float64      `json:"seasonal_boost_pct,omitempty"`
	PeakPeriod       string       `json:"peak_period,omitempty"`
}

// HasTag reports whether tag fired for this recommendation.
func (r Recommendation) HasTag(tag string) bool {
	for _, t := range r.RationaleTags {
		if t == tag {
			return true
		}
	}
	return false
}

// BudgetAllocation is one theme's share of the monthly ad spend.
type BudgetAllocation struct {
	Theme      string     `json:"theme"`
	BudgetTier BudgetTier `json:"budget_tier"`
	Share      float64    `json:"share"` // fraction of the ads budget, 0-1
	Monthly    float64    `json:"monthly"`
	Daily      float64    `json:"daily"`
}

// BudgetSplit is the top-level monthly budget breakdown.
type BudgetSplit struct {
	Monthly      float64 `json:"monthly"`
	Ads          float64 `json:"ads"`
	Testing      float64 `json:"testing"`
	Tools        float64 `json:"tools"`
	DailyAds     float64 `json:"daily_ads"`
	MaxCPCTarget float64 `json:"max_cpc_target"`
}

// CampaignPlan groups allocations and seasonal timing adjustments.
type CampaignPlan struct {
	Split       BudgetSplit        `json:"split"`
	Allocations []BudgetAllocation `json:"allocations"`
	Adjustments []string           `json:"adjustments,omitempty"`
}

// KeywordPriority is the budget bucket of a ranked keyword.
type KeywordPriority string

const (
	KeywordPriorityHigh    KeywordPriority = "High Priority"
	KeywordPriorityMedium  KeywordPriority = "Medium Priority"
	KeywordPriorityLow     KeywordPriority = "Low Priority"
	KeywordPriorityMonitor KeywordPriority = "Monitor Only"
)

// RankedKeyword is a related query scored for the "top keywords for your
// budget" list: interest, market strength and the market's trend combined.
type RankedKeyword struct {
	Keyword         string          `json:"keyword"`
	Market          string          `json:"market"`
	Score           float64         `json:"score"`
	InterestScore   float64         `json:"interest_score"`
	TrendDirection  TrendDirection  `json:"trend_direction,omitempty"`
	Priority        KeywordPriority `json:"priority"`
	SuggestedBudget float64         `json:"suggested_budget"` // USD per month
	EstimatedCPC    float64         `json:"estimated_cpc"`
	Reasoning       string          `json:"reasoning"`
}
