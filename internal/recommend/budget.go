package recommend

import (
	"fmt"
	"sort"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Share of the ads budget per tier before redistribution.
var tierShares = map[models.BudgetTier]float64{
	models.BudgetCore:    0.50,
	models.BudgetStable:  0.30,
	models.BudgetTest:    0.15,
	models.BudgetMonitor: 0.05,
}

var tierOrder = []models.BudgetTier{models.BudgetCore, models.BudgetStable, models.BudgetTest, models.BudgetMonitor}

// SplitBudget divides a monthly budget into ads, testing and tools.
// Smaller budgets put more into ads.
func SplitBudget(monthly float64) models.BudgetSplit {
	if monthly < 0 {
		monthly = 0
	}
	var ads, testing, tools float64
	switch {
	case monthly <= 1500:
		ads, testing, tools = 0.80, 0.15, 0.05
	case monthly <= 2200:
		ads, testing, tools = 0.70, 0.20, 0.10
	default:
		ads, testing, tools = 0.65, 0.25, 0.10
	}
	return models.BudgetSplit{
		Monthly:      monthly,
		Ads:          monthly * ads,
		Testing:      monthly * testing,
		Tools:        monthly * tools,
		DailyAds:     monthly * ads / 30,
		MaxCPCTarget: monthly / 100,
	}
}

// Plan allocates the ads budget across recommendations by budget tier.
// Shares of tiers with no themes are redistributed proportionally over the
// tiers that have themes; each tier's share is split evenly among its themes.
func Plan(recs []models.Recommendation, monthly float64) models.CampaignPlan {
	plan := models.CampaignPlan{Split: SplitBudget(monthly)}
	if len(recs) == 0 {
		return plan
	}

	byTier := make(map[models.BudgetTier][]models.Recommendation)
	for _, r := range recs {
		tier := r.BudgetTier
		if _, ok := tierShares[tier]; !ok {
			tier = BudgetTierFor(r.PriorityTier)
		}
		byTier[tier] = append(byTier[tier], r)
	}

	active := 0.0
	for tier, rs := range byTier {
		if len(rs) > 0 {
			active += tierShares[tier]
		}
	}

	for _, tier := range tierOrder {
		rs := byTier[tier]
		if len(rs) == 0 {
			continue
		}
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Theme < rs[j].Theme })
		share := tierShares[tier] / active / float64(len(rs))
		for _, r := range rs {
			amount := plan.Split.Ads * share
			plan.Allocations = append(plan.Allocations, models.BudgetAllocation{
				Theme:      r.Theme,
				BudgetTier: tier,
				Share:      share,
				Monthly:    amount,
				Daily:      amount / 30,
			})
			if adj := SeasonalAdjustment(r); adj != "" {
				plan.Adjustments = append(plan.Adjustments, adj)
			}
		}
	}
	return plan
}

// SeasonalAdjustment phrases the peak-month budget increase for r, or "".
func SeasonalAdjustment(r models.Recommendation) string {
	if r.SeasonalBoostPct <= 0 || r.PeakPeriod == "" || r.PeakPeriod == models.PeakUnknown {
		return ""
	}
	return fmt.Sprintf("Increase %s budget in %s by %.0f%%", utils.ShortThemeName(r.Theme), r.PeakPeriod, r.SeasonalBoostPct)
}
