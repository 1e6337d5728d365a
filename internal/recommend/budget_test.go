package recommend

import (
	"math"
	"testing"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

func TestSplitBudget(t *testing.T) {
	tests := []struct {
		monthly, ads, testing, tools float64
	}{
		{1000, 800, 150, 50},
		{1500, 1200, 225, 75},
		{2000, 1400, 400, 200},
		{3000, 1950, 750, 300},
	}
	for _, tt := range tests {
		s := SplitBudget(tt.monthly)
		if math.Abs(s.Ads-tt.ads) > 1e-9 || math.Abs(s.Testing-tt.testing) > 1e-9 || math.Abs(s.Tools-tt.tools) > 1e-9 {
			t.Errorf("SplitBudget(%v) = %+v", tt.monthly, s)
		}
		if math.Abs(s.MaxCPCTarget-tt.monthly/100) > 1e-9 {
			t.Errorf("MaxCPCTarget = %v", s.MaxCPCTarget)
		}
		if math.Abs(s.DailyAds-tt.ads/30) > 1e-9 {
			t.Errorf("DailyAds = %v", s.DailyAds)
		}
	}
}

func TestPlanAllTiers(t *testing.T) {
	recs := []models.Recommendation{
		{Theme: "Park City Real Estate", PriorityTier: models.PriorityHigh, BudgetTier: models.BudgetCore},
		{Theme: "Deer Valley Real Estate", PriorityTier: models.PriorityMedium, BudgetTier: models.BudgetStable},
		{Theme: "Kamas Real Estate", PriorityTier: models.PriorityLow, BudgetTier: models.BudgetTest},
		{Theme: "Glenwild", PriorityTier: models.PriorityDefensive, BudgetTier: models.BudgetMonitor},
	}
	plan := Plan(recs, 1000)
	want := map[string]float64{
		"Park City Real Estate":   400,
		"Deer Valley Real Estate": 240,
		"Kamas Real Estate":       120,
		"Glenwild":                40,
	}
	if len(plan.Allocations) != 4 {
		t.Fatalf("expected 4 allocations, got %d", len(plan.Allocations))
	}
	total := 0.0
	for _, a := range plan.Allocations {
		if math.Abs(a.Monthly-want[a.Theme]) > 1e-9 {
			t.Errorf("%s monthly = %v, want %v", a.Theme, a.Monthly, want[a.Theme])
		}
		if math.Abs(a.Daily-a.Monthly/30) > 1e-9 {
			t.Errorf("%s daily = %v", a.Theme, a.Daily)
		}
		total += a.Monthly
	}
	if math.Abs(total-plan.Split.Ads) > 1e-9 {
		t.Errorf("allocations sum %v, want ads budget %v", total, plan.Split.Ads)
	}
	if plan.Allocations[0].BudgetTier != models.BudgetCore {
		t.Errorf("first allocation tier = %s, want CORE", plan.Allocations[0].BudgetTier)
	}
}

func TestPlanRedistributesEmptyTiers(t *testing.T) {
	recs := []models.Recommendation{
		{Theme: "A", PriorityTier: models.PriorityHigh, BudgetTier: models.BudgetCore},
		{Theme: "B", PriorityTier: models.PriorityHigh, BudgetTier: models.BudgetCore},
		{Theme: "C", PriorityTier: models.PriorityLow}, // tier derived from priority
	}
	plan := Plan(recs, 2000)
	// CORE 0.50 and TEST 0.15 renormalised over 0.65; CORE split between two themes.
	shares := map[string]float64{"A": 0.25 / 0.65, "B": 0.25 / 0.65, "C": 0.15 / 0.65}
	sum := 0.0
	for _, a := range plan.Allocations {
		if math.Abs(a.Share-shares[a.Theme]) > 1e-9 {
			t.Errorf("%s share = %v, want %v", a.Theme, a.Share, shares[a.Theme])
		}
		sum += a.Share
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("shares sum to %v, want 1", sum)
	}
}

func TestPlanEmpty(t *testing.T) {
	plan := Plan(nil, 2000)
	if len(plan.Allocations) != 0 || plan.Split.Monthly != 2000 {
		t.Errorf("empty plan = %+v", plan)
	}
}

func TestSeasonalAdjustment(t *testing.T) {
	r := models.Recommendation{Theme: "Park City Real Estate", SeasonalBoostPct: 42.4, PeakPeriod: "February"}
	want := "Increase Park City budget in February by 42%"
	if got := SeasonalAdjustment(r); got != want {
		t.Errorf("SeasonalAdjustment = %q, want %q", got, want)
	}
	r.PeakPeriod = models.PeakUnknown
	if SeasonalAdjustment(r) != "" {
		t.Error("unknown peak should yield no adjustment")
	}

	plan := Plan([]models.Recommendation{{Theme: "Park City Real Estate", PriorityTier: models.PriorityHigh, SeasonalBoostPct: 10, PeakPeriod: "July"}}, 1000)
	if len(plan.Adjustments) != 1 {
		t.Errorf("expected 1 adjustment, got %v", plan.Adjustments)
	}
}
