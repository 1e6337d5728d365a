package recommend

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

func ptr(f float64) *float64 { return &f }

func TestSelectDecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		wantTier models.PriorityTier
		wantRule string
	}{
		{
			name:     "defensive wins over everything",
			in:       Input{MomentumScore: -25, Direction: models.TrendAccelerating, Competition: models.CompetitionLow, CPC: ptr(0.5), AvgVolume: 90},
			wantTier: models.PriorityDefensive,
			wantRule: RuleDefensive,
		},
		{
			name:     "growth engine",
			in:       Input{MomentumScore: 35, Direction: models.TrendAccelerating, Competition: models.CompetitionMedium, CPC: ptr(3)},
			wantTier: models.PriorityHigh,
			wantRule: RuleGrowthEngine,
		},
		{
			name:     "growth blocked by high competition falls to high value",
			in:       Input{MomentumScore: 35, Direction: models.TrendAccelerating, Competition: models.CompetitionHigh, CPC: ptr(8)},
			wantTier: models.PriorityMedium,
			wantRule: RuleHighValueTarget,
		},
		{
			name:     "low cost opportunity",
			in:       Input{MomentumScore: 5, Direction: models.TrendStable, Competition: models.CompetitionLow, CPC: ptr(0.75)},
			wantTier: models.PriorityHigh,
			wantRule: RuleLowCostOpportunity,
		},
		{
			name:     "growth engine before low cost",
			in:       Input{MomentumScore: 50, Direction: models.TrendAccelerating, Competition: models.CompetitionLow, CPC: ptr(0.5)},
			wantTier: models.PriorityHigh,
			wantRule: RuleGrowthEngine,
		},
		{
			name:     "default low",
			in:       Input{MomentumScore: 10, Direction: models.TrendStable, Competition: models.CompetitionMedium, CPC: ptr(2)},
			wantTier: models.PriorityLow,
			wantRule: RuleDefault,
		},
		{
			name:     "exactly -20 is not defensive",
			in:       Input{MomentumScore: -20, Competition: models.CompetitionMedium, CPC: ptr(2)},
			wantTier: models.PriorityLow,
			wantRule: RuleDefault,
		},
		{
			name:     "exactly 20 is not growth",
			in:       Input{MomentumScore: 20, Direction: models.TrendAccelerating, Competition: models.CompetitionMedium, CPC: ptr(2)},
			wantTier: models.PriorityLow,
			wantRule: RuleDefault,
		},
		{
			name:     "cpc exactly 5 is not high value",
			in:       Input{Competition: models.CompetitionHigh, CPC: ptr(5)},
			wantTier: models.PriorityLow,
			wantRule: RuleDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Select(tt.in)
			if rec.PriorityTier != tt.wantTier || rec.Rule != tt.wantRule {
				t.Errorf("Select = %s/%s, want %s/%s (tags %v)", rec.PriorityTier, rec.Rule, tt.wantTier, tt.wantRule, rec.RationaleTags)
			}
		})
	}
}

func TestSelectUnknownInputsAreConservative(t *testing.T) {
	// Unknown competition counts as HIGH, so growth is blocked even with strong momentum.
	rec := Select(Input{MomentumScore: 60, Direction: models.TrendAccelerating, AvgVolume: 50})
	if rec.PriorityTier != models.PriorityLow {
		t.Errorf("tier = %s, want LOW", rec.PriorityTier)
	}
	for _, tag := range []string{TagUnknownCompetition, TagUnknownCPC, TagHighMomentum, TagAccelerating, TagHighVolume} {
		if !rec.HasTag(tag) {
			t.Errorf("missing tag %q in %v", tag, rec.RationaleTags)
		}
	}
	if rec.HasTag(TagHighCompetition) {
		t.Error("assumed competition should not be reported as observed high-competition")
	}
	if rec.HasTag(TagLowCPC) {
		t.Error("unknown cpc should not be tagged low-cpc")
	}

	for _, bad := range []float64{math.NaN(), -3, math.Inf(1)} {
		rec := Select(Input{Competition: models.CompetitionMedium, CPC: ptr(bad)})
		if !rec.HasTag(TagUnknownCPC) || rec.PriorityTier != models.PriorityLow {
			t.Errorf("cpc %v: tier %s tags %v", bad, rec.PriorityTier, rec.RationaleTags)
		}
	}
}

func TestSelectTagsAccumulate(t *testing.T) {
	rec := Select(Input{
		MomentumScore:       40,
		Direction:           models.TrendAccelerating,
		Competition:         models.CompetitionLow,
		CPC:                 ptr(0.4),
		AvgVolume:           12,
		SeasonalityStrength: 1.6,
		PeakPeriod:          "July",
		ExtraTags:           []string{TagTrendingNow},
	})
	want := []string{
		TagAccelerating, RuleGrowthEngine, TagHighMomentum, RuleLowCostOpportunity,
		TagLowCPC, TagLowVolume, TagSeasonalPeak, TagTrendingNow,
	}
	sort.Strings(want)
	if !reflect.DeepEqual(rec.RationaleTags, want) {
		t.Errorf("tags = %v, want %v", rec.RationaleTags, want)
	}
	if !sort.StringsAreSorted(rec.RationaleTags) {
		t.Error("tags must be sorted")
	}
	if math.Abs(rec.SeasonalBoostPct-60) > 1e-9 || rec.PeakPeriod != "July" {
		t.Errorf("seasonal boost = %v in %q", rec.SeasonalBoostPct, rec.PeakPeriod)
	}
}

func TestSelectMonotonicDefensiveness(t *testing.T) {
	for _, comp := range []models.CompetitionLevel{models.CompetitionLow, models.CompetitionMedium, models.CompetitionHigh, models.CompetitionUnknown} {
		for _, cpc := range []*float64{nil, ptr(0.2), ptr(3), ptr(12)} {
			for _, dir := range []models.TrendDirection{models.TrendAccelerating, models.TrendStable, models.TrendDecelerating} {
				for _, m := range []float64{-20.01, -35, -80, -1000} {
					rec := Select(Input{MomentumScore: m, Direction: dir, Competition: comp, CPC: cpc, AvgVolume: 100})
					if rec.PriorityTier != models.PriorityDefensive {
						t.Fatalf("momentum %v comp %q dir %s: tier %s", m, comp, dir, rec.PriorityTier)
					}
				}
			}
		}
	}
}

func TestSelectStepScenario(t *testing.T) {
	// momentum 50, STABLE: rule 2 cannot fire, so the tier depends on rules 3-5.
	base := Input{MomentumScore: 50, Direction: models.TrendStable, AvgVolume: 20}
	tests := []struct {
		comp models.CompetitionLevel
		cpc  float64
		want models.PriorityTier
		rule string
	}{
		{models.CompetitionLow, 0.8, models.PriorityHigh, RuleLowCostOpportunity},
		{models.CompetitionHigh, 6, models.PriorityMedium, RuleHighValueTarget},
		{models.CompetitionMedium, 0.8, models.PriorityLow, RuleDefault},
		{models.CompetitionLow, 2, models.PriorityLow, RuleDefault},
	}
	for _, tt := range tests {
		in := base
		in.Competition = tt.comp
		in.CPC = ptr(tt.cpc)
		rec := Select(in)
		if rec.PriorityTier != tt.want || rec.Rule != tt.rule {
			t.Errorf("%s/%v: got %s/%s, want %s/%s", tt.comp, tt.cpc, rec.PriorityTier, rec.Rule, tt.want, tt.rule)
		}
		if rec.HasTag(RuleGrowthEngine) {
			t.Errorf("%s/%v: growth-engine should not fire on STABLE", tt.comp, tt.cpc)
		}
	}
}

func TestBudgetTierFor(t *testing.T) {
	tests := map[models.PriorityTier]models.BudgetTier{
		models.PriorityHigh:      models.BudgetCore,
		models.PriorityMedium:    models.BudgetStable,
		models.PriorityLow:       models.BudgetTest,
		models.PriorityDefensive: models.BudgetMonitor,
	}
	for p, want := range tests {
		if got := BudgetTierFor(p); got != want {
			t.Errorf("BudgetTierFor(%s) = %s, want %s", p, got, want)
		}
	}
}

func TestFromMetrics(t *testing.T) {
	m := models.ThemeMetrics{Theme: "Kamas Real Estate", MomentumScore: 30, TrendDirection: models.TrendAccelerating, AvgVolume: 15, PeakPeriod: "June", SeasonalityStrength: 1.3}
	in := FromMetrics(m, nil)
	if in.Competition != models.CompetitionUnknown || in.CPC != nil {
		t.Error("missing keyword metrics should leave competition and cpc unknown")
	}
	kw := &models.KeywordMetrics{Competition: models.CompetitionLow, CPC: ptr(0.9)}
	in = FromMetrics(m, kw)
	if in.Competition != models.CompetitionLow || *in.CPC != 0.9 || in.PeakPeriod != "June" {
		t.Errorf("FromMetrics = %+v", in)
	}
}

func TestSortRecommendations(t *testing.T) {
	recs := []models.Recommendation{
		{Theme: "B", PriorityTier: models.PriorityLow},
		{Theme: "C", PriorityTier: models.PriorityHigh},
		{Theme: "A", PriorityTier: models.PriorityLow},
		{Theme: "D", PriorityTier: models.PriorityDefensive},
	}
	SortRecommendations(recs)
	var got []string
	for _, r := range recs {
		got = append(got, r.Theme)
	}
	if !reflect.DeepEqual(got, []string{"C", "A", "B", "D"}) {
		t.Errorf("order = %v", got)
	}
}
