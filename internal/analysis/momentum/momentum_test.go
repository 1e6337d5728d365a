package momentum

import (
	"math"
	"testing"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// monthly builds a monthly series starting January 2022.
func monthly(values ...float64) models.ThemeSeries {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.InterestPoint, len(values))
	for i, v := range values {
		pts[i] = models.InterestPoint{PeriodStart: start.AddDate(0, i, 0), Value: v}
	}
	return models.ThemeSeries{Theme: "T", Timeframe: models.TimeframeMedium, Granularity: models.GranularityMonth, Points: pts}
}

// weekly builds a weekly series of n points from f(i).
func weekly(n int, f func(i int) float64) models.ThemeSeries {
	start := time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)
	pts := make([]models.InterestPoint, n)
	for i := range pts {
		pts[i] = models.InterestPoint{PeriodStart: start.AddDate(0, 0, 7*i), Value: f(i)}
	}
	return models.ThemeSeries{Theme: "T", Timeframe: models.TimeframeLong, Granularity: models.GranularityWeek, Points: pts}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculateStepScenario(t *testing.T) {
	vals := append(repeat(10, 12), repeat(30, 12)...)
	res := Calculate(monthly(vals...), Options{})

	if math.Abs(res.Score-50) > 1e-9 {
		t.Errorf("Score = %v, want 50", res.Score)
	}
	if res.Direction != models.TrendStable {
		t.Errorf("Direction = %s, want STABLE", res.Direction)
	}
	if res.Window != 12 {
		t.Errorf("Window = %d, want 12", res.Window)
	}
	if res.TrailingMean != 30 || res.FullMean != 20 {
		t.Errorf("means = %v/%v, want 30/20", res.TrailingMean, res.FullMean)
	}
}

func TestCalculateDirections(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want models.TrendDirection
	}{
		{"rising", []float64{10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30, 32}, models.TrendAccelerating},
		{"falling", []float64{32, 30, 28, 26, 24, 22, 20, 18, 16, 14, 12, 10}, models.TrendDecelerating},
		{"flat", repeat(40, 12), models.TrendStable},
		// slope 0.1 per period on a mean of ~50 is inside the 1% band
		{"nearly flat", []float64{50, 50.1, 50.2, 50.3, 50.4, 50.5, 50.6, 50.7, 50.8, 50.9, 51, 51.1}, models.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Calculate(monthly(tt.vals...), Options{}).Direction; got != tt.want {
				t.Errorf("Direction = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateUsesTrailingWindowOnly(t *testing.T) {
	// Long decline followed by a rising final year.
	vals := []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 5}
	vals = append(vals, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	res := Calculate(monthly(vals...), Options{})
	if res.Direction != models.TrendAccelerating {
		t.Errorf("Direction = %s, want ACCELERATING from trailing window", res.Direction)
	}
	if res.Score >= 0 {
		t.Errorf("Score = %v, want negative against the higher history", res.Score)
	}
}

func TestCalculateShortSeries(t *testing.T) {
	res := Calculate(monthly(10, 20), Options{})
	if res.Window != 2 {
		t.Errorf("Window = %d, want 2", res.Window)
	}
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0 when trailing window covers the whole series", res.Score)
	}
	if res.Direction != models.TrendAccelerating {
		t.Errorf("Direction = %s", res.Direction)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	s := weekly(260, func(i int) float64 { return 40 + 20*math.Sin(float64(i)/8.3) + float64(i%7) })
	a := Calculate(s, Options{})
	b := Calculate(s, Options{})
	if a != b {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}

func TestCalculateScaleInvariant(t *testing.T) {
	base := weekly(156, func(i int) float64 { return 20 + float64(i%13)*3 + float64(i)/10 })
	ref := Calculate(base, Options{})

	for _, k := range []float64{0.01, 3, 250} {
		scaled := base
		scaled.Points = make([]models.InterestPoint, len(base.Points))
		for i, p := range base.Points {
			scaled.Points[i] = models.InterestPoint{PeriodStart: p.PeriodStart, Value: p.Value * k}
		}
		got := Calculate(scaled, Options{})
		if got.Direction != ref.Direction {
			t.Errorf("k=%v: direction %s, want %s", k, got.Direction, ref.Direction)
		}
		if math.Abs(got.Score-ref.Score) > 1e-9 {
			t.Errorf("k=%v: score %v, want %v", k, got.Score, ref.Score)
		}
	}
}

func TestCalculateZeroAndFallbackMean(t *testing.T) {
	if res := Calculate(monthly(repeat(0, 24)...), Options{}); res.Score != 0 || res.Direction != models.TrendStable {
		t.Errorf("all-zero series: %+v", res)
	}
	if res := Calculate(monthly(repeat(0.5, 24)...), Options{}); res.Score != 0 {
		t.Errorf("all-fallback series score = %v, want 0", res.Score)
	}
	res := Calculate(monthly(1.5, 1.5, 1.5, 1.5), Options{Fallback: 1.5})
	if res.Score != 0 {
		t.Errorf("custom fallback mean score = %v, want 0", res.Score)
	}
}

func TestCalculateFallbackSafety(t *testing.T) {
	vals := append(repeat(0.5, 12), 10, 20, 30, 0, 0, 0, 0, 5, 0.5, 7, 9, 11)
	res := Calculate(monthly(vals...), Options{})
	for name, v := range map[string]float64{"score": res.Score, "slope": res.Slope, "r2": res.R2, "volatility": res.Volatility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
}

func TestScoreGuards(t *testing.T) {
	tests := []struct {
		recent, full, fallback, want float64
	}{
		{30, 20, 0.5, 50},
		{10, 20, 0.5, -50},
		{10, 0, 0.5, 0},
		{10, 0.5, 0.5, 0},
		{math.NaN(), 20, 0.5, 0},
		{10, math.Inf(1), 0.5, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.recent, tt.full, tt.fallback); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Score(%v, %v) = %v, want %v", tt.recent, tt.full, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify(0.2, 0.1) != models.TrendAccelerating {
		t.Error("0.2 > eps should accelerate")
	}
	if Classify(-0.2, 0.1) != models.TrendDecelerating {
		t.Error("-0.2 < -eps should decelerate")
	}
	if Classify(0.1, 0.1) != models.TrendStable {
		t.Error("slope equal to eps is stable")
	}
}

func BenchmarkCalculate260(b *testing.B) {
	s := weekly(260, func(i int) float64 { return 40 + 20*math.Sin(float64(i)/8.3) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Calculate(s, Options{})
	}
}
