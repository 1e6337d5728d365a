package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeParsesAndOrders(t *testing.T) {
	n := NewNormalizer(nil, 0)
	rows := []Row{
		{"2024-01-21 - 2024-01-27", 30},
		{"2024-01-07 - 2024-01-13", "10"},
		{"2024-01-14 - 2024-01-20", 20.5},
	}
	s, err := n.Normalize("Park City Real Estate", models.TimeframeShort, rows, models.GranularityNative)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", s.Len())
	}
	want := []float64{10, 20.5, 30}
	for i, p := range s.Points {
		if p.Value != want[i] {
			t.Errorf("point %d value = %v, want %v", i, p.Value, want[i])
		}
		if i > 0 && !s.Points[i-1].PeriodStart.Before(p.PeriodStart) {
			t.Errorf("points not strictly ascending at %d", i)
		}
	}
	if !s.First().Equal(day(2024, 1, 7)) {
		t.Errorf("first period = %v", s.First())
	}
	if s.Granularity != models.GranularityNative {
		t.Errorf("granularity = %q", s.Granularity)
	}
}

func TestNormalizeThemeName(t *testing.T) {
	n := NewNormalizer(nil, 0)
	rows := []Row{{"2024-01", 1}, {"2024-02", 2}}
	s, err := n.Normalize("  Red Ledges Real Esate ", models.TimeframeLong, rows, "")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if s.Theme != "Red Ledges Real Estate" {
		t.Errorf("theme = %q", s.Theme)
	}
}

func TestNormalizeValueCoercion(t *testing.T) {
	n := NewNormalizer(nil, 0)
	rows := []Row{
		{"2024-01-01", "<1"},
		{"2024-01-02", ""},
		{"2024-01-03", nil},
		{"2024-01-04", -5},
		{"2024-01-05", math.NaN()},
		{"2024-01-06", math.Inf(1)},
		{"2024-01-07", "n/a"},
		{"2024-01-08", 0},
		{"2024-01-09", " 42 "},
		{"2024-01-10", int64(7)},
		{"2024-01-11", struct{}{}},
	}
	s, err := n.Normalize("T", models.TimeframeShort, rows, models.GranularityNative)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0, 42, 7, 0.5}
	if s.Len() != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), s.Len())
	}
	for i, p := range s.Points {
		if p.Value != want[i] {
			t.Errorf("row %d value = %v, want %v", i, p.Value, want[i])
		}
	}
}

func TestNormalizeCustomFallback(t *testing.T) {
	n := NewNormalizer(nil, 1.5)
	s, err := n.Normalize("T", models.TimeframeShort, []Row{{"2024-01", "x"}, {"2024-02", 3}}, "")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if s.Points[0].Value != 1.5 || n.Fallback() != 1.5 {
		t.Errorf("fallback not applied: %v", s.Points[0].Value)
	}
	if NewNormalizer(nil, -1).Fallback() != models.FallbackInterest {
		t.Error("negative fallback should select the default")
	}
}

func TestNormalizeDedupeKeepsFirst(t *testing.T) {
	n := NewNormalizer(nil, 0)
	rows := []Row{
		{"2024-01-07 - 2024-01-13", 10},
		{"2024-01-14 - 2024-01-20", 20},
		{"2024-01-07 - 2024-01-13", 99},
	}
	s, err := n.Normalize("T", models.TimeframeShort, rows, models.GranularityNative)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 points after dedupe, got %d", s.Len())
	}
	if s.Points[0].Value != 10 {
		t.Errorf("dedupe kept %v, want first occurrence 10", s.Points[0].Value)
	}
}

func TestNormalizeDropsUnparseableLabels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := NewNormalizer(logger.FromZap(zap.New(core)), 0)

	rows := []Row{
		{"Week", "Park City Real Estate: (United States)"},
		{"2024-01-07", 10},
		{"garbage", 5},
		{"2024-01-14", 12},
	}
	s, err := n.Normalize("T", models.TimeframeShort, rows, models.GranularityNative)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 points, got %d", s.Len())
	}
	if logs.Len() != 2 {
		t.Fatalf("expected 2 warnings, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["label"]; got != "Week" {
		t.Errorf("warning label = %v", got)
	}
}

func TestNormalizeBoundary(t *testing.T) {
	n := NewNormalizer(nil, 0)

	two := []Row{{"2024-01-07", 1}, {"2024-01-14", 2}}
	if _, err := n.Normalize("T", models.TimeframeShort, two, models.GranularityNative); err != nil {
		t.Errorf("2 points should be accepted, got %v", err)
	}

	one := []Row{{"2024-01-07", 1}, {"bad", 2}}
	_, err := n.Normalize("Kamas Real Estate", models.TimeframeMedium, one, models.GranularityNative)
	if err == nil {
		t.Fatal("1 point should fail")
	}
	if !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("error should wrap ErrMalformedSeries: %v", err)
	}
	var mse *MalformedSeriesError
	if !errors.As(err, &mse) {
		t.Fatalf("error should be *MalformedSeriesError: %T", err)
	}
	if mse.Theme != "Kamas Real Estate" || mse.Points != 1 || mse.Dropped != 1 || mse.Timeframe != models.TimeframeMedium {
		t.Errorf("unexpected error fields: %+v", mse)
	}

	if _, err := n.Normalize("T", models.TimeframeShort, nil, models.GranularityNative); !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("empty input should be malformed, got %v", err)
	}
}

func TestNormalizeBucketing(t *testing.T) {
	n := NewNormalizer(nil, 0)
	weekly := []Row{
		{"2024-01-07", 10}, // Sunday
		{"2024-01-10", 20}, // Wednesday, same week
		{"2024-01-14", 30},
		{"2024-02-04", 40},
	}

	tests := []struct {
		gran   models.Granularity
		starts []time.Time
		values []float64
	}{
		{models.GranularityWeek,
			[]time.Time{day(2024, 1, 7), day(2024, 1, 14), day(2024, 2, 4)},
			[]float64{15, 30, 40}},
		{models.GranularityMonth,
			[]time.Time{day(2024, 1, 1), day(2024, 2, 1)},
			[]float64{20, 40}},
	}
	for _, tt := range tests {
		t.Run(string(tt.gran), func(t *testing.T) {
			s, err := n.Normalize("T", models.TimeframeShort, weekly, tt.gran)
			if err != nil {
				t.Fatalf("Normalize error: %v", err)
			}
			if s.Len() != len(tt.starts) {
				t.Fatalf("expected %d buckets, got %d: %+v", len(tt.starts), s.Len(), s.Points)
			}
			for i, p := range s.Points {
				if !p.PeriodStart.Equal(tt.starts[i]) || p.Value != tt.values[i] {
					t.Errorf("bucket %d = %v/%v, want %v/%v", i, p.PeriodStart, p.Value, tt.starts[i], tt.values[i])
				}
			}
		})
	}

	_, err := n.Normalize("T", models.TimeframeShort, []Row{{"2024-01-07", 1}, {"2024-03-01", 2}}, models.GranularityYear)
	if !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("collapsing to one yearly bucket should be malformed, got %v", err)
	}
}

func TestNormalizeOrderIndependent(t *testing.T) {
	n := NewNormalizer(nil, 0)
	a := []Row{{"2024-01-01", 1}, {"2024-02-01", 2}, {"2024-03-01", 3}}
	b := []Row{a[2], a[0], a[1]}

	sa, _ := n.Normalize("T", models.TimeframeShort, a, models.GranularityMonth)
	sb, _ := n.Normalize("T", models.TimeframeShort, b, models.GranularityMonth)
	for i := range sa.Points {
		if sa.Points[i] != sb.Points[i] {
			t.Errorf("point %d differs: %v vs %v", i, sa.Points[i], sb.Points[i])
		}
	}
}
