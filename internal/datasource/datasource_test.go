package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// ── HTTP helpers ──

func TestErrHTTPError(t *testing.T) {
	e := &ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "page not found"}
	if msg := e.Error(); msg != "HTTP 404 404 Not Found: page not found" {
		t.Fatalf("unexpected error message: %s", msg)
	}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "yes" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad content type", http.StatusUnsupportedMediaType)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"echo":"ok"}`))
	}))
	defer srv.Close()

	var out struct{ Echo string }
	err := doJSON(context.Background(), srv.Client(), http.MethodPost, srv.URL, map[string]string{"X-Test": "yes"}, map[string]int{"a": 1}, &out)
	if err != nil {
		t.Fatalf("doJSON: %v", err)
	}
	if out.Echo != "ok" {
		t.Errorf("Echo = %q", out.Echo)
	}

	err = doJSON(context.Background(), srv.Client(), http.MethodPost, srv.URL, nil, map[string]int{}, &out)
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected *ErrHTTP 400, got %v", err)
	}
	if !strings.Contains(httpErr.Body, "missing header") {
		t.Errorf("body = %q", httpErr.Body)
	}
}

// ── Heuristic planner ──

func TestHeuristicEstimates(t *testing.T) {
	tests := []struct {
		keyword     string
		searches    int64
		competition models.CompetitionLevel
		cpc         float64
	}{
		{"Park City Real Estate", 12000, models.CompetitionHigh, 18.50},
		{"deer valley real estate", 6000, models.CompetitionHigh, 18.50},
		{"bozeman montana real estate", 8000, models.CompetitionLow, 6.50},
		{"glenwild", 8000, models.CompetitionLow, 8.25},
		{"kamas homes", 5000, models.CompetitionMedium, 8.25},
		{"ski in ski out home for sale", 3000, models.CompetitionMedium, 12.75},
		{"victory ranch homes for sale", 2000, models.CompetitionLow, 8.25},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			m := Estimate(tt.keyword)
			if m.AvgMonthlySearches != tt.searches {
				t.Errorf("searches = %d, want %d", m.AvgMonthlySearches, tt.searches)
			}
			if m.Competition != tt.competition {
				t.Errorf("competition = %s, want %s", m.Competition, tt.competition)
			}
			if m.CPC == nil || *m.CPC != tt.cpc {
				t.Errorf("cpc = %v, want %v", m.CPC, tt.cpc)
			}
			if m.Source != "heuristic" {
				t.Errorf("source = %q", m.Source)
			}
		})
	}
}

func TestHeuristicPlannerKeysByInput(t *testing.T) {
	got, err := NewHeuristicPlanner().KeywordMetrics(context.Background(), []string{"Kamas Real Estate"})
	if err != nil {
		t.Fatalf("KeywordMetrics: %v", err)
	}
	m, ok := got["Kamas Real Estate"]
	if !ok || m.AvgMonthlySearches != 2000 {
		t.Errorf("got %+v", got)
	}
	if m.LowBid >= *m.CPC || m.HighBid <= *m.CPC {
		t.Errorf("bids should bracket cpc: %+v", m)
	}
}

// ── Trending feed ──

const trendingRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ht="https://trends.google.com/trending/rss">
<channel>
  <title>Daily Search Trends</title>
  <item>
    <title>park city snow</title>
    <ht:approx_traffic>20,000+</ht:approx_traffic>
    <pubDate>Mon, 15 Jan 2024 08:00:00 -0800</pubDate>
  </item>
  <item>
    <title>sundance film festival</title>
    <ht:approx_traffic>100,000+</ht:approx_traffic>
    <pubDate>Mon, 15 Jan 2024 10:00:00 -0800</pubDate>
  </item>
  <item>
    <title>  </title>
  </item>
</channel>
</rss>`

func TestTrendingFeed(t *testing.T) {
	var gotGeo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGeo = r.URL.Query().Get("geo")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(trendingRSS))
	}))
	defer srv.Close()

	feed := NewTrendingFeed(srv.URL+"/rss", "US")
	items, err := feed.Trending(context.Background(), 0)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if gotGeo != "US" {
		t.Errorf("geo param = %q", gotGeo)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Term != "sundance film festival" || items[0].ApproxTraffic != "100,000+" {
		t.Errorf("newest item = %+v", items[0])
	}
	if items[1].ApproxTraffic != "20,000+" {
		t.Errorf("approx traffic = %q", items[1].ApproxTraffic)
	}

	limited, err := feed.Trending(context.Background(), 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit 1 = %v, %v", limited, err)
	}
}

func TestTrendingFeedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewTrendingFeed(srv.URL, "US").Trending(context.Background(), 5); err == nil {
		t.Fatal("expected error on 429")
	}
}

// ── Aggregator ──

type fakeTrends struct {
	batch *engine.Batch
	err   error
}

func (f fakeTrends) Name() string { return "fake trends" }
func (f fakeTrends) LoadBatch(context.Context) (*engine.Batch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

type fakeKeywords struct {
	metrics map[string]models.KeywordMetrics
	err     error
}

func (f fakeKeywords) Name() string { return "fake planner" }
func (f fakeKeywords) KeywordMetrics(context.Context, []string) (map[string]models.KeywordMetrics, error) {
	return f.metrics, f.err
}

type fakeTrending struct {
	items []models.TrendingSearch
	err   error
}

func (f fakeTrending) Name() string { return "fake feed" }
func (f fakeTrending) Trending(context.Context, int) ([]models.TrendingSearch, error) {
	return f.items, f.err
}

func sampleBatch() *engine.Batch {
	return &engine.Batch{Series: []engine.RawSeriesRow{
		{Theme: "Park City Real Estate", Timeframe: models.TimeframeLong, Label: "2024-01", Value: "50"},
		{Theme: "Kamas Real Estate", Timeframe: models.TimeframeLong, Label: "2024-01", Value: "20"},
		{Theme: "Park City Real Estate", Timeframe: models.TimeframeLong, Label: "2024-02", Value: "55"},
	}}
}

func TestAggregatorCollect(t *testing.T) {
	cpc := 3.0
	agg := NewAggregator(fakeTrends{batch: sampleBatch()}, nil,
		WithKeywordSource(fakeKeywords{metrics: map[string]models.KeywordMetrics{
			"park city real estate": {Keyword: "park city real estate", Competition: models.CompetitionHigh, CPC: &cpc, Source: "google_ads"},
		}}),
		WithTrendingSource(fakeTrending{items: []models.TrendingSearch{{Term: "park city"}}}),
	)

	col, err := agg.Collect(context.Background(), CollectOptions{TrendingLimit: 10})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	kw := col.Batch.Keywords
	if kw["Park City Real Estate"].Source != "google_ads" {
		t.Errorf("Park City should come from the planner: %+v", kw["Park City Real Estate"])
	}
	if kw["Kamas Real Estate"].Source != "heuristic" {
		t.Errorf("Kamas should fall back to heuristics: %+v", kw["Kamas Real Estate"])
	}
	if col.KeywordSource != "fake planner + Heuristic estimates" {
		t.Errorf("KeywordSource = %q", col.KeywordSource)
	}
	if len(col.Batch.Trending) != 1 {
		t.Errorf("trending = %+v", col.Batch.Trending)
	}
	if len(col.Warnings) != 0 {
		t.Errorf("warnings = %v", col.Warnings)
	}
	want := []string{"fake trends", "fake planner", "Heuristic estimates", "fake feed"}
	if got := agg.Sources(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v", got)
	}
}

func TestAggregatorDegradedSources(t *testing.T) {
	agg := NewAggregator(fakeTrends{batch: sampleBatch()}, nil,
		WithKeywordSource(fakeKeywords{err: ErrMissingCredentials}),
		WithTrendingSource(fakeTrending{err: errors.New("feed down")}),
	)
	col, err := agg.Collect(context.Background(), CollectOptions{})
	if err != nil {
		t.Fatalf("Collect should tolerate degraded sources: %v", err)
	}
	if len(col.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", col.Warnings)
	}
	if len(col.Batch.Keywords) != 2 || col.KeywordSource != "Heuristic estimates" {
		t.Errorf("heuristic fallback missing: %q %+v", col.KeywordSource, col.Batch.Keywords)
	}
}

func TestAggregatorTrendsFailureIsFatal(t *testing.T) {
	agg := NewAggregator(fakeTrends{err: ErrNoData}, nil)
	if _, err := agg.Collect(context.Background(), CollectOptions{}); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
