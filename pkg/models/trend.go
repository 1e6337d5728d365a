// Package models defines the core data structures used throughout the
// trend planner: interest series, geography rows, derived metrics and
// campaign recommendations.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FallbackInterest replaces missing or non-numeric interest readings.
// Zero would read as "no interest" and poison ratio-based metrics.
const FallbackInterest = 0.5

// Timeframe identifies the source window a series was exported for.
type Timeframe string

const (
	TimeframeShort  Timeframe = "SHORT"  // "1 Year" export
	TimeframeMedium Timeframe = "MEDIUM" // "2 Year" export
	TimeframeLong   Timeframe = "LONG"   // "5 Year" export
)

// AllTimeframes returns the timeframes in ascending window order.
func AllTimeframes() []Timeframe {
	return []Timeframe{TimeframeShort, TimeframeMedium, TimeframeLong}
}

// SourceWindow returns the Google Trends folder label for the timeframe.
func (tf Timeframe) SourceWindow() string {
	switch tf {
	case TimeframeShort:
		return "1 Year"
	case TimeframeMedium:
		return "2 Year"
	case TimeframeLong:
		return "5 Year"
	}
	return string(tf)
}

// Rank orders timeframes by window length (SHORT=0 .. LONG=2, unknown=-1).
func (tf Timeframe) Rank() int {
	switch tf {
	case TimeframeShort:
		return 0
	case TimeframeMedium:
		return 1
	case TimeframeLong:
		return 2
	}
	return -1
}

// ParseTimeframe accepts enum names ("LONG"), source windows ("5 Year")
// and short aliases ("5y", "1yr").
func ParseTimeframe(s string) (Timeframe, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "short", "1year", "1y", "1yr", "12m":
		return TimeframeShort, nil
	case "medium", "2year", "2y", "2yr", "24m":
		return TimeframeMedium, nil
	case "long", "5year", "5y", "5yr", "60m":
		return TimeframeLong, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Granularity is the bucket width a series is aligned to.
type Granularity string

const (
	GranularityNative Granularity = "native" // keep source period starts
	GranularityWeek   Granularity = "week"
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
)

// ParseGranularity parses a granularity name; empty means native.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return GranularityNative, nil
	case "week", "weekly":
		return GranularityWeek, nil
	case "month", "monthly":
		return GranularityMonth, nil
	case "year", "yearly":
		return GranularityYear, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// InterestPoint is one observation of relative search interest.
type InterestPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Value       float64   `json:"value"` // relative index, typically 0-100
}

// ThemeSeries is the ordered interest series of one theme over one timeframe.
// Points are strictly ascending by PeriodStart with no duplicate periods.
// Treat as immutable once built by the normalizer.
type ThemeSeries struct {
	Theme       string          `json:"theme"`
	Timeframe   Timeframe       `json:"timeframe"`
	Granularity Granularity     `json:"granularity"`
	Points      []InterestPoint `json:"points"`
}

// Values returns the interest values in period order.
func (s ThemeSeries) Values() []float64 {
	vals := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vals[i] = p.Value
	}
	return vals
}

// Len returns the number of points.
func (s ThemeSeries) Len() int { return len(s.Points) }

// First returns the earliest period start (zero time when empty).
func (s ThemeSeries) First() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].PeriodStart
}

// Last returns the latest period start (zero time when empty).
func (s ThemeSeries) Last() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].PeriodStart
}

// GeoInterestRow is the relative interest of a theme in one metro/region.
type GeoInterestRow struct {
	Theme         string    `json:"theme"`
	Region        string    `json:"region"`
	Timeframe     Timeframe `json:"timeframe"`
	InterestScore float64   `json:"interest_score"` // 0-100
}

// RelatedQuery is one row of a Trends related-queries export.
type RelatedQuery struct {
	Query string `json:"query"`
	Score string `json:"score"` // "100", "+250%", "Breakout"
}

// RelatedQueries groups the TOP and RISING sections of an export.
type RelatedQueries struct {
	Theme     string         `json:"theme"`
	Timeframe Timeframe      `json:"timeframe"`
	Top       []RelatedQuery `json:"top"`
	Rising    []RelatedQuery `json:"rising"`
}

// TrendingSearch is one entry of the daily trending-searches feed.
type TrendingSearch struct {
	Term          string    `json:"term"`
	ApproxTraffic string    `json:"approx_traffic,omitempty"` // e.g. "20,000+"
	PublishedAt   time.Time `json:"published_at"`
}
