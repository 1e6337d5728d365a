package models

import "time"

// TrendDirection is the sign of the linear trend inside the trailing window.
type TrendDirection string

const (
	TrendAccelerating TrendDirection = "ACCELERATING"
	TrendDecelerating TrendDirection = "DECELERATING"
	TrendStable       TrendDirection = "STABLE"
)

// PeakUnknown is reported when a series covers less than one calendar cycle.
const PeakUnknown = "UNKNOWN"

// BucketKind is the calendar bucketing used for seasonality.
type BucketKind string

const (
	BucketMonthOfYear BucketKind = "month_of_year"
	BucketWeekOfYear  BucketKind = "week_of_year"
)

// BucketMean is the mean interest of one calendar bucket across all years.
type BucketMean struct {
	Bucket int     `json:"bucket"` // 1-12 for months, 1-53 for ISO weeks
	Label  string  `json:"label"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// SeasonalityProfile is the output of the seasonality profiler.
type SeasonalityProfile struct {
	Kind                BucketKind   `json:"kind"`
	PeakPeriod          string       `json:"peak_period"`
	PeakBucket          int          `json:"peak_bucket,omitempty"`
	TroughPeriod        string       `json:"trough_period,omitempty"`
	Strength            float64      `json:"strength"`     // peak mean / baseline mean
	PeakToMean          float64      `json:"peak_to_mean"` // peak mean / overall mean
	Amplitude           float64      `json:"amplitude"`    // (max - min) / mean of bucket means
	BoostPct            float64      `json:"boost_pct"`    // (strength - 1) * 100
	Buckets             []BucketMean `json:"buckets,omitempty"`
	InsufficientHistory bool         `json:"insufficient_history"`
}

// ThemeMetrics is the derived value object for one (theme, timeframe).
type ThemeMetrics struct {
	Theme               string             `json:"theme"`
	Timeframe           Timeframe          `json:"timeframe"`
	MomentumScore       float64            `json:"momentum_score"` // signed percentage
	TrendDirection      TrendDirection     `json:"trend_direction"`
	PeakPeriod          string             `json:"peak_period"`
	SeasonalityStrength float64            `json:"seasonality_strength"` // peak bucket mean / mean of the other buckets
	AvgVolume           float64            `json:"avg_volume"`
	Slope               float64            `json:"slope"`
	TrendR2             float64            `json:"trend_r2"`
	Volatility          float64            `json:"volatility"` // stddev / mean
	Points              int                `json:"points"`
	FirstPeriod         time.Time          `json:"first_period"`
	LastPeriod          time.Time          `json:"last_period"`
	Seasonality         SeasonalityProfile `json:"seasonality"`

	// SeasonalityPeakToMean is the peak bucket mean over the mean of all buckets.
	SeasonalityPeakToMean float64 `json:"seasonality_peak_to_mean"`
}
