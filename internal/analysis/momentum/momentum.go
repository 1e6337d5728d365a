// Package momentum computes trailing-window momentum and the linear-trend
// direction of an interest series.
package momentum

import (
	"math"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/stats"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Defaults used when Options fields are zero.
const (
	DefaultTrailingWindow = 12
	DefaultEpsilonRatio   = 0.01
)

// Options tunes the calculator. The zero value selects the defaults.
type Options struct {
	TrailingWindow int     // periods treated as "recent"
	EpsilonRatio   float64 // flat band as a fraction of the trailing mean
	Fallback       float64 // missing-reading sentinel; a full mean equal to it yields momentum 0
}

func (o Options) withDefaults() Options {
	if o.TrailingWindow <= 0 {
		o.TrailingWindow = DefaultTrailingWindow
	}
	if o.EpsilonRatio <= 0 {
		o.EpsilonRatio = DefaultEpsilonRatio
	}
	if o.Fallback <= 0 {
		o.Fallback = models.FallbackInterest
	}
	return o
}

// Result is the momentum/acceleration view of one series.
type Result struct {
	Score        float64               // signed percentage
	Direction    models.TrendDirection // sign of the trailing-window slope
	Slope        float64               // OLS slope per period over the trailing window
	R2           float64
	Window       int // trailing points actually used
	TrailingMean float64
	FullMean     float64
	Volatility   float64 // sample stddev / mean over the full series
}

// Calculate returns momentum and trend direction for s. The last point of
// the series is "now"; no wall-clock time is consulted.
func Calculate(s models.ThemeSeries, opts Options) Result {
	opts = opts.withDefaults()
	values := s.Values()

	w := opts.TrailingWindow
	if len(values) < w {
		w = len(values)
	}
	trailing := stats.Tail(values, w)

	res := Result{
		Window:       w,
		TrailingMean: stats.Mean(trailing),
		FullMean:     stats.Mean(values),
		Volatility:   stats.CoefficientOfVariation(values),
	}
	res.Score = Score(res.TrailingMean, res.FullMean, opts.Fallback)

	fit := stats.LinearRegression(trailing)
	res.Slope = fit.Slope
	res.R2 = fit.R2
	res.Direction = Classify(fit.Slope, opts.EpsilonRatio*math.Abs(res.TrailingMean))
	return res
}

// Score returns (recent/full - 1) * 100, or 0 when the full mean is zero,
// equal to the fallback sentinel, or the ratio is not finite.
func Score(recentMean, fullMean, fallback float64) float64 {
	if fullMean == 0 || !stats.Finite(fullMean) || !stats.Finite(recentMean) {
		return 0
	}
	if math.Abs(fullMean-fallback) < 1e-12 {
		return 0
	}
	score := (recentMean/fullMean - 1) * 100
	if !stats.Finite(score) {
		return 0
	}
	return score
}

// Classify maps a slope onto a direction given a symmetric flat band eps.
func Classify(slope, eps float64) models.TrendDirection {
	switch {
	case slope > eps:
		return models.TrendAccelerating
	case slope < -eps:
		return models.TrendDecelerating
	default:
		return models.TrendStable
	}
}
