package momentum

import (
	"math"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/stats"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Thresholds for the cross-timeframe view.
const (
	accelerationBand   = 10.0 // growth points between recent and historical windows
	volatilityRiseMult = 1.2
	volatilityFallMult = 0.8

	cagrWindow    = 52
	cagrMinPoints = 30
)

// Acceleration labels.
const (
	AccelAccelerating = "Accelerating"
	AccelDecelerating = "Decelerating"
	AccelSteady       = "Steady"

	VolatilityIncreasing = "Increasing"
	VolatilityDecreasing = "Decreasing"
	VolatilityStable     = "Stable"
)

// CompareTimeframes contrasts the SHORT, MEDIUM and LONG series of one theme.
// Missing timeframes leave the dependent fields at their zero/neutral values.
func CompareTimeframes(theme string, byTF map[models.Timeframe]models.ThemeSeries) models.TimeframeComparison {
	cmp := models.TimeframeComparison{
		Theme:           theme,
		Acceleration:    AccelSteady,
		VolatilityTrend: VolatilityStable,
	}

	short, hasShort := byTF[models.TimeframeShort]
	medium, hasMedium := byTF[models.TimeframeMedium]
	long, hasLong := byTF[models.TimeframeLong]

	if hasShort {
		cmp.AvgShort = stats.Mean(short.Values())
		cmp.VolatilityShort = stats.CoefficientOfVariation(short.Values())
	}
	if hasMedium {
		cmp.AvgMedium = stats.Mean(medium.Values())
	}
	if hasLong {
		cmp.AvgLong = stats.Mean(long.Values())
		cmp.VolatilityLong = stats.CoefficientOfVariation(long.Values())
	}

	if hasShort && hasLong && cmp.AvgLong > 0 {
		cmp.LongMomentum = (cmp.AvgShort/cmp.AvgLong - 1) * 100

		if hasMedium && cmp.AvgMedium > 0 {
			cmp.RecentGrowth = (cmp.AvgShort/cmp.AvgMedium - 1) * 100
			cmp.HistoricalGrowth = (cmp.AvgMedium/cmp.AvgLong - 1) * 100
			switch {
			case cmp.RecentGrowth > cmp.HistoricalGrowth+accelerationBand:
				cmp.Acceleration = AccelAccelerating
			case cmp.RecentGrowth < cmp.HistoricalGrowth-accelerationBand:
				cmp.Acceleration = AccelDecelerating
			}
		}
	}

	if hasShort && hasLong {
		switch {
		case cmp.VolatilityShort > cmp.VolatilityLong*volatilityRiseMult:
			cmp.VolatilityTrend = VolatilityIncreasing
		case cmp.VolatilityShort < cmp.VolatilityLong*volatilityFallMult:
			cmp.VolatilityTrend = VolatilityDecreasing
		}
	}

	// CAGR prefers the longest window available.
	for _, tf := range []models.Timeframe{models.TimeframeLong, models.TimeframeMedium, models.TimeframeShort} {
		if s, ok := byTF[tf]; ok {
			if cagr, ok := CAGR(s); ok {
				cmp.CAGR = cagr
				cmp.CAGRAvailable = true
				break
			}
		}
	}
	return cmp
}

// CAGR returns the compound annual growth between the mean of the first and
// last 52 points, with zero readings excluded from both means. It needs at
// least 30 points and a non-zero first window.
func CAGR(s models.ThemeSeries) (float64, bool) {
	n := s.Len()
	if n < cagrMinPoints {
		return 0, false
	}
	values := s.Values()
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0, false
	}

	w := cagrWindow
	if n < w {
		w = n
	}
	firstMean, ok1 := nonZeroMean(values[:w])
	lastMean, ok2 := nonZeroMean(values[n-w:])
	if !ok1 || !ok2 || firstMean == 0 {
		return 0, false
	}

	years := s.Last().Sub(s.First()).Hours() / 24 / 365.25
	if years < 0.1 {
		years = 0.1
	}
	cagr := math.Pow(lastMean/firstMean, 1/years) - 1
	if !stats.Finite(cagr) {
		return 0, false
	}
	return cagr, true
}

func nonZeroMean(values []float64) (float64, bool) {
	sum, count := 0.0, 0
	for _, v := range values {
		if v == 0 {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
