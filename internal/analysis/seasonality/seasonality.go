// Package seasonality profiles interest by calendar bucket (month-of-year or
// ISO week-of-year) to find the peak period and how pronounced it is.
package seasonality

import (
	"math"
	"sort"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/stats"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Minimum distinct buckets that make up one calendar cycle.
const (
	fullMonthCycle = 12
	fullWeekCycle  = 52
)

// Options selects the bucketing. The zero value buckets by month.
type Options struct {
	// WeekBuckets switches to ISO week-of-year buckets.
	WeekBuckets bool
}

// Profile groups s by calendar bucket and reports the peak.
//
// Strength is the peak bucket mean divided by the mean of the remaining
// bucket means. With less than one full cycle the profile is UNKNOWN with
// strength 1.0 and InsufficientHistory set.
func Profile(s models.ThemeSeries, opts Options) models.SeasonalityProfile {
	kind := models.BucketMonthOfYear
	need := fullMonthCycle
	if opts.WeekBuckets {
		kind = models.BucketWeekOfYear
		need = fullWeekCycle
	}

	buckets := Buckets(s, kind)
	prof := models.SeasonalityProfile{
		Kind:       kind,
		PeakPeriod: models.PeakUnknown,
		Strength:   1.0,
		PeakToMean: 1.0,
		Buckets:    buckets,
	}
	if len(buckets) < need {
		prof.InsufficientHistory = true
		return prof
	}

	peakIdx, troughIdx := 0, 0
	means := make([]float64, len(buckets))
	for i, b := range buckets {
		means[i] = b.Mean
		// strict comparison keeps the earliest bucket on ties
		if b.Mean > buckets[peakIdx].Mean {
			peakIdx = i
		}
		if b.Mean < buckets[troughIdx].Mean {
			troughIdx = i
		}
	}
	peak, trough := buckets[peakIdx], buckets[troughIdx]

	prof.PeakPeriod = peak.Label
	prof.PeakBucket = peak.Bucket
	prof.TroughPeriod = trough.Label

	overall := stats.Mean(means)
	others := make([]float64, 0, len(means)-1)
	others = append(others, means[:peakIdx]...)
	others = append(others, means[peakIdx+1:]...)
	baseline := stats.Mean(others)

	prof.Strength = strength(peak.Mean, baseline)
	prof.PeakToMean = strength(peak.Mean, overall)
	prof.Amplitude = stats.Ratio(peak.Mean-trough.Mean, overall)
	prof.BoostPct = (prof.Strength - 1) * 100
	return prof
}

// strength is peak/base guarded to stay finite and non-negative.
// A zero base with a positive peak has no meaningful ratio and reads as flat.
func strength(peak, base float64) float64 {
	if base <= 0 || !stats.Finite(base) {
		return 1.0
	}
	r := peak / base
	if !stats.Finite(r) || r < 0 {
		return 1.0
	}
	return r
}

// Buckets returns the per-bucket means across all years present, ordered by
// calendar bucket. Buckets with no observations are omitted.
func Buckets(s models.ThemeSeries, kind models.BucketKind) []models.BucketMean {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range s.Points {
		b := bucketOf(p.PeriodStart, kind)
		sums[b] += p.Value
		counts[b]++
	}

	keys := make([]int, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]models.BucketMean, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.BucketMean{
			Bucket: k,
			Label:  Label(k, kind),
			Mean:   sums[k] / float64(counts[k]),
			Count:  counts[k],
		})
	}
	return out
}

func bucketOf(t time.Time, kind models.BucketKind) int {
	if kind == models.BucketWeekOfYear {
		_, w := t.ISOWeek()
		return w
	}
	return int(t.Month())
}

// Label names a bucket: "July" for months, "W27" for ISO weeks.
func Label(bucket int, kind models.BucketKind) string {
	if kind == models.BucketWeekOfYear {
		return utils.ISOWeekLabel(bucket)
	}
	if bucket < 1 || bucket > 12 {
		return models.PeakUnknown
	}
	return time.Month(bucket).String()
}

// WeeklyShape returns a 53-slot vector of mean interest per ISO week divided
// by the mean of the observed week means. Weeks with no observations take
// that mean (1.0 after scaling). Used to compare seasonal shapes between
// themes independent of volume.
func WeeklyShape(s models.ThemeSeries) []float64 {
	shape := make([]float64, 53)
	buckets := Buckets(s, models.BucketWeekOfYear)
	if len(buckets) == 0 {
		return shape
	}

	present := make([]bool, 53)
	means := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		if b.Bucket >= 1 && b.Bucket <= 53 {
			shape[b.Bucket-1] = b.Mean
			present[b.Bucket-1] = true
			means = append(means, b.Mean)
		}
	}
	fill := stats.Mean(means)
	for i := range shape {
		if !present[i] {
			shape[i] = fill
		}
	}
	if fill > 0 && !math.IsNaN(fill) {
		for i := range shape {
			shape[i] /= fill
		}
	}
	return shape
}
