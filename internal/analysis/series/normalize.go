// Package series cleans raw Trends rows into ordered, deduplicated,
// bucket-aligned interest series.
package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// MinPoints is the minimum number of cleaned points a series needs.
const MinPoints = 2

// ErrMalformedSeries is wrapped by every MalformedSeriesError.
var ErrMalformedSeries = errors.New("malformed series")

// MalformedSeriesError reports a theme whose cleaned series is too short.
type MalformedSeriesError struct {
	Theme     string
	Timeframe models.Timeframe
	Points    int // usable points after cleaning
	Dropped   int // rows dropped for unparseable labels
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series %q (%s): %d usable point(s), %d dropped, need at least %d",
		e.Theme, e.Timeframe, e.Points, e.Dropped, MinPoints)
}

func (e *MalformedSeriesError) Unwrap() error { return ErrMalformedSeries }

// Row is one raw (label, value) pair. Value may be a number, a string or nil.
type Row struct {
	Label string
	Value any
}

// Normalizer converts raw rows into a models.ThemeSeries.
// It is safe for concurrent use.
type Normalizer struct {
	log      *logger.Logger
	fallback float64
}

// NewNormalizer returns a normalizer that substitutes fallback for missing
// readings. A non-positive fallback selects models.FallbackInterest.
func NewNormalizer(log *logger.Logger, fallback float64) *Normalizer {
	if fallback <= 0 || !finite(fallback) {
		fallback = models.FallbackInterest
	}
	return &Normalizer{log: logger.OrNop(log), fallback: fallback}
}

// Fallback returns the substitution value for missing readings.
func (n *Normalizer) Fallback() float64 { return n.fallback }

// Normalize parses, coerces, dedupes, orders and buckets rows.
//
// Rows with unparseable labels are dropped with a warning. Values that are
// missing, non-numeric, negative or non-finite become the fallback. The first
// row wins when two rows share a period start. Rows that fall into the same
// granularity bucket are averaged.
func (n *Normalizer) Normalize(theme string, tf models.Timeframe, rows []Row, gran models.Granularity) (models.ThemeSeries, error) {
	theme = utils.NormalizeTheme(theme)
	out := models.ThemeSeries{Theme: theme, Timeframe: tf, Granularity: gran}
	if gran == "" {
		out.Granularity = models.GranularityNative
	}

	seen := make(map[time.Time]struct{}, len(rows))
	points := make([]models.InterestPoint, 0, len(rows))
	dropped := 0

	for _, r := range rows {
		start, err := utils.ParsePeriodStart(r.Label)
		if err != nil {
			dropped++
			n.log.Warn("dropping row with unparseable label",
				"theme", theme, "timeframe", string(tf), "label", r.Label)
			continue
		}
		if _, dup := seen[start]; dup {
			continue
		}
		seen[start] = struct{}{}
		points = append(points, models.InterestPoint{PeriodStart: start, Value: n.coerce(r.Value)})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].PeriodStart.Before(points[j].PeriodStart)
	})

	points = bucket(points, out.Granularity)

	if len(points) < MinPoints {
		return models.ThemeSeries{}, &MalformedSeriesError{
			Theme:     theme,
			Timeframe: tf,
			Points:    len(points),
			Dropped:   dropped,
		}
	}
	out.Points = points
	return out, nil
}

// coerce turns a raw reading into a finite non-negative value.
func (n *Normalizer) coerce(v any) float64 {
	return CoerceValue(v, n.fallback)
}

// CoerceValue converts a raw reading (number, numeric string or nil) to a
// finite non-negative value. Anything else, including "<1", empty strings,
// negatives and NaN/Inf, becomes fallback.
func CoerceValue(v any, fallback float64) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return fallback
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return fallback
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			// "<1", "n/a", "-" and friends
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if !finite(f) || f < 0 {
		return fallback
	}
	return f
}

// bucket aligns points to the granularity, averaging collisions.
// Input must be sorted; output stays sorted.
func bucket(points []models.InterestPoint, gran models.Granularity) []models.InterestPoint {
	var trunc func(time.Time) time.Time
	switch gran {
	case models.GranularityWeek:
		trunc = utils.WeekStart
	case models.GranularityMonth:
		trunc = utils.MonthStart
	case models.GranularityYear:
		trunc = utils.YearStart
	default:
		return points
	}

	out := make([]models.InterestPoint, 0, len(points))
	var sum float64
	var count int
	flush := func(start time.Time) {
		if count > 0 {
			out = append(out, models.InterestPoint{PeriodStart: start, Value: sum / float64(count)})
		}
	}

	var current time.Time
	for i, p := range points {
		b := trunc(p.PeriodStart)
		if i == 0 || !b.Equal(current) {
			flush(current)
			current, sum, count = b, 0, 0
		}
		sum += p.Value
		count++
	}
	flush(current)
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
