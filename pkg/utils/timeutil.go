package utils

import (
	"fmt"
	"strings"
	"time"
)

// Mountain is the market's local zone (America/Denver).
var Mountain *time.Location

func init() {
	var err error
	Mountain, err = time.LoadLocation("America/Denver")
	if err != nil {
		// Fallback: fixed MST when the tz database is not available
		Mountain = time.FixedZone("MST", -7*60*60)
	}
}

// Date layouts accepted as the leading token of a period label.
var periodLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01",
	"2006",
}

// ParsePeriodStart parses the leading date token of a Trends period label.
// "2024-01-07 - 2024-01-13" yields 2024-01-07 UTC.
func ParsePeriodStart(label string) (time.Time, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Time{}, fmt.Errorf("empty period label")
	}
	token := strings.Fields(label)[0]
	// "2024-01-07-2024-01-13" without spaces
	if len(token) > 10 && token[10] == '-' {
		token = token[:10]
	}
	for _, layout := range periodLayouts {
		if t, err := time.ParseInLocation(layout, token, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable period label %q", label)
}

// WeekStart truncates t to the Sunday that starts its week.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthStart truncates t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// YearStart truncates t to January 1st.
func YearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ISOWeekLabel formats the ISO week of t as "W07".
func ISOWeekLabel(week int) string {
	return fmt.Sprintf("W%02d", week)
}

// FormatPeriod formats a period start as "2006-01-02".
func FormatPeriod(t time.Time) string {
	return t.Format("2006-01-02")
}

// NowMountain returns the current time in the market's zone.
func NowMountain() time.Time {
	return time.Now().In(Mountain)
}
