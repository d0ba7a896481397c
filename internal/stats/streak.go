// Package stats derives learning statistics from the view log.
package stats

import (
	"slices"
	"time"
)

// StreakLookback bounds how far back view dates are read for the streak.
const StreakLookback = 365 * 24 * time.Hour

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Streak returns the number of consecutive UTC days with at least one
// view, counting back from the most recent one. The streak is broken,
// and 0 is returned, unless that most recent day is today or yesterday.
// dates may contain duplicates and any time of day.
func Streak(dates []time.Time, today time.Time) int {
	today = Day(today)

	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if day := Day(d); !day.After(today) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return 0
	}

	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	days = slices.CompactFunc(days, time.Time.Equal)

	if days[0].Before(today.AddDate(0, 0, -1)) {
		return 0
	}

	count := 0
	expected := days[0]
	for _, d := range days {
		if !d.Equal(expected) {
			break
		}
		count++
		expected = expected.AddDate(0, 0, -1)
	}
	return count
}
