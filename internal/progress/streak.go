package progress

import (
	"sort"
	"time"

	"github.com/lingoleap/api/internal/model"
)

// DayKey formats t as a calendar-day key in t's location.
func DayKey(t time.Time) string {
	return t.Format(model.DayLayout)
}

// Streak counts consecutive visited calendar days ending today or yesterday.
// days are DayLayout keys in any order; duplicates and unparsable entries
// are ignored. A gap of more than one day since the last visit yields 0.
func Streak(days []string, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]string, len(days))
	copy(sorted, days)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	loc := today.Location()
	expected := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	todayKey := DayKey(expected)
	yesterdayKey := DayKey(expected.AddDate(0, 0, -1))

	streak := 0
	prev := ""
	for _, key := range sorted {
		if key == prev {
			continue
		}
		if _, err := time.ParseInLocation(model.DayLayout, key, loc); err != nil {
			continue
		}
		if key > todayKey {
			// Future-dated rows come from clock skew; skip them.
			continue
		}
		prev = key

		if streak == 0 {
			switch key {
			case todayKey:
			case yesterdayKey:
				expected = expected.AddDate(0, 0, -1)
			default:
				return 0
			}
		}

		if key != DayKey(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}
