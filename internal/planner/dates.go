package planner

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for plan keys.
const DateLayout = "2006-01-02"

// GetNextMonday returns midnight of the Monday after t. A Monday yields the following week's Monday.
func GetNextMonday(t time.Time) time.Time {
	days := (8 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}

// NextWeek returns the default planning window: next Monday through the following Sunday.
func NextWeek(now time.Time) (time.Time, time.Time) {
	start := GetNextMonday(now)
	return start, start.AddDate(0, 0, 6)
}

// DateRange lists every date from start to end inclusive. It is empty when end is before start.
func DateRange(start, end time.Time) []string {
	start = truncateDay(start)
	end = truncateDay(end)

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
