package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetNextMonday(t *testing.T) {
	tests := []struct {
		now  string
		want string
	}{
		{now: "2026-03-02", want: "2026-03-09"}, // Monday
		{now: "2026-03-04", want: "2026-03-09"}, // Wednesday
		{now: "2026-03-08", want: "2026-03-09"}, // Sunday
		{now: "2026-12-29", want: "2027-01-04"}, // across the year
	}
	for _, tt := range tests {
		now := mustDate(t, tt.now).Add(15 * time.Hour)
		assert.Equal(t, tt.want, GetNextMonday(now).Format(DateLayout), tt.now)
	}
}

func TestNextWeek(t *testing.T) {
	start, end := NextWeek(mustDate(t, "2026-03-05"))
	assert.Equal(t, "2026-03-09", start.Format(DateLayout))
	assert.Equal(t, "2026-03-15", end.Format(DateLayout))
	assert.Equal(t, time.Sunday, end.Weekday())
}

func TestDateRange(t *testing.T) {
	assert.Equal(t,
		[]string{"2026-02-27", "2026-02-28", "2026-03-01"},
		DateRange(mustDate(t, "2026-02-27"), mustDate(t, "2026-03-01")))
	assert.Equal(t, []string{"2026-03-01"}, DateRange(mustDate(t, "2026-03-01"), mustDate(t, "2026-03-01")))
	assert.Empty(t, DateRange(mustDate(t, "2026-03-02"), mustDate(t, "2026-03-01")))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("02/03/2026")
	assert.EqualError(t, err, `invalid date "02/03/2026", expected YYYY-MM-DD`)
}
