package planner

import (
	"errors"
	"fmt"
	"time"
)

// DayPlan is the plan for one date. Soir is always set; Midi only on noon days.
type DayPlan struct {
	Date string `json:"date"`
	Midi string `json:"midi,omitempty"`
	Soir string `json:"soir"`
}

// WeekPlan is one DayPlan per date, in date order.
type WeekPlan []DayPlan

// IsEmpty reports whether the plan has no days. An empty plan is a failed proposal.
func (w WeekPlan) IsEmpty() bool {
	return len(w) == 0
}

// Clone returns a copy that shares nothing with w.
func (w WeekPlan) Clone() WeekPlan {
	if w == nil {
		return nil
	}
	return append(WeekPlan(nil), w...)
}

// Validate checks w against the requested window and constraints. All violations
// are reported together.
func (w WeekPlan) Validate(start, end time.Time, cs ConstraintSet) error {
	var errs []error

	want := DateRange(start, end)
	if len(w) != len(want) {
		errs = append(errs, fmt.Errorf("plan has %d days, expected %d", len(w), len(want)))
	}

	for i, day := range w {
		if i < len(want) && day.Date != want[i] {
			errs = append(errs, fmt.Errorf("day %d is %s, expected %s", i+1, day.Date, want[i]))
		}
		if day.Soir == "" {
			errs = append(errs, fmt.Errorf("%s: missing evening meal", day.Date))
		}

		t, err := ParseDate(day.Date)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch needs := cs.RequiresMidi(t.Weekday()); {
		case needs && day.Midi == "":
			errs = append(errs, fmt.Errorf("%s: missing noon meal on %s", day.Date, t.Weekday()))
		case !needs && day.Midi != "":
			errs = append(errs, fmt.Errorf("%s: unexpected noon meal on %s", day.Date, t.Weekday()))
		}
	}
	return errors.Join(errs...)
}
