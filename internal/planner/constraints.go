package planner

import (
	"slices"
	"strings"
	"time"
)

// ConstraintSet is the household configuration the plan must satisfy.
type ConstraintSet struct {
	// MidiDays are the weekdays that need a noon meal. Every day needs an evening meal.
	MidiDays []time.Weekday
	// Rules are stated to the planner verbatim.
	Rules []string
	// Servings is the number of people quantities are sized for.
	Servings int
}

// DefaultConstraints returns the family's usual week.
func DefaultConstraints() ConstraintSet {
	return ConstraintSet{
		MidiDays: []time.Weekday{time.Wednesday, time.Saturday, time.Sunday},
		Rules: []string{
			"Monday & Tuesday evening: simple/quick only.",
			"Wednesday: a noon meal is required, quick/easy.",
			"Saturday noon: light. Saturday evening: may be ambitious.",
			"Sunday noon: may be ambitious. Sunday evening: light.",
			"Saturday evening and Sunday noon must not both be ambitious in the same week.",
			"Sunday: occasionally propose a batch-cookable meal.",
			"Avoid repeating a dominant ingredient across the week.",
		},
		Servings: 5,
	}
}

// RequiresMidi reports whether d needs a noon meal.
func (c ConstraintSet) RequiresMidi(d time.Weekday) bool {
	return slices.Contains(c.MidiDays, d)
}

// MidiDayNames joins the noon days for prompts, e.g. "Wednesday, Saturday, Sunday".
func (c ConstraintSet) MidiDayNames() string {
	names := make([]string, 0, len(c.MidiDays))
	for _, d := range c.MidiDays {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}
