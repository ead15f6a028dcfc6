package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestWeekPlanValidate(t *testing.T) {
	cs := DefaultConstraints()
	start, end := mustDate(t, "2026-03-02"), mustDate(t, "2026-03-04") // Mon..Wed

	tests := []struct {
		name    string
		plan    WeekPlan
		wantErr []string
	}{
		{
			name: "valid",
			plan: WeekPlan{
				{Date: "2026-03-02", Soir: "a"},
				{Date: "2026-03-03", Soir: "b"},
				{Date: "2026-03-04", Midi: "c", Soir: "d"},
			},
		},
		{
			name: "gap and missing day",
			plan: WeekPlan{
				{Date: "2026-03-02", Soir: "a"},
				{Date: "2026-03-04", Midi: "c", Soir: "d"},
			},
			wantErr: []string{"plan has 2 days, expected 3", "day 2 is 2026-03-04, expected 2026-03-03"},
		},
		{
			name: "slot rules",
			plan: WeekPlan{
				{Date: "2026-03-02", Midi: "x", Soir: "a"},
				{Date: "2026-03-03"},
				{Date: "2026-03-04", Soir: "d"},
			},
			wantErr: []string{
				"2026-03-02: unexpected noon meal on Monday",
				"2026-03-03: missing evening meal",
				"2026-03-04: missing noon meal on Wednesday",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate(start, end, cs)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestMidiOnlyOnConfiguredDays(t *testing.T) {
	cs := ConstraintSet{MidiDays: []time.Weekday{time.Monday}, Servings: 2}
	start, end := mustDate(t, "2026-03-02"), mustDate(t, "2026-03-03")
	raw := `{"schedule": {
		"2026-03-02": {"Midi": "Quiche", "Soir": "Soupe"},
		"2026-03-03": {"Midi": "Dropped", "Soir": "Salade"}
	}}`

	plan, _, err := ParseProposal(raw, start, end, cs)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	for _, day := range plan {
		d := mustDate(t, day.Date)
		assert.NotEmpty(t, day.Soir)
		assert.Equal(t, cs.RequiresMidi(d.Weekday()), day.Midi != "", day.Date)
	}

	missing := `{"schedule": {
		"2026-03-02": {"Soir": "Soupe"},
		"2026-03-03": {"Soir": "Salade"}
	}}`
	plan, _, err = ParseProposal(missing, start, end, cs)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.True(t, plan.IsEmpty())
}

func TestClone(t *testing.T) {
	p := planNamed("a")
	c := p.Clone()
	c[0].Soir = "b"
	assert.Equal(t, "a", p[0].Soir)
}
