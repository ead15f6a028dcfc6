package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"meal-planner/internal/shopping"
)

// slots is one schedule entry as the planner writes it. Dinner is accepted for Soir.
type slots struct {
	Midi   string `json:"Midi,omitempty"`
	Soir   string `json:"Soir,omitempty"`
	Dinner string `json:"Dinner,omitempty"`
}

type proposal struct {
	Schedule     map[string]slots `json:"schedule"`
	ShoppingList json.RawMessage  `json:"shopping_list,omitempty"`
}

// EncodeSchedule writes plan and list in the planner's reply format.
func EncodeSchedule(plan WeekPlan, list shopping.List) ([]byte, error) {
	out := struct {
		Schedule     map[string]slots `json:"schedule"`
		ShoppingList shopping.List    `json:"shopping_list"`
	}{Schedule: make(map[string]slots, len(plan)), ShoppingList: list}
	for _, d := range plan {
		out.Schedule[d.Date] = slots{Midi: d.Midi, Soir: d.Soir}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ParseProposal reads a planner reply into a date-ordered plan and its shopping list.
// Noon meals on days that do not need one are dropped. The reply is malformed when
// the schedule misses a date of start..end, has a date outside it, or leaves out a
// required meal. The shopping list is advisory: if it cannot be read it is empty.
func ParseProposal(raw string, start, end time.Time, cs ConstraintSet) (WeekPlan, shopping.List, error) {
	p, err := decodeEnvelope[proposal](raw)
	if err != nil {
		return nil, nil, err
	}

	plan := make(WeekPlan, 0, len(p.Schedule))
	for date, s := range p.Schedule {
		t, err := ParseDate(date)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}

		soir := s.Soir
		if soir == "" {
			soir = s.Dinner
		}
		if soir == "" {
			return nil, nil, fmt.Errorf("%w: %s has no evening meal", ErrMalformedOutput, date)
		}

		day := DayPlan{Date: date, Soir: soir}
		if cs.RequiresMidi(t.Weekday()) {
			day.Midi = s.Midi
		}
		plan = append(plan, day)
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Date < plan[j].Date })

	if !plan.IsEmpty() {
		if err := plan.Validate(start, end, cs); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}
	return plan, decodeShoppingList(p.ShoppingList), nil
}

// decodeShoppingList never fails: an unreadable list becomes an empty one.
func decodeShoppingList(raw json.RawMessage) shopping.List {
	var list shopping.List
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			list = nil
		}
	}
	if list == nil {
		list = shopping.List{}
	}
	return list
}
