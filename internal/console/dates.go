package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"meal-planner/internal/planner"
)

// AskDate prompts until the answer is empty (meaning def) or a valid YYYY-MM-DD date.
func AskDate(p Prompter, w io.Writer, label string, def time.Time) (time.Time, error) {
	for {
		answer, err := p.Prompt(fmt.Sprintf("%s (YYYY-MM-DD, default: %s): ", label, def.Format(planner.DateLayout)))
		if err != nil {
			return time.Time{}, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def, nil
		}
		d, err := planner.ParseDate(answer)
		if err == nil {
			return d, nil
		}
		fmt.Fprintf(w, "⚠️ %v\n", err)
	}
}

// AskWindow asks for the planning window, defaulting to next Monday through Sunday.
func AskWindow(p Prompter, w io.Writer, now time.Time) (time.Time, time.Time, error) {
	defStart, defEnd := planner.NextWeek(now)

	fmt.Fprintln(w, "\n📅 --- Meal Plan Setup ---")
	start, err := AskDate(p, w, "Start Date", defStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := AskDate(p, w, "End Date", defEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	for end.Before(start) {
		fmt.Fprintf(w, "⚠️ End date must not be before %s\n", start.Format(planner.DateLayout))
		if end, err = AskDate(p, w, "End Date", start.AddDate(0, 0, 6)); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	AnnounceWindow(w, start, end)
	return start, end, nil
}

// AnnounceWindow prints the banner that opens a run.
func AnnounceWindow(w io.Writer, start, end time.Time) {
	fmt.Fprintf(w, "\n--- 🍱 Starting Meal Planning for %s to %s ---\n\n",
		start.Format(planner.DateLayout), end.Format(planner.DateLayout))
}
