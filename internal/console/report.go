package console

import (
	"fmt"
	"io"

	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

// Reporter narrates loop events.
type Reporter struct {
	out io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{out: w}
}

func (r *Reporter) Report(e planner.Event) {
	switch e.Kind {
	case planner.EventProposing:
		fmt.Fprintf(r.out, "--- 🔄 Generating Plan (Internal Iteration %d) ---\n", e.Attempt)
		fmt.Fprintln(r.out, "🤖 Planner is thinking...")
	case planner.EventEmptyProposal:
		fmt.Fprintln(r.out, "❌ Planner failed to generate a valid plan. Retrying...")
	case planner.EventReviewing:
		fmt.Fprintln(r.out, "🥗 Coach is evaluating...")
	case planner.EventVerdict:
		fmt.Fprintf(r.out, "   Coach Status: %s\n", e.Verdict.Status)
		fmt.Fprintf(r.out, "   Critique: %s\n\n", e.Verdict.Critique)
	case planner.EventBestEffort:
		fmt.Fprintln(r.out, "⚠️ Agent max retries reached. Presenting best effort.")
	case planner.EventNoPlan:
		fmt.Fprintln(r.out, "❌ Failed to generate a plan after all attempts.")
	case planner.EventRevising:
		fmt.Fprintln(r.out, "🔄 Regenerating plan based on your feedback...")
		fmt.Fprintln(r.out)
	case planner.EventFinalizing:
		fmt.Fprintln(r.out, "👨‍🍳 Cooker is writing the recipe cards...")
	}
}

// PrintPlan lists the plan one day per line. The noon part is left out on evening-only days.
func PrintPlan(w io.Writer, plan planner.WeekPlan) {
	fmt.Fprintln(w, "\n--- 📋 Proposed Meal Plan ---")
	for _, day := range plan {
		midi := ""
		if day.Midi != "" {
			midi = fmt.Sprintf("Midi: %s | ", day.Midi)
		}
		fmt.Fprintf(w, "📅 %s: %sSoir: %s\n", day.Date, midi, day.Soir)
	}
}

// PrintShoppingList prints the list grouped by category. An empty list prints nothing.
func PrintShoppingList(w io.Writer, list shopping.List, servings int) {
	if list.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- 🛒 Shopping List (Approx for %d) ---\n\n", servings)
	fmt.Fprint(w, list.Markdown())
}
