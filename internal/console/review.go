package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"meal-planner/internal/planner"
)

// Reviewer asks the user to approve each plan the agents settle on.
type Reviewer struct {
	prompter Prompter
	out      io.Writer
}

func NewReviewer(p Prompter, w io.Writer) *Reviewer {
	return &Reviewer{prompter: p, out: w}
}

// Review shows the plan and reads a decision. Closing the input aborts the run.
func (r *Reviewer) Review(_ context.Context, o planner.Outcome) (planner.Decision, error) {
	PrintPlan(r.out, o.Plan)
	if o.BestEffort() {
		fmt.Fprintf(r.out, "\n⚠️ The coach did not approve this plan: %s\n", o.Verdict.Critique)
	}

	fmt.Fprintln(r.out, "\n------------------------------------------------")
	choice, err := r.prompter.Prompt("Do you approve this plan? (yes/no/change specific meal): ")
	if errors.Is(err, ErrInputClosed) {
		return planner.Decision{Action: planner.DecisionAbort}, nil
	}
	if err != nil {
		return planner.Decision{}, err
	}

	d := planner.ParseDecision(choice)
	switch d.Action {
	case planner.DecisionApprove:
		fmt.Fprintln(r.out, "🎉 Plan Confirmed!")
		return d, nil
	case planner.DecisionAbort:
		return d, nil
	}

	fmt.Fprintln(r.out, "\n📝 What would you like to change?")
	feedback, err := r.prompter.Prompt("Your feedback for the Planner: ")
	if errors.Is(err, ErrInputClosed) {
		return planner.Decision{Action: planner.DecisionAbort}, nil
	}
	if err != nil {
		return planner.Decision{}, err
	}

	feedback = strings.TrimSpace(feedback)
	if feedback == "" && !isPlainNo(d.Feedback) {
		// A specific change typed at the approval prompt stands as the feedback.
		feedback = d.Feedback
	}
	if feedback == "" {
		feedback = "The user rejected this plan. Propose a different one."
	}
	return planner.Decision{Action: planner.DecisionRevise, Feedback: feedback}, nil
}

func isPlainNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "n":
		return true
	}
	return false
}
