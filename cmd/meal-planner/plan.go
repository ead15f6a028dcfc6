package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"meal-planner/internal/console"
	"meal-planner/internal/planner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	planStart         string
	planEnd           string
	planMaxRetries    int
	planNoInteractive bool
	planPlainMarkdown bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan meals for a date window",
	Long: `Plan meals for a date window, next Monday to Sunday by default.

The planner proposes, the coach reviews, and you approve or ask for changes.
Type yes to accept, abort to stop, or describe what to change.

Examples:
  # Plan interactively
  meal-planner plan

  # Plan a given week and accept the first plan the coach settles on
  meal-planner plan --start 2026-03-02 --end 2026-03-08 --no-interactive`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planStart, "start", "", "first day to plan (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&planEnd, "end", "", "last day to plan (YYYY-MM-DD)")
	planCmd.Flags().IntVar(&planMaxRetries, "max-retries", -1, "coach rejections retried per round (default from MAX_AGENT_RETRIES)")
	planCmd.Flags().BoolVar(&planNoInteractive, "no-interactive", false, "accept the plan without asking")
	planCmd.Flags().BoolVar(&planPlainMarkdown, "plain", false, "print recipe cards as raw Markdown")
}

// planWindow resolves the window from flags, asking for the missing parts when interactive.
func planWindow(p console.Prompter, interactive bool) (time.Time, time.Time, error) {
	if planStart == "" && planEnd == "" && interactive {
		return console.AskWindow(p, os.Stdout, time.Now())
	}

	start, end := planner.NextWeek(time.Now())
	var err error
	if planStart != "" {
		if start, err = planner.ParseDate(planStart); err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = start.AddDate(0, 0, 6)
	}
	if planEnd != "" {
		if end, err = planner.ParseDate(planEnd); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(planner.DateLayout), start.Format(planner.DateLayout))
	}
	console.AnnounceWindow(os.Stdout, start, end)
	return start, end, nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	var prompter console.Prompter
	if !planNoInteractive {
		p, release := console.NewPrompter(os.Stdin, os.Stdout)
		defer release()
		prompter = p
	}

	start, end, err := planWindow(prompter, !planNoInteractive)
	if errors.Is(err, console.ErrInputClosed) {
		fmt.Println("Exiting.")
		return nil
	}
	if err != nil {
		return err
	}

	opts := []planner.LoopOption{planner.WithReporter(console.NewReporter(os.Stdout))}
	if planMaxRetries >= 0 {
		opts = append(opts, planner.WithMaxAgentRetries(planMaxRetries))
	}
	if prompter != nil {
		opts = append(opts, planner.WithHumanReviewer(console.NewReviewer(prompter, os.Stdout)))
	} else {
		opts = append(opts, planner.WithHumanReviewer(planner.AutoApprove{}))
	}

	res, err := e.app.Plan(ctx, planner.Request{Start: start, End: end}, opts...)
	switch {
	case errors.Is(err, planner.ErrAborted):
		fmt.Println("Exiting.")
		return nil
	case errors.Is(err, planner.ErrNoPlan):
		return err
	case err != nil:
		e.log.Error("planning failed", zap.Error(err))
		return err
	}

	if prompter == nil {
		console.PrintPlan(os.Stdout, res.Plan)
	}
	console.PrintShoppingList(os.Stdout, res.ShoppingList, e.app.Constraints().Servings)

	fmt.Println("\n--- 👨‍🍳 Chef's Recipe Cards ---")
	fmt.Println(console.NewRenderer(!planPlainMarkdown && console.IsTerminal(os.Stdout)).Render(res.Tips))
	return nil
}
