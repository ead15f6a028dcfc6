package main

import (
	"fmt"

	"meal-planner/internal/console"

	"github.com/spf13/cobra"
)

var (
	plansLimit int
	plansFull  bool
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show recently accepted plans",
	Long: `Show recently accepted plans, newest first.

Examples:
  meal-planner plans
  meal-planner plans --limit 1 --full`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		stored, err := e.app.Plans().ListRecent(cmd.Context(), plansLimit)
		if err != nil {
			return err
		}
		if len(stored) == 0 {
			fmt.Println("No plans saved yet.")
			return nil
		}

		for _, p := range stored {
			note := ""
			if p.BestEffort {
				note = " (best effort)"
			}
			fmt.Printf("#%d %s → %s, %d revision(s)%s, saved %s\n",
				p.ID, p.Start, p.End, p.Revisions, note, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			if plansFull {
				console.PrintPlan(cmd.OutOrStdout(), p.Plan)
				console.PrintShoppingList(cmd.OutOrStdout(), p.ShoppingList, e.app.Constraints().Servings)
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	plansCmd.Flags().IntVar(&plansLimit, "limit", 5, "number of plans to show")
	plansCmd.Flags().BoolVar(&plansFull, "full", false, "print each plan and its shopping list")
}
