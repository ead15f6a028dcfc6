package main

import (
	"meal-planner/internal/tools"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the meal history as MCP tools over stdio",
	Long: `Serve the meal history as MCP tools over stdin/stdout.

Tools: get_recent_meals, update_meal, add_meal.

Examples:
  # Register with an MCP client
  meal-planner serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		srv, err := tools.NewServer(e.app.MealStore(), version, e.log)
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}
