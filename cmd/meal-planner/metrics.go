package main

import (
	"errors"
	"fmt"

	"meal-planner/internal/console"
	"meal-planner/internal/metrics"

	"github.com/spf13/cobra"
)

var (
	metricsDays   int
	metricsNotify bool
	cleanupDays   int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Report model usage and system health",
	Long: `Report daily token usage of the planner, coach and cooker, plus memory
and data directory size.

Examples:
  meal-planner metrics
  meal-planner metrics --days 30 --notify`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		usage, err := e.app.Metrics().GetDailyUsage(metricsDays)
		if err != nil {
			return err
		}
		report := metrics.Report(usage, e.app.Health())

		if metricsNotify {
			n := e.app.Notifier()
			if n == nil {
				return errors.New("--notify needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
			}
			return n.SendMarkdown(cmd.Context(), report)
		}
		fmt.Println(console.NewRenderer(true).Render(report))
		return nil
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Delete old execution metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.app.Metrics().Cleanup(cleanupDays)
		if err != nil {
			return fmt.Errorf("failed to cleanup metrics: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", n)
		return nil
	},
}

func init() {
	metricsCmd.Flags().IntVar(&metricsDays, "days", 7, "days of usage to report")
	metricsCmd.Flags().BoolVar(&metricsNotify, "notify", false, "send the report to Telegram instead of printing it")
	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "keep metrics from the last N days")
}
