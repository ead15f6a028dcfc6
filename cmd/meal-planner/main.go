// Package main implements the meal-planner CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/logging"
	"meal-planner/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "meal-planner",
	Short: "Plan the family's week of meals with a planner, a coach and a cooker",
	Long: `meal-planner drafts a week of lunches and dinners from your meal history,
has it reviewed against the household rules, and asks you to approve it.

Configuration is read from the environment and from a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mealsCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(metricsCleanupCmd)
}

// env is everything a command needs once configuration is loaded.
type env struct {
	cfg *config.Config
	log *zap.Logger
	app *app.App

	shutdown telemetry.Shutdown
}

// setup loads configuration, then starts logging, telemetry and the app.
func setup(ctx context.Context) (*env, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Init(ctx, cfg.OtelEndpoint, version)
	if err != nil {
		log.Warn("telemetry disabled", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		shutdown(ctx)
		return nil, err
	}
	return &env{cfg: cfg, log: log, app: a, shutdown: shutdown}, nil
}

func (e *env) Close() {
	if err := e.app.Close(); err != nil {
		e.log.Warn("failed to close app", zap.Error(err))
	}
	// The run context may already be cancelled.
	if err := e.shutdown(context.Background()); err != nil {
		e.log.Warn("failed to flush telemetry", zap.Error(err))
	}
	e.log.Sync()
}
