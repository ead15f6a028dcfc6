// Package app wires configuration into the stores, agents and delivery channels.
package app

import (
	"context"
	"errors"
	"fmt"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/llm"
	"meal-planner/internal/meals"
	"meal-planner/internal/meals/notion"
	"meal-planner/internal/meals/sqlitestore"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/storage"
	"meal-planner/internal/telegram"

	"go.uber.org/zap"
)

const extractorInstruction = "You extract recipes from web pages. Answer with JSON only."

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log *zap.Logger

	db           *database.DB
	mealStore    meals.Store
	metricsStore *metrics.Store
	planRepo     *planner.PlanRepository
	archivers    []storage.Archiver
	notifier     *telegram.Notifier

	newSession planner.SessionFactory
	closers    []llm.Closer
}

// Option customizes an App.
type Option func(*App)

// WithSessionFactory replaces the configured model backend.
func WithSessionFactory(f planner.SessionFactory) Option {
	return func(a *App) { a.newSession = f }
}

// WithMealStore replaces the configured meal history backend.
func WithMealStore(s meals.Store) Option {
	return func(a *App) { a.mealStore = s }
}

// New opens the database and the configured meal store. Delivery channels
// (archive, Telegram) are set up only when configured.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(a)
	}

	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	a.metricsStore = metrics.NewStore(db.SQL)
	a.planRepo = planner.NewPlanRepository(db.SQL)

	if a.mealStore == nil {
		if a.mealStore, err = a.openMealStore(); err != nil {
			db.Close()
			return nil, err
		}
	}
	if a.newSession == nil {
		a.newSession = a.llmSession
	}

	if cfg.PlanArchiveDir != "" {
		fa, err := storage.NewFileArchive(cfg.PlanArchiveDir)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.archivers = append(a.archivers, fa)
	}
	if cfg.PlanArchiveBucket != "" {
		sa, err := storage.NewS3Archive(ctx, cfg.PlanArchiveBucket)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.archivers = append(a.archivers, sa)
	}
	if cfg.TelegramBotToken != "" {
		n, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.notifier = n
	}
	return a, nil
}

func (a *App) openMealStore() (meals.Store, error) {
	switch a.cfg.MealsBackend {
	case "sqlite":
		return sqlitestore.New(a.db.SQL), nil
	default:
		opts := []notion.Option{notion.WithLogger(a.log)}
		if a.cfg.NotionDatabaseID != "" {
			opts = append(opts, notion.WithDatabaseID(a.cfg.NotionDatabaseID))
		}
		return notion.New(a.cfg.NotionToken, a.cfg.NotionDatabaseName, opts...)
	}
}

// llmSession opens a session on the configured provider and keeps it for Close.
func (a *App) llmSession(ctx context.Context, instruction string) (llm.Session, error) {
	opts := llm.Options{
		Provider:    llm.Provider(a.cfg.LLMProvider),
		Temperature: float32(a.cfg.Temperature),
	}
	switch opts.Provider {
	case llm.ProviderGroq:
		opts.Model, opts.APIKey = a.cfg.GroqModel, a.cfg.GroqAPIKey
	case llm.ProviderBedrock:
		opts.Model = a.cfg.BedrockModelID
	default:
		opts.Model, opts.APIKey = a.cfg.GeminiModel, a.cfg.GoogleAPIKey
	}

	s, err := llm.NewSession(ctx, opts, instruction)
	if err != nil {
		return nil, err
	}
	if c, ok := s.(llm.Closer); ok {
		a.closers = append(a.closers, c)
	}
	return s, nil
}

// Close releases model clients and the database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

// MealStore is the configured meal history.
func (a *App) MealStore() meals.Store { return a.mealStore }

// Metrics is the execution metrics store.
func (a *App) Metrics() *metrics.Store { return a.metricsStore }

// Plans is the repository of accepted plans.
func (a *App) Plans() *planner.PlanRepository { return a.planRepo }

// Notifier is the Telegram notifier, or nil when not configured.
func (a *App) Notifier() *telegram.Notifier { return a.notifier }

// Health reports process memory and the size of the data directory.
func (a *App) Health() metrics.SysHealth {
	return metrics.HealthFor(a.cfg.DatabasePath)
}

// Constraints are the household constraints from configuration.
func (a *App) Constraints() planner.ConstraintSet {
	cs := planner.DefaultConstraints()
	cs.Servings = a.cfg.Servings
	return cs
}

// NewLoop builds the three roles, each on its own session, and the loop driving them.
func (a *App) NewLoop(ctx context.Context, opts ...planner.LoopOption) (*planner.RefinementLoop, error) {
	roleOpts := []planner.RoleOption{
		planner.WithLogger(a.log),
		planner.WithRecorder(a.metricsStore),
	}

	p, err := planner.NewPlanner(ctx, a.newSession, a.mealStore, planner.PlannerConfig{
		Constraints:  a.Constraints(),
		LookbackDays: a.cfg.HistoryLookbackDays,
		HistoryLimit: a.cfg.HistoryLimit,
	}, roleOpts...)
	if err != nil {
		return nil, err
	}
	coach, err := planner.NewCoach(ctx, a.newSession, roleOpts...)
	if err != nil {
		return nil, err
	}
	cooker, err := planner.NewCooker(ctx, a.newSession, roleOpts...)
	if err != nil {
		return nil, err
	}

	opts = append([]planner.LoopOption{
		planner.WithMaxAgentRetries(a.cfg.MaxAgentRetries),
		planner.WithLoopLogger(a.log),
	}, opts...)
	return planner.NewRefinementLoop(p, coach, cooker, opts...)
}

// Plan runs a planning session and delivers the accepted plan.
func (a *App) Plan(ctx context.Context, req planner.Request, opts ...planner.LoopOption) (planner.Result, error) {
	loop, err := a.NewLoop(ctx, opts...)
	if err != nil {
		return planner.Result{}, err
	}
	res, err := loop.Run(ctx, req)
	if err != nil {
		return res, err
	}
	if err := a.Deliver(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

// Deliver saves res, then archives and sends it where configured. Only the
// save is fatal; archive and notification failures are logged.
func (a *App) Deliver(ctx context.Context, res planner.Result) error {
	id, err := a.planRepo.Save(ctx, res)
	if err != nil {
		return err
	}
	log := a.log.With(zap.String("run_id", res.RunID), zap.Int64("plan_id", id))
	log.Info("plan saved")

	for _, ar := range a.archivers {
		loc, err := ar.Archive(ctx, res)
		if err != nil {
			log.Warn("failed to archive plan", zap.Error(err))
			continue
		}
		log.Info("plan archived", zap.String("location", loc))
	}

	if a.notifier != nil {
		if err := a.notifier.SendPlan(ctx, res); err != nil {
			log.Warn("failed to send plan to telegram", zap.Error(err))
		}
	}
	return nil
}

// ClipRecipe scrapes url into a meal draft. When a model is configured it is
// used for pages without structured recipe data.
func (a *App) ClipRecipe(ctx context.Context, url string) (meals.Meal, error) {
	opts := []clipper.Option{clipper.WithLogger(a.log)}
	if s, err := a.newSession(ctx, extractorInstruction); err == nil {
		opts = append(opts, clipper.WithExtractor(s))
	} else {
		a.log.Debug("clipping without model fallback", zap.Error(err))
	}
	return clipper.NewClipper(opts...).ClipURL(ctx, url)
}
