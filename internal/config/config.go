package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM
	LLMProvider    string  `env:"LLM_PROVIDER,default=gemini"`
	GoogleAPIKey   string  `env:"GOOGLE_API_KEY"`
	GeminiAPIKey   string  `env:"GEMINI_API_KEY"`
	GroqAPIKey     string  `env:"GROQ_API_KEY"`
	GeminiModel    string  `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	GroqModel      string  `env:"GROQ_MODEL,default=llama-3.3-70b-versatile"`
	BedrockModelID string  `env:"BEDROCK_MODEL_ID"`
	Temperature    float64 `env:"LLM_TEMPERATURE,default=0.7"`

	// Meal history
	MealsBackend       string `env:"MEALS_BACKEND,default=notion"`
	NotionToken        string `env:"NOTION_TOKEN"`
	NotionAPIKey       string `env:"NOTION_API_KEY"`
	NotionDatabaseID   string `env:"NOTION_DATABASE_ID"`
	NotionDatabaseName string `env:"NOTION_DATABASE_NAME,default=Repas"`

	DatabasePath string `env:"DATABASE_PATH,default=data/meal-planner.db"`

	// Planning
	MaxAgentRetries     int `env:"MAX_AGENT_RETRIES,default=3"`
	HistoryLookbackDays int `env:"HISTORY_LOOKBACK_DAYS,default=90"`
	HistoryLimit        int `env:"HISTORY_LIMIT,default=90"`
	Servings            int `env:"SERVINGS,default=5"`

	// Delivery (all optional)
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID    int64  `env:"TELEGRAM_CHAT_ID"`
	PlanArchiveDir    string `env:"PLAN_ARCHIVE_DIR"`
	PlanArchiveBucket string `env:"PLAN_ARCHIVE_BUCKET"`

	LogLevel     string `env:"LOG_LEVEL,default=info"`
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if cfg.GoogleAPIKey == "" {
		cfg.GoogleAPIKey = cfg.GeminiAPIKey
	}
	if cfg.NotionToken == "" {
		cfg.NotionToken = cfg.NotionAPIKey
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks value ranges. Credentials are checked by the components that use them.
func (c *Config) validate() error {
	switch c.LLMProvider {
	case "gemini", "groq", "bedrock":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.MealsBackend {
	case "notion", "sqlite":
	default:
		return fmt.Errorf("invalid MEALS_BACKEND %q", c.MealsBackend)
	}

	if c.MaxAgentRetries < 0 {
		return fmt.Errorf("invalid MAX_AGENT_RETRIES %d", c.MaxAgentRetries)
	}
	if c.Servings <= 0 {
		return fmt.Errorf("invalid SERVINGS %d", c.Servings)
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID environment variable not set")
	}
	return nil
}
