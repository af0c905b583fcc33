package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. It is constructed once in main and
// passed into every component constructor; nothing reads the environment
// after startup.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// Meta Graph API
	PageAccessToken    string        `env:"PAGE_ACCESS_TOKEN,required"`
	PageID             string        `env:"PAGE_ID,required"`
	WebhookVerifyToken string        `env:"WEBHOOK_VERIFY_TOKEN,required"`
	GraphAPIBaseURL    string        `env:"GRAPH_API_BASE_URL" envDefault:"https://graph.facebook.com"`
	GraphAPIVersion    string        `env:"GRAPH_API_VERSION" envDefault:"v24.0"`
	GraphAPITimeout    time.Duration `env:"GRAPH_API_TIMEOUT" envDefault:"30s"`
	GraphAPIRPS        float64       `env:"GRAPH_API_RPS" envDefault:"5"`

	// LLM
	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"45s"`

	// Webhook processing
	WebhookPort          int      `env:"WEBHOOK_PORT" envDefault:"8000"`
	WebhookMaxConcurrent int      `env:"WEBHOOK_MAX_CONCURRENT" envDefault:"8"`
	ChatHistoryLimit     int      `env:"CHAT_HISTORY_LIMIT" envDefault:"25"`
	HarmfulKeywords      []string `env:"HARMFUL_KEYWORDS" envSeparator:","`

	// Observability
	HealthPort           int           `env:"HEALTH_PORT" envDefault:"8080"`
	PendingSweepInterval time.Duration `env:"PENDING_SWEEP_INTERVAL" envDefault:"5m"`
	RateLimitRPS         int           `env:"RATE_LIMIT_RPS" envDefault:"1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
