package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken    string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	OpenAIKey   string `envconfig:"OPENAI_API_KEY" required:"true"`
	WhoisAPIKey string `envconfig:"WHOIS_API_KEY" required:"true"`

	DBPath   string `envconfig:"DB_PATH" default:"./data/domainbot.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	// Per-user throttles.
	SearchCooldown time.Duration `envconfig:"SEARCH_COOLDOWN" default:"60s"`
	QuotaWindow    time.Duration `envconfig:"QUOTA_WINDOW" default:"60s"`
	QuotaLimit     int           `envconfig:"QUOTA_LIMIT" default:"3"`

	// Idea generation.
	IdeaCount int    `envconfig:"IDEA_COUNT" default:"5"`
	DomainTLD string `envconfig:"DOMAIN_TLD" default:"ai"`

	// Bound on each external call (OpenAI, WHOIS) so a hung collaborator
	// cannot stall a user's session indefinitely.
	ExternalTimeout time.Duration `envconfig:"EXTERNAL_TIMEOUT" default:"30s"`
}

// Load reads environment variables into Config. A .env file in the working
// directory is loaded first when present; real environment wins.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
