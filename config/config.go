package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	Domain        string `env:"AUTH_DOMAIN"`
	ClientID      string `env:"AUTH_CLIENT_ID"`
	ClientSecret  string `env:"AUTH_CLIENT_SECRET"`
	SessionSecret string `env:"SESSION_SECRET"`

	// IssuerURL overrides the discovery URL derived from Domain.
	IssuerURL string `env:"AUTH_ISSUER_URL"`

	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Port    int    `env:"PORT" envDefault:"3000"`
	DBPath  string `env:"DB_PATH" envDefault:"./authgate.db"`
	Env     string `env:"ENV" envDefault:"dev"`
	WebDir  string `env:"WEB_DIR" envDefault:"./web"`

	SessionExpirationDays int64 `env:"SESSION_EXPIRATION_DAYS" envDefault:"30"`
	SessionRefreshDays    int64 `env:"SESSION_REFRESH_DAYS" envDefault:"15"`
}

// Load parses the environment. Missing required variables are collected
// and reported together so a misconfigured deploy fails once, at startup.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	var missing []string
	if cfg.Domain == "" {
		missing = append(missing, "AUTH_DOMAIN")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "AUTH_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "AUTH_CLIENT_SECRET")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func (c *Config) CallbackURL() string {
	return c.BaseURL + "/callback"
}
