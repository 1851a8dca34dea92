package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the bot service.
// Environment variables are parsed from the CINEBOT_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Telegram Bot API
	BotToken       string `envconfig:"BOT_TOKEN" required:"true"`
	GatewayBaseURL string `envconfig:"GATEWAY_BASE_URL" default:"https://api.telegram.org"`
	PollTimeout    int    `envconfig:"POLL_TIMEOUT_SECONDS" default:"30"`

	// Metadata service (TMDB)
	TMDBAPIKey       string `envconfig:"TMDB_API_KEY" required:"true"`
	TMDBBaseURL      string `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	TMDBImageBaseURL string `envconfig:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
	UpstreamTimeout  int    `envconfig:"UPSTREAM_TIMEOUT_SECONDS" default:"10"`

	// Playback source URL templates, comma separated. Movie templates take
	// the item id; TV templates take id, season and episode, in that order.
	// Kept out of code per deployment policy.
	MovieSourceTemplates []string `envconfig:"MOVIE_SOURCE_TEMPLATES" default:""`
	TVSourceTemplates    []string `envconfig:"TV_SOURCE_TEMPLATES" default:""`

	// HTTP status surface
	HTTPPort int `envconfig:"HTTP_PORT" default:"10000"`

	// Storage backend: sqlite or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/cinebot.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Admission policy
	RateLimitEvents int `envconfig:"RATE_LIMIT_EVENTS" default:"20"`
	RateLimitWindow int `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"60"`

	// Session lifecycle
	SessionTTLMinutes    int `envconfig:"SESSION_TTL_MINUTES" default:"30"`
	SweepIntervalMinutes int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"30"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`

	// Release notification scan
	NotifyIntervalHours int `envconfig:"NOTIFY_INTERVAL_HOURS" default:"24"`
}

// ResolveDefaults validates the storage driver and derives it when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowed := map[string]bool{"sqlite": true, "postgres": true}
	if !allowed[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("CINEBOT_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with CINEBOT_, e.g. CINEBOT_BOT_TOKEN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CINEBOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Int("rate_limit_events", cfg.RateLimitEvents).
		Int("rate_limit_window_s", cfg.RateLimitWindow).
		Int("session_ttl_min", cfg.SessionTTLMinutes).
		Int("movie_sources", len(cfg.MovieSourceTemplates)).
		Int("tv_sources", len(cfg.TVSourceTemplates)).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests. No env access.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:     EnvTesting,
		BotToken:        "test-token",
		GatewayBaseURL:  "http://localhost:0",
		TMDBAPIKey:      "test-key",
		TMDBBaseURL:     "http://localhost:0",
		UpstreamTimeout: 10,
		PollTimeout:     1,
		HTTPPort:        10000,
		DBDriver:        "sqlite",
		SQLitePath:      ":memory:",

		RateLimitEvents:      20,
		RateLimitWindow:      60,
		SessionTTLMinutes:    30,
		SweepIntervalMinutes: 30,

		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 5,
		NotifyIntervalHours:       24,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the status server listen address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// SessionTTL returns the session eviction threshold as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns the session sweeper period as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// RateWindow returns the admission window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}
