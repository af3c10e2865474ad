package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/pagepatch/internal/rewrite"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
	Suggestions SuggestionsConfig
	Rewrite     RewriteConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// MaxBodyBytes caps posted documents and payloads.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"10485760" validate:"gt=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gte=0"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" validate:"gte=0"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SuggestionsConfig holds the suggestion service connection.
// An empty endpoint disables fetching; callers must then post suggestions.
type SuggestionsConfig struct {
	Endpoint   string        `envconfig:"SUGGESTIONS_ENDPOINT" validate:"omitempty,url"`
	WebsiteID  string        `envconfig:"SUGGESTIONS_WEBSITE_ID"`
	AppVersion string        `envconfig:"SUGGESTIONS_APP_VERSION" default:"live"`
	Timeout    time.Duration `envconfig:"SUGGESTIONS_TIMEOUT" default:"10s"`
	RPS        float64       `envconfig:"SUGGESTIONS_RPS" default:"20" validate:"gte=0"`
	MaxRetries int           `envconfig:"SUGGESTIONS_MAX_RETRIES" default:"2" validate:"gte=0"`
	TripAfter  uint32        `envconfig:"SUGGESTIONS_TRIP_AFTER" default:"5"`
}

// RewriteConfig selects the rewrite policy and its overrides.
type RewriteConfig struct {
	Version          string        `envconfig:"REWRITE_POLICY" default:"v2"`
	Boundary         string        `envconfig:"REWRITE_BOUNDARY" default:"script"`
	MissingAttribute string        `envconfig:"REWRITE_MISSING_ATTRIBUTE" default:"skip"`
	DirectSelect     bool          `envconfig:"REWRITE_DIRECT_SELECT" default:"true"`
	Sanitize         bool          `envconfig:"REWRITE_SANITIZE" default:"false"`
	MatchTimeout     time.Duration `envconfig:"REWRITE_MATCH_TIMEOUT" default:"250ms"`
}

var validate = validator.New()

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Suggestions: SuggestionsConfig{
			AppVersion: "live",
			Timeout:    10 * time.Second,
			RPS:        20,
			MaxRetries: 2,
			TripAfter:  5,
		},
		Rewrite: RewriteConfig{
			Version:          rewrite.PolicyDefault,
			Boundary:         "script",
			MissingAttribute: "skip",
			DirectSelect:     true,
			MatchTimeout:     250 * time.Millisecond,
		},
	}
}

// Validate checks field constraints and that the rewrite section names a
// known policy.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Rewrite.Policy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy builds the rewrite policy named by Version with the overrides applied.
func (r RewriteConfig) Policy() (rewrite.Policy, error) {
	p, err := rewrite.PolicyByVersion(r.Version)
	if err != nil {
		return rewrite.Policy{}, err
	}
	if p.Boundary, err = rewrite.ParseBoundary(r.Boundary); err != nil {
		return rewrite.Policy{}, err
	}
	if p.MissingAttribute, err = rewrite.ParseMissingAttribute(r.MissingAttribute); err != nil {
		return rewrite.Policy{}, err
	}
	p.DirectSelect = r.DirectSelect
	p.SanitizeMarkup = r.Sanitize
	if r.MatchTimeout > 0 {
		p.MatchTimeout = r.MatchTimeout
	}
	return p, nil
}
