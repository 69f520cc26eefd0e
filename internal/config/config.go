// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mmynk/tallyup/internal/settlement"
)

// Config holds runtime configuration for the server.
type Config struct {
	AppEnv             string        `envconfig:"APP_ENV" default:"development"`
	AppAddr            string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	DBPath string `envconfig:"DB_PATH" default:"./data/tallyup.db"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`

	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	CORSOrigin         string `envconfig:"CORS_ORIGIN" default:"*"`

	SettleMaxMembers       int  `envconfig:"SETTLE_MAX_MEMBERS" default:"500"`
	SettleMaxExpenses      int  `envconfig:"SETTLE_MAX_EXPENSES" default:"100000"`
	SettleStrictMembership bool `envconfig:"SETTLE_STRICT_MEMBERSHIP" default:"false"`
	RequireBalancedSplits  bool `envconfig:"REQUIRE_BALANCED_SPLITS" default:"true"`
}

// Load reads a .env file when present, then the environment, and validates
// the result.
func Load() (*Config, error) {
	// .env is optional; production sets real environment variables
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.AppAddr == "" {
		errors = append(errors, "APP_ADDR cannot be empty")
	}
	for name, d := range map[string]time.Duration{
		"APP_READ_TIMEOUT":     c.AppReadTimeout,
		"APP_WRITE_TIMEOUT":    c.AppWriteTimeout,
		"APP_REQUEST_TIMEOUT":  c.AppRequestTimeout,
		"APP_SHUTDOWN_TIMEOUT": c.AppShutdownTimeout,
		"TOKEN_TTL":            c.TokenTTL,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"pretty", "json"}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	if c.SettleMaxMembers < 0 || c.SettleMaxExpenses < 0 {
		errors = append(errors, "settlement limits must not be negative")
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SettlementOptions returns the engine options derived from the configuration.
func (c *Config) SettlementOptions() settlement.Options {
	return settlement.Options{
		Strict:      c.SettleStrictMembership,
		MaxMembers:  c.SettleMaxMembers,
		MaxExpenses: c.SettleMaxExpenses,
	}
}
