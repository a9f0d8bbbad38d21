// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone names resolve without a system zoneinfo

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Event store; empty disables persistence
	DatabasePath string

	// Authentication
	AdminAPIKey string // key for the admin endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Calendar
	DefaultTimezone string // IANA zone used when a request names none
	FinderWorkers   int    // parallel scan workers per event search
	MaxBatchSize    int    // dates per batch conversion
	MaxYearSpan     int    // years per admin precompute request
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Event store
	cfg.DatabasePath = getEnvAllowEmpty("DATABASE_PATH", "./data/lunisolar.db")

	// Authentication
	cfg.AdminAPIKey = getEnv("ADMIN_API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Calendar
	cfg.DefaultTimezone = getEnv("DEFAULT_TIMEZONE", "Asia/Shanghai")
	cfg.FinderWorkers = getEnvInt("FINDER_WORKERS", 4)
	cfg.MaxBatchSize = getEnvInt("MAX_BATCH_SIZE", 366)
	cfg.MaxYearSpan = getEnvInt("MAX_YEAR_SPAN", 10)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// Admin key is required in production
	if c.Env == EnvProduction && c.AdminAPIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil || c.DefaultTimezone == "" {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE must be an IANA zone name, got %q", c.DefaultTimezone))
	}

	if c.FinderWorkers < 1 || c.FinderWorkers > 64 {
		errs = append(errs, fmt.Errorf("FINDER_WORKERS must be between 1 and 64, got %d", c.FinderWorkers))
	}
	if c.MaxBatchSize < 1 || c.MaxBatchSize > 5000 {
		errs = append(errs, fmt.Errorf("MAX_BATCH_SIZE must be between 1 and 5000, got %d", c.MaxBatchSize))
	}
	if c.MaxYearSpan < 1 || c.MaxYearSpan > 100 {
		errs = append(errs, fmt.Errorf("MAX_YEAR_SPAN must be between 1 and 100, got %d", c.MaxYearSpan))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// StoreEnabled reports whether computed events are persisted.
func (c *Config) StoreEnabled() bool {
	return c.DatabasePath != ""
}

// Location returns the default timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv, except that a variable set to the empty
// string overrides the default.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
