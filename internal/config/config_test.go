package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "ENV", "DATABASE_PATH", "ADMIN_API_KEY", "LOG_LEVEL", "LOG_FORMAT",
	"DEFAULT_TIMEZONE", "FINDER_WORKERS", "MAX_BATCH_SIZE", "MAX_YEAR_SPAN",
}

// clearEnv blanks every variable Load reads for the duration of the test.
// DATABASE_PATH is left unset rather than empty since empty is meaningful.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	unsetDatabasePath(t)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "./data/lunisolar.db", cfg.DatabasePath)
	assert.True(t, cfg.StoreEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "Asia/Shanghai", cfg.DefaultTimezone)
	assert.Equal(t, "Asia/Shanghai", cfg.Location().String())
	assert.Equal(t, 4, cfg.FinderWorkers)
	assert.Equal(t, 366, cfg.MaxBatchSize)
	assert.Equal(t, 10, cfg.MaxYearSpan)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_PATH", "/data/test.db")
	t.Setenv("ADMIN_API_KEY", "secret-key-123")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEFAULT_TIMEZONE", "America/New_York")
	t.Setenv("FINDER_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "/data/test.db", cfg.DatabasePath)
	assert.Equal(t, "secret-key-123", cfg.AdminAPIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
	assert.Equal(t, 8, cfg.FinderWorkers)
}

func TestLoad_EmptyDatabasePathDisablesStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.StoreEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "0")
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func validConfig() Config {
	return Config{
		Port:            8080,
		Env:             EnvDevelopment,
		DatabasePath:    "./data/test.db",
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultTimezone: "Asia/Shanghai",
		FinderWorkers:   4,
		MaxBatchSize:    366,
		MaxYearSpan:     10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"valid production config", func(c *Config) {
			c.Env = EnvProduction
			c.AdminAPIKey = "required-in-prod"
			c.LogFormat = "json"
		}, false},
		{"store disabled", func(c *Config) { c.DatabasePath = "" }, false},
		{"production requires admin key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"unknown timezone", func(c *Config) { c.DefaultTimezone = "Mars/Olympus" }, true},
		{"empty timezone", func(c *Config) { c.DefaultTimezone = "" }, true},
		{"no workers", func(c *Config) { c.FinderWorkers = 0 }, true},
		{"batch too large", func(c *Config) { c.MaxBatchSize = 5001 }, true},
		{"year span too large", func(c *Config) { c.MaxYearSpan = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = EnvProduction
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func unsetDatabasePath(t *testing.T) {
	t.Helper()
	prev, had := os.LookupEnv("DATABASE_PATH")
	os.Unsetenv("DATABASE_PATH")
	t.Cleanup(func() {
		if had {
			os.Setenv("DATABASE_PATH", prev)
		}
	})
}
