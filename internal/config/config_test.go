package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:          "development",
		Port:         "8080",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		StoreBackend: BackendRedis,
		RedisURL:     "redis://localhost:6379",
		DBHost:       "localhost",
		DBName:       "bigvyapaar",
		DBPassword:   "secure-password",
		SQLitePath:   "test.db",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid redis development", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown backend", func(c *Config) { c.StoreBackend = "cosmos" }, true},
		{"redis without url", func(c *Config) { c.RedisURL = "" }, true},
		{"postgres without host", func(c *Config) { c.StoreBackend = BackendPostgres; c.DBHost = "" }, true},
		{"sqlite in development", func(c *Config) { c.StoreBackend = BackendSQLite }, false},
		{"negative retries", func(c *Config) { c.StoreMaxRetries = -1 }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production sqlite", func(c *Config) { c.Env = "production"; c.StoreBackend = BackendSQLite }, true},
		{"production postgres without ssl", func(c *Config) {
			c.Env = "production"
			c.StoreBackend = BackendPostgres
			c.DBSSLMode = "disable"
		}, true},
		{"production postgres with ssl", func(c *Config) {
			c.Env = "production"
			c.StoreBackend = BackendPostgres
			c.DBSSLMode = "require"
		}, false},
		{"production redis", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_BACKEND", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORE_MAX_RETRIES", "7")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, c.StoreBackend)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 7, c.StoreMaxRetries)
	assert.Equal(t, "8080", c.Port)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_MissingProfileFile(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	assert.Error(t, err)
}
