package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("DATABASE_URL", "postgres://localhost/listings")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, 100, cfg.HTTP.RateLimitMax)
	assert.Equal(t, "local", cfg.Upload.Backend)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxBytes)
	assert.Equal(t, 90, cfg.Analytics.RetentionDays)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("DATABASE_URL", "file.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.HTTP.RateLimitWindow)
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "x"}}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSecret)

	cfg.Auth.JWTSecret = "s"
	assert.ErrorIs(t, cfg.Validate(), ErrMissingPassword)

	cfg.Auth.AdminPassword = "p"
	assert.NoError(t, cfg.Validate())

	cfg.Database.URL = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabase)
}
