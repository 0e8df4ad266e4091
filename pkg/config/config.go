package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"3000"`

	// SiteURL is the public front end, used for links in emails.
	SiteURL string `env:"SITE_URL"`

	Database  DatabaseConfig
	Auth      AuthConfig
	HTTP      HTTPConfig
	Upload    UploadConfig
	Cache     CacheConfig
	Email     EmailConfig
	Analytics AnalyticsConfig
	Log       LogConfig

	SeedSampleData bool `env:"SEED_SAMPLE_DATA" envDefault:"false"`
}

type DatabaseConfig struct {
	Driver       string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
}

type UploadConfig struct {
	Backend    string `env:"UPLOAD_BACKEND" envDefault:"local"`
	Dir        string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PublicPath string `env:"UPLOAD_PUBLIC_PATH" envDefault:"/uploads"`
	MaxBytes   int64  `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
}

type CacheConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"60s"`
}

type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	NotifyTo     string `env:"NOTIFY_EMAIL_TO"`
	From         string `env:"NOTIFY_EMAIL_FROM" envDefault:"Listings <noreply@example.com>"`
}

type AnalyticsConfig struct {
	RetentionDays   int    `env:"ANALYTICS_RETENTION_DAYS" envDefault:"90"`
	CleanupSchedule string `env:"ANALYTICS_CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`
	DigestSchedule  string `env:"STATS_DIGEST_SCHEDULE" envDefault:"0 20 * * 0"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

var (
	ErrMissingSecret   = errors.New("JWT_SECRET is required")
	ErrMissingPassword = errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	ErrMissingDatabase = errors.New("DATABASE_URL is required")
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingSecret
	}
	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		return ErrMissingPassword
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrMissingDatabase
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
