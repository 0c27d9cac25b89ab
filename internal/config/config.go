package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and REDIS_ADDR are required.
type Config struct {
	// Server
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Database
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// Work queue
	RedisAddr     string `env:"REDIS_ADDR,required,notEmpty"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	QueueKey      string `env:"QUEUE_KEY" envDefault:"q:waitlist-email"`

	// Email provider: "resend" or "smtp"
	EmailProvider   string        `env:"EMAIL_PROVIDER" envDefault:"resend"`
	EmailFrom       string        `env:"EMAIL_FROM" envDefault:"Rootfleet <noreply@rootfleet.com>"`
	ResendBaseURL   string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	ResendAPIKey    string        `env:"RESEND_API_KEY"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	ProviderRate    int           `env:"PROVIDER_RATE_PER_SEC" envDefault:"2"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// Drain trigger and schedulers
	TriggerSecret  string        `env:"TRIGGER_SECRET"`
	DrainBatchSize int           `env:"DRAIN_BATCH_SIZE" envDefault:"10"`
	CronInterval   time.Duration `env:"CRON_INTERVAL" envDefault:"1m"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"30s"`
	RetryScanLimit int           `env:"RETRY_SCAN_LIMIT" envDefault:"100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations env tags cannot express.
func (c *Config) Validate() error {
	switch c.EmailProvider {
	case "resend":
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be resend or smtp, got %q", c.EmailProvider)
	}
	if c.DrainBatchSize < 0 {
		return fmt.Errorf("DRAIN_BATCH_SIZE must not be negative")
	}
	if c.CronInterval <= 0 || c.RetryInterval <= 0 {
		return fmt.Errorf("CRON_INTERVAL and RETRY_INTERVAL must be positive")
	}
	if c.ProviderRate <= 0 {
		return fmt.Errorf("PROVIDER_RATE_PER_SEC must be positive")
	}
	return nil
}
