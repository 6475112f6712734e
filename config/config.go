package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	AppName  string `env:"APP_NAME" envDefault:"RNTemplate" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug" validate:"oneof=debug info warn error"`

	APIBaseURL   string `env:"API_BASE_URL" envDefault:"https://api.example.com" validate:"required,url"`
	APITimeoutMS int    `env:"API_TIMEOUT_MS" envDefault:"30000" validate:"min=1"`

	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"memory" validate:"oneof=memory sqlite postgres redis keyring"`
	StoragePath    string `env:"STORAGE_PATH" envDefault:"authkit.db" validate:"required_if=StorageDriver sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" validate:"required_if=StorageDriver postgres"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
	KeyringService string `env:"KEYRING_SERVICE" envDefault:"com.authkit.app"`

	RefreshCron      string `env:"REFRESH_CRON" envDefault:"@every 10m" validate:"required"`
	RefreshLeewaySec int    `env:"REFRESH_LEEWAY_SEC" envDefault:"300" validate:"min=0"`

	EnableAnalytics      bool `env:"ENABLE_ANALYTICS" envDefault:"false"`
	EnableCrashReporting bool `env:"ENABLE_CRASH_REPORTING" envDefault:"false"`

	Port        string `env:"PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTTTLMin int    `env:"JWT_TTL_MIN" envDefault:"60" validate:"min=1"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM"`
}

// LoadClient reads the configuration used by the API client and CLI.
func LoadClient() (*Config, error) {
	return load()
}

// LoadServer reads the configuration of the dev auth API, which also needs a
// signing secret and, outside local, email delivery credentials.
func LoadServer() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := validator.New().Var(cfg.JWTSecret, "required,min=32"); err != nil {
		return nil, fmt.Errorf("invalid config: JWT_SECRET: %w", err)
	}
	if !cfg.IsDevelopment() && (cfg.ResendAPIKey == "" || cfg.ResendFrom == "") {
		return nil, fmt.Errorf("invalid config: RESEND_API_KEY and RESEND_FROM are required outside local")
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "local"
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

func (c *Config) RefreshLeeway() time.Duration {
	return time.Duration(c.RefreshLeewaySec) * time.Second
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMin) * time.Minute
}
