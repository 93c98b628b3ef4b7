// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds every setting the server needs at startup.
type Config struct {
	Port           string        `env:"PORT"             envDefault:"5000"`
	Env            string        `env:"APP_ENV"          envDefault:"development"`
	AccessSecret   string        `env:"ACCESS_SECRET_KEY"`
	AllowedOrigins []string      `env:"CORS_ORIGINS"     envDefault:"http://localhost:5173" envSeparator:","`
	StorageDriver  string        `env:"STORAGE_DRIVER"   envDefault:"postgres"`
	LogLevel       string        `env:"LOG_LEVEL"        envDefault:"info"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT"    envDefault:"15s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT"     envDefault:"60s"`
	ShutdownGrace  time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	JoinLimit      int           `env:"JOIN_CONCURRENCY"        envDefault:"16"`

	Database Database
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST"     envDefault:"localhost"`
	Port     string `env:"DB_PORT"     envDefault:"5432"`
	User     string `env:"DB_USER"     envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME"     envDefault:"eventpulse"`
	SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"20"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the process environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.AccessSecret = strings.TrimSpace(c.AccessSecret)
	if c.AccessSecret == "" {
		return errors.New("ACCESS_SECRET_KEY is required")
	}
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	switch c.StorageDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StorageDriver)
	}
	if c.JoinLimit < 1 {
		return fmt.Errorf("JOIN_CONCURRENCY must be at least 1, got %d", c.JoinLimit)
	}
	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
	return nil
}

// Production reports whether cookies must be sent cross-site over TLS.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
