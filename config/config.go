package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Snapshot Snapshot
	Database Database
}

type App struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Development reports whether logs should use the console encoder.
func (a App) Development() bool {
	return a.Environment != "production"
}

type Snapshot struct {
	// Path of the reference data JSON served as the source.
	Path            string        `env:"SNAPSHOT_PATH" envDefault:"./static/global_system.json"`
	RefreshInterval time.Duration `env:"SNAPSHOT_REFRESH_INTERVAL" envDefault:"5m"`
	Keep            int           `env:"SNAPSHOT_KEEP" envDefault:"5"`
	// MaxLoadsPerMinute caps source reads, including manual refreshes.
	MaxLoadsPerMinute int `env:"SNAPSHOT_MAX_LOADS_PER_MINUTE" envDefault:"6"`
}

type Database struct {
	Path string `env:"DATABASE_PATH" envDefault:"./data/dexdash.db"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded values for obvious mistakes.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", c.App.Environment)
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.App.LogLevel)
	}

	if c.Snapshot.Path == "" {
		return errors.New("SNAPSHOT_PATH is required")
	}
	if c.Snapshot.RefreshInterval < time.Second {
		return fmt.Errorf("SNAPSHOT_REFRESH_INTERVAL must be at least 1s, got %s", c.Snapshot.RefreshInterval)
	}
	if c.Snapshot.Keep < 0 {
		return fmt.Errorf("SNAPSHOT_KEEP must not be negative, got %d", c.Snapshot.Keep)
	}
	if c.Snapshot.MaxLoadsPerMinute < 1 {
		return fmt.Errorf("SNAPSHOT_MAX_LOADS_PER_MINUTE must be positive, got %d", c.Snapshot.MaxLoadsPerMinute)
	}
	if c.Database.Path == "" {
		return errors.New("DATABASE_PATH is required")
	}

	return nil
}
