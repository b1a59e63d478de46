package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DispatcherConfig controls the outbox dispatch loop.
type DispatcherConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	Batch      int `yaml:"batch"`
}

// Interval returns the poll interval as a duration.
func (c DispatcherConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Config is the process configuration. Values come from an optional
// YAML file (BALANCEGRID_CONFIG) with env-var fallbacks.
type Config struct {
	HTTPAddr    string           `yaml:"http_addr"`
	PostgresDSN string           `yaml:"postgres_dsn"`
	JWTSecret   string           `yaml:"jwt_secret"`
	Dispatcher  DispatcherConfig `yaml:"dispatcher"`
	Log         LogConfig        `yaml:"log"`
}

// Load builds the configuration. An empty Postgres DSN selects the
// in-memory stores (dev mode).
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: getenvDefault("HTTP_ADDR", ":8080"),
		Dispatcher: DispatcherConfig{
			IntervalMS: getenvIntDefault("DISPATCH_INTERVAL_MS", 500),
			Batch:      getenvIntDefault("DISPATCH_BATCH", 50),
		},
		Log: LogConfig{
			Level:    getenvDefault("LOG_LEVEL", "info"),
			Encoding: getenvDefault("LOG_ENCODING", "json"),
		},
	}

	if path := os.Getenv("BALANCEGRID_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = os.Getenv("PG_DSN")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: jwt secret required")
	}
	if cfg.Dispatcher.Batch <= 0 {
		cfg.Dispatcher.Batch = 50
	}
	if cfg.Dispatcher.IntervalMS <= 0 {
		cfg.Dispatcher.IntervalMS = 500
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
