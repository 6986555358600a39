package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables
// (optionally via a .env file).
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	DatasetPath     string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := &Config{
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		DatasetPath: envOrDefault("DATASET_PATH", "data/trees_combined.json"),
	}

	timeoutStr := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", timeoutStr)
	}
	cfg.ShutdownTimeout = timeout

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (want json or text)", cfg.LogFormat)
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
