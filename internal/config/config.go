package config

import (
	"os"
	"strconv"
	"strings"

	"regdiag/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
}

// DatabaseConfig holds database connection settings. An empty URL disables
// persistence; runs are then computed and returned without being stored.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds dataset and default test settings
type DataConfig struct {
	File         string
	Response     string
	Predictors   []string
	DropFraction float64
	Alpha        float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Data: DataConfig{
			File:         os.Getenv("DATA_FILE"),
			Response:     getEnv("RESPONSE_COLUMN", "sales"),
			Predictors:   splitList(os.Getenv("PREDICTOR_COLUMNS")),
			DropFraction: getEnvFloat("DROP_FRACTION", 0.1),
			Alpha:        getEnvFloat("ALPHA", 0.05),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Data.DropFraction < 0 || cfg.Data.DropFraction >= 1 {
		return errors.ConfigInvalid("DROP_FRACTION must be in [0, 1)")
	}
	if cfg.Data.Alpha <= 0 || cfg.Data.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be in (0, 1)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
