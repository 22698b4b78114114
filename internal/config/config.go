package config

import (
	"os"
	"strconv"

	"stagegate/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Export   ExportConfig
	Sweep    SweepConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds report export settings
type ExportConfig struct {
	Dir string
}

// SweepConfig holds revalidation sweep settings
type SweepConfig struct {
	Capacity int
	Limit    int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Export: ExportConfig{
			Dir: getEnvOrDefault("EXPORT_DIR", "./exports"),
		},
		Sweep: SweepConfig{
			Capacity: getEnvIntOrDefault("SWEEP_CAPACITY", 8),
			Limit:    getEnvIntOrDefault("SWEEP_LIMIT", 1000),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Sweep.Capacity < 1 {
		return errors.ConfigInvalid("SWEEP_CAPACITY must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
