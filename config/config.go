// Package config loads the btctax settings.
//
// Settings come from an optional YAML file, then from the environment
// (including a .env file in the current directory), the environment wins.
//
//	acquisition_basis: fair-value   # or zero
//	long_term_days: 365
//	timezone: America/New_York
//	ledger: ledger.jsonl
//	prices: prices.jsonl
//	price_max_age: 3
//	database: btctax.db
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/etnz/btctax"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfig       = "BTCTAX_CONFIG"
	EnvLedger       = "BTCTAX_LEDGER"
	EnvPrices       = "BTCTAX_PRICES"
	EnvDatabase     = "BTCTAX_DB"
	EnvBasis        = "BTCTAX_BASIS"
	EnvTimezone     = "BTCTAX_TZ"
	EnvLongTermDays = "BTCTAX_LONG_TERM_DAYS"
)

// Config represents the application configuration.
type Config struct {
	AcquisitionBasis string `yaml:"acquisition_basis"`
	LongTermDays     int    `yaml:"long_term_days"`
	Timezone         string `yaml:"timezone"`
	Ledger           string `yaml:"ledger"`
	Prices           string `yaml:"prices"`
	PriceMaxAge      int    `yaml:"price_max_age"`
	Database         string `yaml:"database"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		AcquisitionBasis: btctax.FairValueBasis.String(),
		LongTermDays:     btctax.DefaultLongTermDays,
		Timezone:         "UTC",
		Ledger:           "ledger.jsonl",
	}
}

// Load reads the configuration.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	cfg := Default()
	if path := os.Getenv(EnvConfig); path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Ledger = getEnvOrDefault(EnvLedger, cfg.Ledger)
	cfg.Prices = getEnvOrDefault(EnvPrices, cfg.Prices)
	cfg.Database = getEnvOrDefault(EnvDatabase, cfg.Database)
	cfg.AcquisitionBasis = getEnvOrDefault(EnvBasis, cfg.AcquisitionBasis)
	cfg.Timezone = getEnvOrDefault(EnvTimezone, cfg.Timezone)
	days, err := parseIntEnv(EnvLongTermDays, cfg.LongTermDays)
	if err != nil {
		return nil, err
	}
	cfg.LongTermDays = days

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile overrides the configuration with the fields set in a YAML file.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML %q: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can be turned into Options.
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options returns the accounting options.
func (c *Config) Options() (btctax.Options, error) {
	basis, err := btctax.ParseAcquisitionBasis(c.AcquisitionBasis)
	if err != nil {
		return btctax.Options{}, err
	}
	if c.LongTermDays < 0 {
		return btctax.Options{}, fmt.Errorf("invalid long_term_days: %d", c.LongTermDays)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return btctax.Options{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return btctax.Options{Basis: basis, LongTermDays: c.LongTermDays, Location: loc}, nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	return parsed, nil
}
