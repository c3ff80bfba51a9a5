// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (stores, tracker, coordinator) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Lector sync daemon and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote authoritative store (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Change feed (Redis pub/sub)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// On-device durable store (SQLite) and its fallback cache (Pebble)
	LocalDBPath       string `env:"LOCAL_DB_PATH"       envDefault:"./data/lector.db"`
	FallbackCachePath string `env:"FALLBACK_CACHE_PATH" envDefault:"./data/fallback"`

	// Sync tuning
	ChunkSizeBytes int           `env:"CHUNK_SIZE_BYTES" envDefault:"524288"`
	FlushDelay     time.Duration `env:"FLUSH_DELAY"      envDefault:"3s"`
	LoadingTimeout time.Duration `env:"LOADING_TIMEOUT"  envDefault:"5s"`

	// Device tokens. When the public key is empty, the API accepts anonymous requests.
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.ChunkSizeBytes <= 0 {
		return fmt.Errorf("config: CHUNK_SIZE_BYTES must be positive, got %d", c.ChunkSizeBytes)
	}
	if c.FlushDelay <= 0 {
		return fmt.Errorf("config: FLUSH_DELAY must be positive, got %s", c.FlushDelay)
	}
	if c.LoadingTimeout <= 0 {
		return fmt.Errorf("config: LOADING_TIMEOUT must be positive, got %s", c.LoadingTimeout)
	}
	return nil
}

// IsDevelopment reports whether the daemon is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the daemon is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AuthEnabled reports whether device tokens are required on the API.
func (c *Config) AuthEnabled() bool {
	return c.JWTPubKeyPath != ""
}

// AllowedOrigins returns the comma separated EXTRA_ORIGINS as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
