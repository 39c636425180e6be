// Copyright (c) 2026 Vacaplan. All rights reserved.

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
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Vacaplan API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) for rate counters and the lockout latch
	RedisURL string `env:"REDIS_URL,required"`

	// SigningKey is the symmetric key for access-token signatures.
	// Fewer than 32 bytes is rejected at load time.
	SigningKey string `env:"SIGNING_KEY,required"`

	// Token lifetimes (optional overrides of the compiled defaults)
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Password hashing parameters (argon2id)
	HashTimeCost  uint32 `env:"HASH_TIME_COST"   envDefault:"2"`
	HashMemoryKiB uint32 `env:"HASH_MEMORY_KIB"  envDefault:"65536"`
	HashParallel  uint8  `env:"HASH_PARALLELISM" envDefault:"4"`

	// Admin seed (consumed by `ctl seed-admin`)
	AdminSeedEmail    string `env:"ADMIN_SEED_EMAIL"`
	AdminSeedPassword string `env:"ADMIN_SEED_PASSWORD"`
	AdminSeedCompany  string `env:"ADMIN_SEED_COMPANY" envDefault:"Vacaplan"`

	// Outbound mail. When SMTPHost is empty, mail is logged instead of sent.
	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@vacaplan.app"`

	// AppBaseURL is the public web origin used to build invite and
	// password-reset links in outbound mail.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"https://vacaplan.app"`

	// Cross-Origin Resource Sharing: comma-separated extra allowed origins
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Key length is a hard floor for HS256; a short key weakens every session.
	if len(cfg.SigningKey) < 32 {
		return nil, fmt.Errorf("config: SIGNING_KEY must be at least 32 bytes, got %d", len(cfg.SigningKey))
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
