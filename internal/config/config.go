// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package config provides layered configuration for FarmPro.
//
// Configuration is loaded with Koanf v2 from three sources, in increasing
// priority: struct defaults, an optional YAML file, and environment
// variables. See LoadWithKoanf for the load sequence.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Security     SecurityConfig     `koanf:"security"`
	Authz        AuthzConfig        `koanf:"authz"`
	Entitlements EntitlementsConfig `koanf:"entitlements"`
	Weather      WeatherConfig      `koanf:"weather"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port" validate:"gte=1,lte=65535"`

	// Timeout is the per-request read/write timeout.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment" validate:"oneof=development staging production"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory database.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is DuckDB's memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication and transport-security settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies bearer tokens (HS256).
	// Minimum 32 characters in production.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the accepted token lifetime used when minting test tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the request budget per window per client IP.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate-limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off rate limiting (tests, local development).
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`
}

// AuthzConfig holds authorization pipeline settings.
type AuthzConfig struct {
	// GrantModelPath overrides the embedded grant model file.
	GrantModelPath string `koanf:"grant_model_path"`

	// GrantPolicyPath overrides the embedded grant policy file.
	GrantPolicyPath string `koanf:"grant_policy_path"`

	// DecisionCacheEnabled enables caching of grant evaluations.
	DecisionCacheEnabled bool `koanf:"decision_cache_enabled"`

	// DecisionCacheTTL is how long grant evaluations are cached.
	DecisionCacheTTL time.Duration `koanf:"decision_cache_ttl"`

	// AuditEnabled enables async decision audit logging.
	AuditEnabled bool `koanf:"audit_enabled"`

	// AuditBufferSize is the async audit buffer capacity.
	AuditBufferSize int `koanf:"audit_buffer_size"`

	// AuditLogAllowed controls whether allowed decisions are logged.
	// Denials are always logged when audit is enabled.
	AuditLogAllowed bool `koanf:"audit_log_allowed"`
}

// EntitlementsConfig holds subscription entitlement lookup settings.
type EntitlementsConfig struct {
	// CacheTTL bounds entitlement staleness. Entries are also invalidated
	// by organization/subscription mutation events.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// WeatherConfig holds the upstream weather provider settings.
type WeatherConfig struct {
	// Enabled turns the weather endpoint on.
	Enabled bool `koanf:"enabled"`

	// BaseURL is the upstream provider endpoint.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-lookup HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`

	// BreakerMaxFailures trips the circuit breaker after this many
	// consecutive failures.
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`

	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied.
// Defaults are layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8310,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/farmpro.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			TokenTTL:          24 * time.Hour,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Authz: AuthzConfig{
			GrantModelPath:       "",
			GrantPolicyPath:      "",
			DecisionCacheEnabled: true,
			DecisionCacheTTL:     5 * time.Minute,
			AuditEnabled:         true,
			AuditBufferSize:      1000,
			AuditLogAllowed:      true,
		},
		Entitlements: EntitlementsConfig{
			CacheTTL: 30 * time.Second,
		},
		Weather: WeatherConfig{
			Enabled:            false,
			BaseURL:            "",
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
