// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package config

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// validate performs struct-tag validation. A single instance is reused;
// validator.Validate is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that required configuration is present and valid.
// Struct tags cover field-level constraints; cross-field rules are
// checked explicitly below.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateWeather()
}

// validateSecurity enforces production-only security requirements.
func (c *Config) validateSecurity() error {
	if c.Server.Environment == "production" {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain the wildcard origin in production")
			}
		}
	}

	if c.Security.RateLimitReqs <= 0 && !c.Security.RateLimitDisabled {
		return fmt.Errorf("RATE_LIMIT_REQS must be positive when rate limiting is enabled")
	}

	return nil
}

// validateWeather validates the weather provider configuration (only if enabled).
func (c *Config) validateWeather() error {
	if !c.Weather.Enabled {
		return nil
	}

	if c.Weather.BaseURL == "" {
		return fmt.Errorf("WEATHER_BASE_URL is required when WEATHER_ENABLED=true")
	}

	u, err := url.Parse(c.Weather.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("WEATHER_BASE_URL is not a valid http(s) URL: %q", c.Weather.BaseURL)
	}

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("WEATHER_TIMEOUT must be positive")
	}

	return nil
}
