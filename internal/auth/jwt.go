// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package auth resolves the request principal from a bearer token.
//
// Token issuance lives outside this system; this package only parses and
// validates tokens already minted by the identity service, then builds the
// immutable principal the authorization pipeline consumes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// Credential errors.
var (
	// ErrNoCredentials is returned when no bearer token is present.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials is returned for malformed or badly signed tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials is returned for expired tokens.
	ErrExpiredCredentials = errors.New("expired credentials")
)

// RoleClaim is the role shape carried inside token claims.
type RoleClaim struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Scope  string `json:"scope"`
	OrgID  string `json:"org_id,omitempty"`
	FarmID string `json:"farm_id,omitempty"`
}

// Claims is the FarmPro JWT claim set. The identity service mints tokens
// with the principal's organization binding and grant sets resolved.
type Claims struct {
	Email           string      `json:"email,omitempty"`
	OrganizationID  string      `json:"org_id,omitempty"`
	IsPlatformAdmin bool        `json:"platform_admin,omitempty"`
	Roles           []RoleClaim `json:"roles,omitempty"`
	Permissions     []string    `json:"permissions,omitempty"`
	Capabilities    []string    `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager validates bearer tokens. Uses HMAC-SHA256 signing; the secret
// must be at least 32 characters in production (enforced by config).
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a token manager from the security configuration.
// Returns an error if the secret is empty.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}, nil
}

// GenerateToken mints a signed token for the given claims. Used by tests
// and local tooling; production tokens come from the identity service.
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   claims.Subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token string, returning its claims.
// The signing method is pinned to HMAC; a token signed with any other
// algorithm is rejected.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}

// RolesFromClaims converts claim roles to the model shape.
func RolesFromClaims(claims *Claims) []models.Role {
	if len(claims.Roles) == 0 {
		return nil
	}
	roles := make([]models.Role, 0, len(claims.Roles))
	for _, rc := range claims.Roles {
		orgID := rc.OrgID
		if orgID == "" {
			orgID = claims.OrganizationID
		}
		roles = append(roles, models.Role{
			ID:             rc.ID,
			Name:           rc.Name,
			Level:          rc.Level,
			Scope:          models.RoleScope(rc.Scope),
			OrganizationID: orgID,
			FarmID:         rc.FarmID,
		})
	}
	return roles
}
