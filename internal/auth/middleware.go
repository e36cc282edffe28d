// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package auth

import (
	"net/http"
	"strings"

	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/logging"
)

// Middleware resolves the request principal from the Authorization header.
//
// A missing or invalid token does NOT short-circuit the request here: the
// request proceeds without a principal and the authorization pipeline
// denies non-public routes with the stable UNAUTHENTICATED code. That
// keeps the denial surface in one place.
func Middleware(manager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractBearerToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.ValidateToken(tokenStr)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
				next.ServeHTTP(w, r)
				return
			}

			principal := PrincipalFromClaims(claims)
			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)))
		})
	}
}

// PrincipalFromClaims builds the immutable pipeline principal.
func PrincipalFromClaims(claims *Claims) *authz.Principal {
	return &authz.Principal{
		ID:              claims.Subject,
		Email:           claims.Email,
		OrganizationID:  claims.OrganizationID,
		IsPlatformAdmin: claims.IsPlatformAdmin,
		Roles:           RolesFromClaims(claims),
		Permissions:     claims.Permissions,
		Capabilities:    claims.Capabilities,
	}
}

// extractBearerToken pulls the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidCredentials
	}
	return parts[1], nil
}
