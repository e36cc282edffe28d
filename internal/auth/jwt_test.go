// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t)

	claims := &Claims{
		Email:          "user@example.com",
		OrganizationID: "org-1",
		Roles: []RoleClaim{
			{Name: "Farm Manager", Level: 60, Scope: "ORGANIZATION"},
			{Name: "Agronomist", Level: 30, Scope: "FARM", FarmID: "farm-f1"},
		},
		Permissions:      []string{"report:export"},
		Capabilities:     []string{"bulk_export"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}

	signed, err := m.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	got, err := m.ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if got.Subject != "user-1" || got.OrganizationID != "org-1" {
		t.Errorf("claims = subject %q org %q", got.Subject, got.OrganizationID)
	}
	if len(got.Roles) != 2 || got.Roles[0].Name != "Farm Manager" {
		t.Errorf("roles = %+v", got.Roles)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, _ := NewJWTManager(&config.SecurityConfig{
		JWTSecret: "a-completely-different-32-char-secret!!",
		TokenTTL:  time.Hour,
	})

	signed, err := other.GenerateToken(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m.ValidateToken(signed); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m, _ := NewJWTManager(&config.SecurityConfig{
		JWTSecret: testSecret,
		TokenTTL:  -time.Hour,
	})

	signed, err := m.GenerateToken(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m.ValidateToken(signed); !errors.Is(err, ErrExpiredCredentials) {
		t.Errorf("error = %v, want ErrExpiredCredentials", err)
	}
}

func TestValidateTokenRejectsUnsignedAlgorithm(t *testing.T) {
	m := newTestManager(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := m.ValidateToken(signed); err == nil {
		t.Error("token with alg=none accepted")
	}
}

func TestRolesFromClaimsDefaultsOrgBinding(t *testing.T) {
	claims := &Claims{
		OrganizationID: "org-1",
		Roles: []RoleClaim{
			{Name: "Farm Manager", Level: 60, Scope: "ORGANIZATION"},
			{Name: "Trader", Level: 40, Scope: "ORGANIZATION", OrgID: "org-2"},
		},
	}

	roles := RolesFromClaims(claims)
	if len(roles) != 2 {
		t.Fatalf("len(roles) = %d, want 2", len(roles))
	}
	if roles[0].OrganizationID != "org-1" {
		t.Errorf("role without org binding = %q, want claims default org-1", roles[0].OrganizationID)
	}
	if roles[1].OrganizationID != "org-2" {
		t.Errorf("explicit role org binding = %q, want org-2", roles[1].OrganizationID)
	}
	if roles[0].Scope != models.ScopeOrganization {
		t.Errorf("scope = %q", roles[0].Scope)
	}
}

func TestMiddlewareAttachesPrincipal(t *testing.T) {
	m := newTestManager(t)
	signed, err := m.GenerateToken(&Claims{
		Email:            "user@example.com",
		OrganizationID:   "org-1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var got *authz.Principal
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = authz.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("principal not attached")
	}
	if got.ID != "user-1" || got.OrganizationID != "org-1" {
		t.Errorf("principal = %+v", got)
	}
}

func TestMiddlewareWithoutTokenProceedsUnauthenticated(t *testing.T) {
	m := newTestManager(t)

	var got *authz.Principal
	called := false
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = authz.PrincipalFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatal("request blocked by auth middleware")
	}
	if got != nil {
		t.Errorf("principal = %+v, want nil", got)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"case insensitive scheme", "bearer abc123", "abc123", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
		{"no token", "Bearer", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := extractBearerToken(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
