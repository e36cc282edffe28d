// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

func newTestMiddleware(t *testing.T, orgs *fakeOrgDirectory) (*Middleware, *Registry) {
	t.Helper()
	registry := NewRegistry()
	return NewMiddleware(newTestPipeline(t, orgs, nil), registry), registry
}

func TestEnforceAttachesScopingFilter(t *testing.T) {
	orgs := &fakeOrgDirectory{orgs: map[string]*models.OrganizationSnapshot{
		"org-1": activeOrg("org-1", models.OrgTypeFarmOperation),
	}}
	mw, registry := newTestMiddleware(t, orgs)

	var gotFilter *ScopingFilter
	handler := mw.Enforce("GET /api/v1/activities", Require(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = ScopingFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	req = req.WithContext(WithPrincipal(req.Context(), memberPrincipal("org-1")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilter == nil || gotFilter.OrganizationID != "org-1" {
		t.Errorf("filter = %+v, want org-1", gotFilter)
	}
	if _, ok := registry.Lookup("GET /api/v1/activities"); !ok {
		t.Error("route missing from registry")
	}
}

func TestEnforceDenialBody(t *testing.T) {
	mw, _ := newTestMiddleware(t, &fakeOrgDirectory{})

	handler := mw.Enforce("GET /api/v1/activities", Require(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run on denial")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp denialResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode denial body: %v", err)
	}
	if resp.Success {
		t.Error("denial body reports success")
	}
	if resp.Error.Code != string(ReasonUnauthenticated) {
		t.Errorf("code = %q, want %q", resp.Error.Code, ReasonUnauthenticated)
	}
	if resp.Error.Message == "" {
		t.Error("denial message is empty")
	}
}

func TestEnforceImpersonationHeaders(t *testing.T) {
	orgs := &fakeOrgDirectory{orgs: map[string]*models.OrganizationSnapshot{
		"org-2": activeOrg("org-2", models.OrgTypeCommodityTrader),
	}}
	mw, _ := newTestMiddleware(t, orgs)

	var gotFilter *ScopingFilter
	handler := mw.Enforce("GET /api/v1/orders", Require(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = ScopingFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(OverrideHeader, "org-2")
	req = req.WithContext(WithPrincipal(req.Context(), adminPrincipal()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get(ImpersonatedOrgIDHeader); got != "org-2" {
		t.Errorf("%s = %q, want org-2", ImpersonatedOrgIDHeader, got)
	}
	if got := rec.Header().Get(ImpersonatedOrgNameHeader); got != "Org org-2" {
		t.Errorf("%s = %q, want %q", ImpersonatedOrgNameHeader, got, "Org org-2")
	}
	if gotFilter == nil || !gotFilter.IsImpersonation || gotFilter.OrganizationID != "org-2" {
		t.Errorf("filter = %+v, want impersonated org-2", gotFilter)
	}
}

func TestEnforceNonAdminOverrideGetsNoTargetFilter(t *testing.T) {
	orgs := &fakeOrgDirectory{orgs: map[string]*models.OrganizationSnapshot{
		"org-1": activeOrg("org-1", models.OrgTypeFarmOperation),
		"org-2": activeOrg("org-2", models.OrgTypeFarmOperation),
	}}
	mw, _ := newTestMiddleware(t, orgs)

	handler := mw.Enforce("GET /api/v1/activities", Require(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	req.Header.Set(OverrideHeader, "org-2")
	req = req.WithContext(WithPrincipal(req.Context(), memberPrincipal("org-1")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if rec.Header().Get(ImpersonatedOrgIDHeader) != "" {
		t.Error("impersonation header set for a denied non-admin override")
	}

	var resp denialResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode denial body: %v", err)
	}
	if resp.Error.Code != string(ReasonImpersonationNotAllowed) {
		t.Errorf("code = %q, want %q", resp.Error.Code, ReasonImpersonationNotAllowed)
	}
}

func TestEnforcePublicRouteNeedsNoPrincipal(t *testing.T) {
	mw, _ := newTestMiddleware(t, &fakeOrgDirectory{})

	handler := mw.Enforce("GET /healthz", Require(Public()), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ScopingFilterFromContext(r.Context()) != nil {
			t.Error("public route received a scoping filter")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReasonHTTPStatus(t *testing.T) {
	tests := []struct {
		reason Reason
		want   int
	}{
		{ReasonUnauthenticated, http.StatusUnauthorized},
		{ReasonInvalidOrganization, http.StatusNotFound},
		{ReasonFeatureNotInPlan, http.StatusPaymentRequired},
		{ReasonOrganizationSuspended, http.StatusForbidden},
		{ReasonMissingPermission, http.StatusForbidden},
		{ReasonFeatureNotAvailableForOrgType, http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := tt.reason.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.reason, got, tt.want)
		}
	}
}
