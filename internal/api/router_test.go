// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/deepintel-ltd/farmpro-api/internal/auth"
	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/entitlements"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	db     *database.DB
	jwt    *auth.JWTManager
}

// envelope mirrors the response wrapper for decoding in assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	grants, err := authz.NewGrantEnforcer(&config.AuthzConfig{
		DecisionCacheEnabled: true,
		DecisionCacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("grant enforcer: %v", err)
	}
	t.Cleanup(grants.Close)

	ents := entitlements.NewService(db, &config.EntitlementsConfig{CacheTTL: time.Second})
	t.Cleanup(ents.Close)

	registry := authz.NewRegistry()
	pipeline := authz.NewPipeline(db, ents, grants, nil)
	authzMW := authz.NewMiddleware(pipeline, registry)

	sec := &config.SecurityConfig{
		JWTSecret:         testJWTSecret,
		TokenTTL:          time.Hour,
		CORSOrigins:       []string{"*"},
		RateLimitDisabled: true,
	}
	jwtManager, err := auth.NewJWTManager(sec)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	handlers := NewHandlers(HandlersConfig{
		DB:       db,
		Grants:   grants,
		Registry: registry,
		Version:  "test",
	})

	server := httptest.NewServer(NewRouter(handlers, authzMW, jwtManager, sec))
	t.Cleanup(server.Close)

	return &testEnv{t: t, server: server, db: db, jwt: jwtManager}
}

func (e *testEnv) seedOrg(t *testing.T, id string, orgType models.OrgType, modules ...string) {
	t.Helper()
	err := e.db.CreateOrganization(t.Context(), &models.OrganizationSnapshot{
		ID:             id,
		Name:           "Org " + id,
		Type:           orgType,
		PlanTier:       models.PlanTierStandard,
		IsActive:       true,
		AllowedModules: modules,
		Features:       []string{models.FeatureWildcard},
		UpdatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed org %s: %v", id, err)
	}
}

func (e *testEnv) token(t *testing.T, claims *auth.Claims) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(claims)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (e *testEnv) managerToken(t *testing.T, orgID string) string {
	claims := &auth.Claims{
		Email:          "manager@example.com",
		OrganizationID: orgID,
		Roles: []auth.RoleClaim{
			{Name: "Farm Manager", Level: 80, Scope: "ORGANIZATION"},
		},
	}
	claims.Subject = "user-manager"
	return e.token(t, claims)
}

func (e *testEnv) viewerToken(t *testing.T, orgID string) string {
	claims := &auth.Claims{
		Email:          "viewer@example.com",
		OrganizationID: orgID,
		Roles: []auth.RoleClaim{
			{Name: "Farm Viewer", Level: 10, Scope: "ORGANIZATION"},
		},
	}
	claims.Subject = "user-viewer"
	return e.token(t, claims)
}

func (e *testEnv) orgAdminToken(t *testing.T, orgID string) string {
	claims := &auth.Claims{
		Email:          "orgadmin@example.com",
		OrganizationID: orgID,
		Roles: []auth.RoleClaim{
			{Name: "Org Admin", Level: 90, Scope: "ORGANIZATION"},
		},
	}
	claims.Subject = "user-orgadmin"
	return e.token(t, claims)
}

func (e *testEnv) adminToken(t *testing.T) string {
	claims := &auth.Claims{
		Email:           "admin@example.com",
		IsPlatformAdmin: true,
	}
	claims.Subject = "user-admin"
	return e.token(t, claims)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...[2]string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		req.Header.Set(h[0], h[1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp, env
}

func assertDenied(t *testing.T, resp *http.Response, env envelope, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	if env.Error == nil {
		t.Fatal("expected error body")
	}
	if env.Error.Code != code {
		t.Fatalf("error code = %q, want %q", env.Error.Code, code)
	}
}

func TestHealthEndpointIsPublic(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !body.Success {
		t.Fatal("expected success envelope")
	}
}

func TestUnauthenticatedRequestDenied(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/inventory", "", nil)
	assertDenied(t, resp, body, http.StatusUnauthorized, string(authz.ReasonUnauthenticated))
}

func TestActivityLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation,
		authz.FeatureActivities, authz.FeatureInventory)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodPost, "/api/v1/farms/farm-1/activities", token, map[string]any{
		"name": "Spring planting",
		"kind": "planting",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (error: %+v)", resp.StatusCode, body.Error)
	}

	var created models.Activity
	if err := json.Unmarshal(body.Data, &created); err != nil {
		t.Fatalf("decode created activity: %v", err)
	}
	if created.OrganizationID != "org-1" || created.FarmID != "farm-1" {
		t.Fatalf("created activity scoped to %s/%s, want org-1/farm-1",
			created.OrganizationID, created.FarmID)
	}
	if created.Status != models.ActivityStatusPlanned {
		t.Fatalf("initial status = %q, want planned", created.Status)
	}

	resp, body = env.do(t, http.MethodGet, "/api/v1/farms/farm-1/activities", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var listed []models.Activity
	if err := json.Unmarshal(body.Data, &listed); err != nil {
		t.Fatalf("decode activity list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d activities, want 1", len(listed))
	}

	resp, _ = env.do(t, http.MethodPatch,
		"/api/v1/farms/farm-1/activities/"+created.ID+"/status", token,
		map[string]string{"status": "completed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update = %d, want 200", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodDelete,
		"/api/v1/farms/farm-1/activities/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet,
		"/api/v1/farms/farm-1/activities/"+created.ID, token, nil)
	assertDenied(t, resp, body, http.StatusNotFound, ErrCodeNotFound)
}

func TestViewerCannotCreateActivities(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.viewerToken(t, "org-1")

	resp, body := env.do(t, http.MethodGet, "/api/v1/farms/farm-1/activities", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewer list status = %d, want 200 (error: %+v)", resp.StatusCode, body.Error)
	}

	resp, body = env.do(t, http.MethodPost, "/api/v1/farms/farm-1/activities", token, map[string]any{
		"name": "Unauthorized work",
		"kind": "planting",
	})
	assertDenied(t, resp, body, http.StatusForbidden, string(authz.ReasonMissingPermission))
}

func TestFeatureNotEnabledForOrganization(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	assertDenied(t, resp, body, http.StatusForbidden,
		string(authz.ReasonFeatureNotEnabledForOrganization))
}

func TestAdminImpersonation(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureInventory)
	token := env.adminToken(t)

	// Without an override the admin has no organization scope.
	resp, body := env.do(t, http.MethodGet, "/api/v1/inventory", token, nil)
	assertDenied(t, resp, body, http.StatusBadRequest, ErrCodeBadRequest)

	resp, body = env.do(t, http.MethodGet, "/api/v1/inventory", token, nil,
		[2]string{authz.OverrideHeader, "org-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("impersonated list status = %d, want 200 (error: %+v)", resp.StatusCode, body.Error)
	}
	if got := resp.Header.Get(authz.ImpersonatedOrgIDHeader); got != "org-1" {
		t.Fatalf("impersonation header = %q, want org-1", got)
	}
}

func TestNonAdminOverrideDenied(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureInventory)
	env.seedOrg(t, "org-2", models.OrgTypeFarmOperation, authz.FeatureInventory)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodGet, "/api/v1/inventory", token, nil,
		[2]string{authz.OverrideHeader, "org-2"})
	assertDenied(t, resp, body, http.StatusForbidden,
		string(authz.ReasonImpersonationNotAllowed))
}

func TestAdminManagesOrganizations(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/admin/organizations", admin, map[string]any{
		"name":            "New Farm Co",
		"type":            "FARM_OPERATION",
		"plan_tier":       "standard",
		"allowed_modules": []string{"activities", "inventory"},
		"features":        []string{"all_features"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create org status = %d, want 201 (error: %+v)", resp.StatusCode, body.Error)
	}

	var created models.OrganizationSnapshot
	if err := json.Unmarshal(body.Data, &created); err != nil {
		t.Fatalf("decode created org: %v", err)
	}
	if created.ID == "" || !created.IsActive {
		t.Fatalf("created org not active with id: %+v", created)
	}

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/subscriptions", admin, map[string]any{
		"organization_id": created.ID,
		"plan_tier":       "enterprise",
		"feature_flags":   []string{"all_features"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create subscription status = %d, want 201 (error: %+v)", resp.StatusCode, body.Error)
	}
}

func TestAdminSurfaceDeniedForMembers(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodPost, "/api/v1/admin/organizations", token, map[string]any{
		"name":      "Sneaky Org",
		"type":      "FARM_OPERATION",
		"plan_tier": "trial",
	})
	assertDenied(t, resp, body, http.StatusForbidden, string(authz.ReasonMissingRole))
}

func TestSuspensionBlocksTenantAccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureInventory)
	admin := env.adminToken(t)
	member := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodGet, "/api/v1/inventory", member, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pre-suspension status = %d, want 200 (error: %+v)", resp.StatusCode, body.Error)
	}

	resp, _ = env.do(t, http.MethodPut, "/api/v1/admin/organizations/org-1/suspension", admin,
		map[string]any{"suspended": true, "reason": "billing dispute"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("suspend status = %d, want 204", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/api/v1/inventory", member, nil)
	assertDenied(t, resp, body, http.StatusForbidden,
		string(authz.ReasonOrganizationSuspended))
}

func TestValidationFailureDetails(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodPost, "/api/v1/farms/farm-1/activities", token,
		map[string]any{"kind": "planting"})
	assertDenied(t, resp, body, http.StatusBadRequest, ErrCodeValidationFailed)
}

func TestRoleAssignmentRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.orgAdminToken(t, "org-1")

	resp, body := env.do(t, http.MethodPost, "/api/v1/roles", token, map[string]any{
		"user_id":   "user-2",
		"role_name": "Farm Worker",
		"level":     30,
		"scope":     "ORGANIZATION",
		"reason":    "seasonal hire",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status = %d, want 201 (error: %+v)", resp.StatusCode, body.Error)
	}

	resp, body = env.do(t, http.MethodGet, "/api/v1/roles", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list roles status = %d, want 200", resp.StatusCode)
	}
	var assignments []models.RoleAssignment
	if err := json.Unmarshal(body.Data, &assignments); err != nil {
		t.Fatalf("decode assignments: %v", err)
	}
	if len(assignments) != 1 || assignments[0].UserID != "user-2" {
		t.Fatalf("assignments = %+v, want one for user-2", assignments)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/roles/revoke", token, map[string]any{
		"user_id":   "user-2",
		"role_name": "farm worker",
		"reason":    "season over",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("revoke status = %d, want 204", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/api/v1/roles/audit", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit status = %d, want 200", resp.StatusCode)
	}
	var entries []models.RoleAuditEntry
	if err := json.Unmarshal(body.Data, &entries); err != nil {
		t.Fatalf("decode audit entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2 (assign + revoke)", len(entries))
	}
}

func TestRoleAssignmentRequiresSeniorRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)

	// An org admin held at a junior level clears the Casbin grant but
	// not the level floor on role mutations.
	claims := &auth.Claims{
		Email:          "junior@example.com",
		OrganizationID: "org-1",
		Roles: []auth.RoleClaim{
			{Name: "Org Admin", Level: 20, Scope: "ORGANIZATION"},
		},
	}
	claims.Subject = "user-junior"
	token := env.token(t, claims)

	resp, body := env.do(t, http.MethodPost, "/api/v1/roles", token, map[string]any{
		"user_id":   "user-2",
		"role_name": "Farm Worker",
		"level":     30,
		"scope":     "ORGANIZATION",
	})
	assertDenied(t, resp, body, http.StatusForbidden, string(authz.ReasonInsufficientRoleLevel))
}

func TestRoleCatalogListsBuiltIns(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrg(t, "org-1", models.OrgTypeFarmOperation, authz.FeatureActivities)
	token := env.managerToken(t, "org-1")

	resp, body := env.do(t, http.MethodGet, "/api/v1/roles/catalog", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog status = %d, want 200 (error: %+v)", resp.StatusCode, body.Error)
	}

	var catalog []struct {
		Role   string     `json:"role"`
		Grants [][]string `json:"grants"`
	}
	if err := json.Unmarshal(body.Data, &catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("catalog is empty")
	}
	found := false
	for _, entry := range catalog {
		if entry.Role == "farm_manager" && len(entry.Grants) > 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("farm_manager missing from catalog")
	}
}
