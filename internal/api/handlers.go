// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/events"
	"github.com/deepintel-ltd/farmpro-api/internal/weather"
)

// Handlers carries the dependencies every endpoint needs. All fields are
// set at construction and read-only afterwards.
type Handlers struct {
	db       *database.DB
	weather  *weather.Client
	grants   *authz.GrantEnforcer
	audit    *authz.AuditLogger
	bus      *events.Bus
	registry *authz.Registry
	validate *validator.Validate
	version  string
}

// HandlersConfig bundles the handler dependencies.
type HandlersConfig struct {
	DB       *database.DB
	Weather  *weather.Client
	Grants   *authz.GrantEnforcer
	Audit    *authz.AuditLogger
	Bus      *events.Bus
	Registry *authz.Registry
	Version  string
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(cfg HandlersConfig) *Handlers {
	return &Handlers{
		db:       cfg.DB,
		weather:  cfg.Weather,
		grants:   cfg.Grants,
		audit:    cfg.Audit,
		bus:      cfg.Bus,
		registry: cfg.Registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  cfg.Version,
	}
}

// scopedOrgID returns the organization the request may operate on, taken
// exclusively from the scoping filter. Unscoped platform admins must
// impersonate (override header) before touching organization data; the
// false return produces a 400 telling them so.
func scopedOrgID(r *http.Request) (string, bool) {
	filter := authz.ScopingFilterFromContext(r.Context())
	if filter == nil || filter.OrganizationID == "" {
		return "", false
	}
	return filter.OrganizationID, true
}

// requireScope writes the missing-scope error when no filter is present.
func requireScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID, ok := scopedOrgID(r)
	if !ok {
		NewResponseWriter(w, r).BadRequest("organization context required; platform admins must set " + authz.OverrideHeader)
	}
	return orgID, ok
}

// principalID returns the requesting principal's id, or "" when public.
func principalID(r *http.Request) string {
	if p := authz.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return ""
}
