// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
handlers_admin.go - Platform Administration

Organization and subscription lifecycle management, reachable only by
platform administrators. Mutations that change what an organization is
entitled to publish invalidation events so cached entitlements are
refreshed promptly.
*/

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/logging"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// createOrganizationRequest provisions a new tenant.
type createOrganizationRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Type           string   `json:"type" validate:"required,oneof=FARM_OPERATION COMMODITY_TRADER LOGISTICS_PROVIDER INTEGRATED"`
	PlanTier       string   `json:"plan_tier" validate:"required,oneof=trial basic standard enterprise"`
	AllowedModules []string `json:"allowed_modules" validate:"omitempty,dive,max=50"`
	Features       []string `json:"features" validate:"omitempty,dive,max=50"`
}

// updateModulesRequest replaces an organization's module allow list.
type updateModulesRequest struct {
	AllowedModules []string `json:"allowed_modules" validate:"required,dive,max=50"`
}

// suspendRequest toggles tenant-wide suspension.
type suspendRequest struct {
	Suspended bool   `json:"suspended"`
	Reason    string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// createSubscriptionRequest starts a new subscription for an organization.
type createSubscriptionRequest struct {
	OrganizationID string     `json:"organization_id" validate:"required,max=100"`
	PlanTier       string     `json:"plan_tier" validate:"required,oneof=trial basic standard enterprise"`
	ModuleFlags    []string   `json:"module_flags" validate:"omitempty,dive,max=50"`
	FeatureFlags   []string   `json:"feature_flags" validate:"omitempty,dive,max=50"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// CreateOrganization handles POST /api/v1/admin/organizations.
func (h *Handlers) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	snap := &models.OrganizationSnapshot{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Type:           models.OrgType(req.Type),
		PlanTier:       req.PlanTier,
		IsActive:       true,
		IsSuspended:    false,
		AllowedModules: req.AllowedModules,
		Features:       req.Features,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.db.CreateOrganization(r.Context(), snap); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			NewResponseWriter(w, r).Conflict("organization already exists")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("org_id", snap.ID).
		Str("org_type", string(snap.Type)).
		Str("actor_id", principalID(r)).
		Msg("Organization created")

	NewResponseWriter(w, r).Created(snap)
}

// GetOrganization handles GET /api/v1/admin/organizations/{orgID}.
func (h *Handlers) GetOrganization(w http.ResponseWriter, r *http.Request) {
	snap, err := h.db.GetOrganizationSnapshot(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		if errors.Is(err, database.ErrOrganizationNotFound) {
			NewResponseWriter(w, r).NotFound("organization not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(snap)
}

// UpdateOrganizationModules handles PUT /api/v1/admin/organizations/{orgID}/modules.
func (h *Handlers) UpdateOrganizationModules(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req updateModulesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.db.UpdateOrganizationModules(r.Context(), orgID, req.AllowedModules); err != nil {
		if errors.Is(err, database.ErrOrganizationNotFound) {
			NewResponseWriter(w, r).NotFound("organization not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	h.publishOrganizationUpdated(r, orgID)
	NewResponseWriter(w, r).NoContent()
}

// SetOrganizationSuspended handles PUT /api/v1/admin/organizations/{orgID}/suspension.
func (h *Handlers) SetOrganizationSuspended(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req suspendRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.db.SetOrganizationSuspended(r.Context(), orgID, req.Suspended); err != nil {
		if errors.Is(err, database.ErrOrganizationNotFound) {
			NewResponseWriter(w, r).NotFound("organization not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Warn().
		Str("org_id", orgID).
		Bool("suspended", req.Suspended).
		Str("reason", req.Reason).
		Str("actor_id", principalID(r)).
		Msg("Organization suspension changed")

	h.publishOrganizationUpdated(r, orgID)
	NewResponseWriter(w, r).NoContent()
}

// CreateSubscription handles POST /api/v1/admin/subscriptions.
func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	sub := &models.Subscription{
		ID:             uuid.New().String(),
		OrganizationID: req.OrganizationID,
		PlanTier:       req.PlanTier,
		Status:         models.SubscriptionStatusActive,
		ModuleFlags:    req.ModuleFlags,
		FeatureFlags:   req.FeatureFlags,
		StartedAt:      time.Now().UTC(),
		ExpiresAt:      req.ExpiresAt,
	}

	if err := h.db.CreateSubscription(r.Context(), sub); err != nil {
		if errors.Is(err, database.ErrOrganizationNotFound) {
			NewResponseWriter(w, r).NotFound("organization not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	if h.bus != nil {
		if err := h.bus.PublishSubscriptionUpdated(r.Context(), sub.OrganizationID, sub.PlanTier); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("org_id", sub.OrganizationID).
				Msg("Failed to publish subscription update event")
		}
	}

	NewResponseWriter(w, r).Created(sub)
}

// AuthzRoutes handles GET /api/v1/admin/authz/routes: the registered route
// requirements, for operational inspection of what each endpoint demands.
func (h *Handlers) AuthzRoutes(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.registry.Routes())
}

// AuditStats handles GET /api/v1/admin/authz/audit: counters from the
// decision audit pipeline.
func (h *Handlers) AuditStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.audit.Stats())
}

// publishOrganizationUpdated emits the cache-invalidation event for an
// organization change. Publish failures are logged, not surfaced: the
// write already committed and caches expire on their own TTL.
func (h *Handlers) publishOrganizationUpdated(r *http.Request, orgID string) {
	if h.bus == nil {
		return
	}
	if err := h.bus.PublishOrganizationUpdated(r.Context(), orgID); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("org_id", orgID).
			Msg("Failed to publish organization update event")
	}
}
