// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
handlers_roles.go - Role Administration

Organization role management: list assignments, assign, revoke, and read
the role audit trail. These routes are gated on the reserved role
administration feature so they can never be locked out by a plan change.
*/

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// assignRoleRequest grants a role to a principal within the organization.
type assignRoleRequest struct {
	UserID   string `json:"user_id" validate:"required,max=100"`
	RoleName string `json:"role_name" validate:"required,max=100"`
	Level    int    `json:"level" validate:"gte=0,lte=100"`
	Scope    string `json:"scope" validate:"required,oneof=ORGANIZATION FARM"`
	FarmID   string `json:"farm_id,omitempty" validate:"omitempty,max=100"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// revokeRoleRequest removes a role from a principal.
type revokeRoleRequest struct {
	UserID   string `json:"user_id" validate:"required,max=100"`
	RoleName string `json:"role_name" validate:"required,max=100"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ListRoles handles GET /api/v1/roles.
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	assignments, err := h.db.ListOrganizationRoles(r.Context(), orgID)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(assignments)
}

// AssignRole handles POST /api/v1/roles. FARM-scoped assignments must
// name the farm they bind to.
func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req assignRoleRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Scope == string(models.ScopeFarm) && req.FarmID == "" {
		NewResponseWriter(w, r).BadRequest("farm_id is required for FARM-scoped roles")
		return
	}

	assignment := &models.RoleAssignment{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		OrganizationID: orgID,
		RoleName:       req.RoleName,
		Level:          req.Level,
		Scope:          models.RoleScope(req.Scope),
		FarmID:         req.FarmID,
		AssignedBy:     principalID(r),
		AssignedAt:     time.Now().UTC(),
		IsActive:       true,
	}

	created, err := h.db.AssignRole(r.Context(), assignment, principalID(r), req.Reason)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			NewResponseWriter(w, r).Conflict("role is already assigned")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Created(created)
}

// RevokeRole handles POST /api/v1/roles/revoke. Role names match
// case-insensitively, mirroring how the pipeline evaluates them.
func (h *Handlers) RevokeRole(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req revokeRoleRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	err := h.db.RevokeRole(r.Context(), orgID, req.UserID, req.RoleName, principalID(r), req.Reason)
	if err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			NewResponseWriter(w, r).NotFound("role assignment not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).NoContent()
}

// RoleAudit handles GET /api/v1/roles/audit.
func (h *Handlers) RoleAudit(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	entries, err := h.db.ListRoleAudit(r.Context(), orgID, limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(entries, paginationMeta(len(entries), limit))
}

// RoleCatalog handles GET /api/v1/roles/catalog: the built-in role names
// and the grants each carries.
func (h *Handlers) RoleCatalog(w http.ResponseWriter, r *http.Request) {
	type roleGrants struct {
		Role   string     `json:"role"`
		Grants [][]string `json:"grants"`
	}

	names := h.grants.RoleCatalog()
	catalog := make([]roleGrants, 0, len(names))
	for _, name := range names {
		catalog = append(catalog, roleGrants{
			Role:   name,
			Grants: h.grants.GrantsForRole(name),
		})
	}

	NewResponseWriter(w, r).Success(catalog)
}

// MyRoles handles GET /api/v1/roles/mine: the persisted role assignments
// for the requesting principal.
func (h *Handlers) MyRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.db.GetRolesForUser(r.Context(), principalID(r))
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(roles)
}
