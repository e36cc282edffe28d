// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
permission.go - Permission, Role, Capability, and Org-Type Checks

All declared checks in this stage are ANDed: each must pass independently.

Permission checks ask whether any role the principal holds both (a) grants
the "resource:action" pair and (b) covers the request context by scope:

  - PLATFORM roles cover every request.
  - ORGANIZATION roles cover requests scoped to the same organization.
  - FARM roles cover requests whose farm path parameter matches the role's
    farm binding.

Whether a role name grants a pair is answered by the Casbin grant layer
(grants.go); scope coverage is evaluated here, per role, before the grant
layer is consulted.
*/

package authz

import (
	"context"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// RequestContext carries the per-request identifiers scope coverage needs.
// Populated by the middleware from route parameters, never from the body.
type RequestContext struct {
	// FarmID is the farm path parameter, when the route has one.
	FarmID string
}

// roleCovers reports whether the role's scope covers the request context.
func roleCovers(role models.Role, requestOrgID, farmID string) bool {
	switch role.Scope {
	case models.ScopePlatform:
		return true
	case models.ScopeOrganization:
		return role.OrganizationID != "" && role.OrganizationID == requestOrgID
	case models.ScopeFarm:
		return role.FarmID != "" && role.FarmID == farmID
	default:
		return false
	}
}

// evaluatePermission runs the permission/role stage. Only called when the
// requirement declares at least one check from this stage. The filter is
// the tenancy stage's output (nil for admins and tenancy-bypassing routes).
func (p *Pipeline) evaluatePermission(ctx context.Context, principal *Principal, org *models.OrganizationSnapshot, req *Requirement, filter *ScopingFilter, reqCtx RequestContext) Decision {
	admin := principal.IsPlatformAdmin

	// Capability: verbatim membership, no implication graph.
	if req.Capability != "" && !admin {
		if !principal.HasCapability(req.Capability) {
			return Deny(ReasonMissingCapability)
		}
	}

	// Organization type: an empty allow set imposes no restriction.
	if len(req.OrgTypes) > 0 && !admin {
		if org == nil || !orgTypeAllowed(org.Type, req.OrgTypes) {
			return Deny(ReasonOrgTypeNotAllowed)
		}
	}

	// Permission: direct grants first, then covering roles via Casbin.
	if req.PermissionResource != "" && !admin {
		requestOrgID := principal.OrganizationID
		if filter != nil {
			requestOrgID = filter.OrganizationID
		}
		if !p.permissionGranted(ctx, principal, req.PermissionResource, req.PermissionAction, requestOrgID, reqCtx.FarmID) {
			return Deny(ReasonMissingPermission)
		}
	}

	// Role name: case-insensitive; admin bypass is requirement-controlled.
	if req.RoleName != "" {
		bypassed := admin && req.RoleAllowAdminBypass
		if !bypassed && !hasRoleNamed(principal.Roles, req.RoleName) {
			return Deny(ReasonMissingRole)
		}
	}

	// Role level: admins are treated as maximum level; zero roles means an
	// effective level of 0, which still satisfies a level-0 requirement.
	if req.HasRoleLevel && !admin {
		if principal.MaxRoleLevel() < req.RoleLevel {
			return Deny(ReasonInsufficientRoleLevel)
		}
	}

	return Allow(nil)
}

// permissionGranted reports whether the principal holds the resource:action
// pair, either directly or through a role that covers the request context.
// Grant-layer errors fail closed.
func (p *Pipeline) permissionGranted(ctx context.Context, principal *Principal, resource, action, requestOrgID, farmID string) bool {
	if principal.HasDirectPermission(resource + ":" + action) {
		return true
	}
	for _, role := range principal.Roles {
		if !roleCovers(role, requestOrgID, farmID) {
			continue
		}
		granted, err := p.grants.RoleGrants(ctx, role.Name, resource, action)
		if err != nil {
			continue
		}
		if granted {
			return true
		}
	}
	return false
}

func orgTypeAllowed(t models.OrgType, allowed []models.OrgType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

func hasRoleNamed(roles []models.Role, name string) bool {
	for _, role := range roles {
		if role.NameEquals(name) {
			return true
		}
	}
	return false
}
