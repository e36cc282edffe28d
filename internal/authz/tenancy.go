// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
tenancy.go - Tenancy Isolation and Impersonation

The tenancy stage determines which organization's data the request may
touch and refuses access from suspended or organization-less contexts. It
is the only stage that creates a ScopingFilter.

Impersonation is a sub-routine: a platform admin may substitute a target
organization via the X-Organization-ID header. Non-admins presenting the
header are denied outright, never silently ignored.
*/

package authz

import (
	"context"

	"github.com/deepintel-ltd/farmpro-api/internal/logging"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// OverrideHeader is the tenant-override request header, usable only by
// platform admins.
const OverrideHeader = "X-Organization-ID"

// Impersonation confirmation response headers. Set on every successfully
// impersonated request so the caller can visibly confirm the substitution.
const (
	ImpersonatedOrgIDHeader   = "X-Impersonated-Org-ID"
	ImpersonatedOrgNameHeader = "X-Impersonated-Org-Name"
)

// OrgDirectory is the read-only organization lookup the tenancy stage
// depends on.
type OrgDirectory interface {
	GetOrganizationSnapshot(ctx context.Context, orgID string) (*models.OrganizationSnapshot, error)
}

// evaluateTenancy runs the tenancy isolation stage. On success it returns
// the decision (carrying the ScopingFilter, if any) and the organization
// snapshot the later stages evaluate against. The snapshot is nil for
// tenancy-bypassing routes and for unbound platform admins.
func (p *Pipeline) evaluateTenancy(ctx context.Context, principal *Principal, req *Requirement, overrideOrgID string) (Decision, *models.OrganizationSnapshot) {
	// Handler manages its own scoping.
	if req.BypassTenancy {
		return Allow(nil), nil
	}

	if principal.OrganizationID == "" && !principal.IsPlatformAdmin {
		return Deny(ReasonNoOrganization), nil
	}

	// Resolve the principal's own organization when bound. Lookup errors
	// fail closed: an unreadable organization never becomes an allow.
	var ownOrg *models.OrganizationSnapshot
	if principal.OrganizationID != "" {
		org, err := p.orgs.GetOrganizationSnapshot(ctx, principal.OrganizationID)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("org_id", principal.OrganizationID).
				Msg("Organization lookup failed, denying")
			return Deny(ReasonInvalidOrganization), nil
		}
		ownOrg = org

		if ownOrg.IsSuspended {
			return Deny(ReasonOrganizationSuspended), nil
		}
	}

	if principal.IsPlatformAdmin {
		if overrideOrgID != "" {
			target, decision := p.resolveImpersonation(ctx, overrideOrgID)
			if !decision.Allowed {
				return decision, nil
			}
			d := Allow(&ScopingFilter{OrganizationID: target.ID, IsImpersonation: true})
			d.ImpersonatedOrg = &ImpersonatedOrg{ID: target.ID, Name: target.Name}
			return d, target
		}
		// Administrator request is organization-agnostic by default.
		return Allow(nil), ownOrg
	}

	// Regular principal presenting the override header is denied; the
	// filter is never set to the requested target.
	if overrideOrgID != "" {
		return Deny(ReasonImpersonationNotAllowed), nil
	}

	return Allow(&ScopingFilter{OrganizationID: principal.OrganizationID}), ownOrg
}

// resolveImpersonation validates an impersonation target. The target must
// exist, be active, and not be suspended. Only called for platform admins.
func (p *Pipeline) resolveImpersonation(ctx context.Context, targetOrgID string) (*models.OrganizationSnapshot, Decision) {
	target, err := p.orgs.GetOrganizationSnapshot(ctx, targetOrgID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("target_org_id", targetOrgID).
			Msg("Impersonation target lookup failed")
		return nil, Deny(ReasonInvalidOrganization)
	}
	if !target.IsActive || target.IsSuspended {
		return nil, Deny(ReasonInvalidOrganization)
	}

	RecordImpersonation()
	return target, Allow(nil)
}
