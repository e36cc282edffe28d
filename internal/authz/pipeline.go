// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
pipeline.go - Authorization Pipeline

Evaluate runs the fixed stage order for one request:

	public -> tenancy (incl. impersonation) -> feature entitlement
	       -> permission/role/capability/org-type

The first denial aborts; later stages never run. Stages that the
requirement does not declare are skipped entirely. Every code path ends in
an explicit Allow or Deny: there is no fall-through to permit.
*/

package authz

import (
	"context"
	"time"
)

// Pipeline evaluates route requirements against principals. Safe for
// concurrent use; all mutable state lives in the injected dependencies.
type Pipeline struct {
	orgs         OrgDirectory
	entitlements EntitlementSource
	grants       *GrantEnforcer
	audit        *AuditLogger
}

// NewPipeline assembles the pipeline. audit may be nil to disable decision
// auditing.
func NewPipeline(orgs OrgDirectory, entitlements EntitlementSource, grants *GrantEnforcer, audit *AuditLogger) *Pipeline {
	return &Pipeline{
		orgs:         orgs,
		entitlements: entitlements,
		grants:       grants,
		audit:        audit,
	}
}

// Evaluate runs the pipeline for one request. overrideOrgID is the value
// of the tenant-override header ("" when absent); reqCtx carries route
// parameters needed for role scope coverage.
func (p *Pipeline) Evaluate(ctx context.Context, principal *Principal, req *Requirement, overrideOrgID string, reqCtx RequestContext) Decision {
	start := time.Now()
	decision := p.evaluate(ctx, principal, req, overrideOrgID, reqCtx)
	RecordDecision(decision, time.Since(start))
	return decision
}

func (p *Pipeline) evaluate(ctx context.Context, principal *Principal, req *Requirement, overrideOrgID string, reqCtx RequestContext) Decision {
	if req.IsPublic {
		return Allow(nil)
	}

	if principal == nil {
		return Deny(ReasonUnauthenticated)
	}

	tenancy, org := p.evaluateTenancy(ctx, principal, req, overrideOrgID)
	if !tenancy.Allowed {
		return tenancy
	}

	if req.Feature != "" {
		if d := p.evaluateEntitlement(ctx, principal, org, req.Feature); !d.Allowed {
			return d
		}
	}

	if req.needsPermissionStage() {
		if d := p.evaluatePermission(ctx, principal, org, req, tenancy.Filter, reqCtx); !d.Allowed {
			return d
		}
	}

	return tenancy
}
