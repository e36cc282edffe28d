// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"context"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// Principal is the resolved identity making the request: its organization
// binding and static claim sets. Constructed once per request by the
// authentication layer; immutable within the pipeline.
type Principal struct {
	// ID is the principal's unique identifier.
	ID string

	// Email is the principal's address, used in audit records.
	Email string

	// OrganizationID is the principal's organization binding. Empty for
	// unbound principals (platform admins may be unbound).
	OrganizationID string

	// IsPlatformAdmin grants bypass of entitlement and permission gates.
	// Impersonation target validation still applies.
	IsPlatformAdmin bool

	// Roles are the principal's role grants, possibly spanning scopes and
	// farm bindings.
	Roles []models.Role

	// Permissions are direct "resource:action" grants attached to the
	// principal, checked before role grants.
	Permissions []string

	// Capabilities are opaque capability strings matched verbatim.
	Capabilities []string
}

// HasCapability reports whether the capability is present verbatim.
func (p *Principal) HasCapability(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// HasDirectPermission reports whether the principal carries the exact
// "resource:action" grant directly (not via a role).
func (p *Principal) HasDirectPermission(perm string) bool {
	for _, g := range p.Permissions {
		if g == perm {
			return true
		}
	}
	return false
}

// MaxRoleLevel returns the highest level across the principal's roles.
// A principal with zero roles has an effective level of 0.
func (p *Principal) MaxRoleLevel() int {
	return models.MaxRoleLevel(p.Roles)
}

// principalKey is unexported so only this package can write the principal
// into a context.
type principalKey struct{}

// WithPrincipal returns a context carrying the principal. The principal is
// set once by the authentication middleware; later writes are a
// programming error and are ignored in favor of the existing value.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if existing := PrincipalFromContext(ctx); existing != nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal, or nil if none was resolved.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
