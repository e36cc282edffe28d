// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import "context"

// ScopingFilter is the resolved organization context a request may operate
// within. Exactly one ScopingFilter exists per request after the tenancy
// stage completes; it is created once and never mutated. Handlers read the
// organization id from here, never from client input.
type ScopingFilter struct {
	// OrganizationID is the organization whose data the request may touch.
	OrganizationID string

	// IsImpersonation is true when a platform admin substituted the
	// organization via the override header.
	IsImpersonation bool
}

// filterKey is unexported; only the pipeline middleware attaches filters.
type filterKey struct{}

// withScopingFilter attaches the filter to the context. The first write
// wins; the filter is immutable for the request lifetime.
func withScopingFilter(ctx context.Context, f *ScopingFilter) context.Context {
	if existing := ScopingFilterFromContext(ctx); existing != nil {
		return ctx
	}
	return context.WithValue(ctx, filterKey{}, f)
}

// ScopingFilterFromContext returns the request's scoping filter, or nil
// when none was established (public routes, tenancy-bypassing routes, and
// organization-agnostic admin requests).
func ScopingFilterFromContext(ctx context.Context) *ScopingFilter {
	f, _ := ctx.Value(filterKey{}).(*ScopingFilter)
	return f
}
