// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"sort"
	"sync"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// Requirement is the static access declaration for one route: WHAT the
// route requires, resolved once at registration, evaluated per request.
// The zero value requires only a tenancy-scoped authenticated principal.
type Requirement struct {
	// IsPublic allows the route without any principal or scoping filter.
	IsPublic bool

	// BypassTenancy skips the tenancy stage; the handler manages its own
	// scoping. Authentication is still required.
	BypassTenancy bool

	// Feature gates the route on the named feature/module (three
	// conjunctive entitlement gates, see entitlement.go).
	Feature string

	// Capability must be present verbatim in the principal's capabilities.
	Capability string

	// OrgTypes restricts the route to the listed organization types. An
	// empty set imposes no restriction.
	OrgTypes []models.OrgType

	// PermissionResource/PermissionAction compose the "resource:action"
	// pair a covering role must grant.
	PermissionResource string
	PermissionAction   string

	// RoleName requires a role held with this name (case-insensitive).
	RoleName string

	// RoleAllowAdminBypass lets platform admins satisfy the role-name
	// check without holding the role. Defaults to true; Role(...) sets it.
	RoleAllowAdminBypass bool

	// RoleLevel requires the principal's maximum role level to be >= this.
	// Zero means no level requirement (a required level of 0 passes
	// trivially for everyone).
	RoleLevel int

	// HasRoleLevel distinguishes "no level requirement" from "level 0".
	HasRoleLevel bool
}

// needsPermissionStage reports whether any permission/role/capability/org
// type check is declared.
func (r *Requirement) needsPermissionStage() bool {
	return r.PermissionResource != "" || r.RoleName != "" || r.HasRoleLevel ||
		r.Capability != "" || len(r.OrgTypes) > 0
}

// Option declares one clause of a route requirement.
type Option func(*Requirement)

// Public marks the route as requiring no principal at all.
func Public() Option {
	return func(r *Requirement) { r.IsPublic = true }
}

// BypassTenancy skips the tenancy stage for routes that manage their own
// scoping (platform admin surfaces).
func BypassTenancy() Option {
	return func(r *Requirement) { r.BypassTenancy = true }
}

// Feature gates the route on a named feature/module.
func Feature(name string) Option {
	return func(r *Requirement) { r.Feature = name }
}

// Capability requires a verbatim capability string.
func Capability(name string) Option {
	return func(r *Requirement) { r.Capability = name }
}

// OrgTypes restricts the route to the given organization types.
func OrgTypes(types ...models.OrgType) Option {
	return func(r *Requirement) { r.OrgTypes = types }
}

// Permission requires a covering role granting resource:action.
func Permission(resource, action string) Option {
	return func(r *Requirement) {
		r.PermissionResource = resource
		r.PermissionAction = action
	}
}

// Role requires a role held with the given name (case-insensitive).
// Platform admins satisfy the check unless allowAdminBypass is false.
func Role(name string, allowAdminBypass bool) Option {
	return func(r *Requirement) {
		r.RoleName = name
		r.RoleAllowAdminBypass = allowAdminBypass
	}
}

// RoleLevel requires the principal's maximum role level to be >= n.
func RoleLevel(n int) Option {
	return func(r *Requirement) {
		r.RoleLevel = n
		r.HasRoleLevel = true
	}
}

// Require builds a Requirement from option clauses.
func Require(opts ...Option) *Requirement {
	r := &Requirement{RoleAllowAdminBypass: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry maps route identifiers (method + pattern) to their requirements.
// Populated once at router construction; read-only afterwards. Kept for
// introspection and admin listing, not consulted on the hot path (the
// middleware closure captures its requirement directly).
type Registry struct {
	mu     sync.RWMutex
	routes map[string]*Requirement
}

// NewRegistry creates an empty requirement registry.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]*Requirement)}
}

// Register records the requirement for a route identifier.
func (reg *Registry) Register(route string, req *Requirement) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.routes[route] = req
}

// Lookup returns the requirement for a route identifier.
func (reg *Registry) Lookup(route string) (*Requirement, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	req, ok := reg.routes[route]
	return req, ok
}

// Routes returns all registered route identifiers, sorted.
func (reg *Registry) Routes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	routes := make([]string, 0, len(reg.routes))
	for route := range reg.routes {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}
