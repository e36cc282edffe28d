// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
rbac.go - Role-Based Access Control Models

Defines the role model consumed by the authorization pipeline and the audit
entry recorded for every role mutation.

Key Structures:
  - Role: a named grant bundle with a numeric level and a scope
  - RoleScope: the breadth at which a role applies (platform/org/farm)
  - RoleAssignment: persistent role assignment for a principal
  - RoleAuditEntry: append-only audit record for role changes
*/

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleScope is the breadth at which a role's grants apply.
type RoleScope string

// Role scopes, from widest to narrowest.
const (
	// ScopePlatform covers every organization and farm.
	ScopePlatform RoleScope = "PLATFORM"

	// ScopeOrganization covers a single organization.
	ScopeOrganization RoleScope = "ORGANIZATION"

	// ScopeFarm covers a single farm within an organization. A farm-scoped
	// role is only authoritative for the FarmID it carries.
	ScopeFarm RoleScope = "FARM"
)

// Role is a named grant bundle held by a principal.
type Role struct {
	// ID is the role assignment identifier.
	ID string `json:"id"`

	// Name is the role's display name. Matching against required role
	// names is case-insensitive.
	Name string `json:"name"`

	// Level is the role's numeric rank. Higher outranks lower.
	Level int `json:"level"`

	// Scope is the breadth at which the role applies.
	Scope RoleScope `json:"scope"`

	// OrganizationID is the organization the role belongs to. Empty for
	// platform-scoped roles.
	OrganizationID string `json:"organization_id,omitempty"`

	// FarmID binds a FARM-scoped role to one farm. Empty otherwise.
	FarmID string `json:"farm_id,omitempty"`
}

// NameEquals reports whether the role's name matches, ignoring case.
func (r *Role) NameEquals(name string) bool {
	return strings.EqualFold(r.Name, name)
}

// MaxRoleLevel returns the highest level across the given roles.
// An empty role set has an effective level of 0.
func MaxRoleLevel(roles []Role) int {
	maxLevel := 0
	for _, r := range roles {
		if r.Level > maxLevel {
			maxLevel = r.Level
		}
	}
	return maxLevel
}

// RoleAssignment is a persistent role grant for a principal.
type RoleAssignment struct {
	// ID is the primary key.
	ID string `json:"id"`

	// UserID is the principal the role is assigned to.
	UserID string `json:"user_id"`

	// OrganizationID is the owning organization.
	OrganizationID string `json:"organization_id"`

	// RoleName is the assigned role name.
	RoleName string `json:"role_name"`

	// Level is the role's numeric rank.
	Level int `json:"level"`

	// Scope is the breadth of the assignment.
	Scope RoleScope `json:"scope"`

	// FarmID binds a FARM-scoped assignment to one farm.
	FarmID string `json:"farm_id,omitempty"`

	// AssignedBy is the principal who made the assignment.
	AssignedBy string `json:"assigned_by,omitempty"`

	// AssignedAt is when the assignment was made.
	AssignedAt time.Time `json:"assigned_at"`

	// IsActive allows soft-disable without deletion.
	IsActive bool `json:"is_active"`
}

// Role converts the assignment into the Role shape carried by a Principal.
func (ra *RoleAssignment) Role() Role {
	return Role{
		ID:             ra.ID,
		Name:           ra.RoleName,
		Level:          ra.Level,
		Scope:          ra.Scope,
		OrganizationID: ra.OrganizationID,
		FarmID:         ra.FarmID,
	}
}

// RoleAuditEntry records a role change event. Entries are append-only.
type RoleAuditEntry struct {
	// ID is the primary key (UUID for global uniqueness).
	ID uuid.UUID `json:"id"`

	// Timestamp is when the action occurred.
	Timestamp time.Time `json:"timestamp"`

	// ActorID is the principal who performed the action.
	ActorID string `json:"actor_id"`

	// Action is the type of change (assign, revoke).
	Action string `json:"action"`

	// OrganizationID is the organization the change applies to.
	OrganizationID string `json:"organization_id"`

	// TargetUserID is the principal whose role was changed.
	TargetUserID string `json:"target_user_id"`

	// RoleName is the role involved in the change.
	RoleName string `json:"role_name"`

	// Reason is an optional explanation for the change.
	Reason string `json:"reason,omitempty"`
}

// Audit action constants.
const (
	// AuditActionAssign indicates a new role was assigned.
	AuditActionAssign = "assign"

	// AuditActionRevoke indicates a role was revoked.
	AuditActionRevoke = "revoke"
)

// NewRoleAuditEntry creates a RoleAuditEntry with ID and timestamp populated.
func NewRoleAuditEntry(actorID, action, orgID, targetUserID, roleName string) *RoleAuditEntry {
	return &RoleAuditEntry{
		ID:             uuid.New(),
		Timestamp:      time.Now(),
		ActorID:        actorID,
		Action:         action,
		OrganizationID: orgID,
		TargetUserID:   targetUserID,
		RoleName:       roleName,
	}
}
