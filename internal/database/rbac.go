// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
rbac.go - Role Assignment Persistence

Read paths feed the authorization pipeline (role lookup per principal);
write paths back the admin role-management endpoints. Every write is
accompanied by an append-only role_audit row.
*/

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// GetRolesForUser returns all active role assignments for a principal,
// converted to the Role shape carried in the Principal.
func (db *DB) GetRolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, role_name, level, scope, organization_id, farm_id
		FROM role_assignments
		WHERE user_id = ? AND is_active = true`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles for %s: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	var roles []models.Role
	for rows.Next() {
		var (
			r      models.Role
			scope  string
			farmID sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Level, &scope, &r.OrganizationID, &farmID); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		r.Scope = models.RoleScope(scope)
		if farmID.Valid {
			r.FarmID = farmID.String
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("role iteration failed: %w", err)
	}

	return roles, nil
}

// ListOrganizationRoles returns all active role assignments within an
// organization, for the admin role-management endpoints.
func (db *DB) ListOrganizationRoles(ctx context.Context, orgID string) ([]models.RoleAssignment, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, organization_id, role_name, level, scope, farm_id,
		       assigned_by, assigned_at, is_active
		FROM role_assignments
		WHERE organization_id = ? AND is_active = true
		ORDER BY assigned_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query organization roles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var assignments []models.RoleAssignment
	for rows.Next() {
		var (
			ra         models.RoleAssignment
			scope      string
			farmID     sql.NullString
			assignedBy sql.NullString
		)
		if err := rows.Scan(&ra.ID, &ra.UserID, &ra.OrganizationID, &ra.RoleName,
			&ra.Level, &scope, &farmID, &assignedBy, &ra.AssignedAt, &ra.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}
		ra.Scope = models.RoleScope(scope)
		if farmID.Valid {
			ra.FarmID = farmID.String
		}
		if assignedBy.Valid {
			ra.AssignedBy = assignedBy.String
		}
		assignments = append(assignments, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("role assignment iteration failed: %w", err)
	}

	return assignments, nil
}

// AssignRole creates an active role assignment and its audit entry.
func (db *DB) AssignRole(ctx context.Context, ra *models.RoleAssignment, actorID, reason string) (*models.RoleAssignment, error) {
	if ra.ID == "" {
		ra.ID = uuid.New().String()
	}
	if ra.AssignedAt.IsZero() {
		ra.AssignedAt = time.Now()
	}
	ra.IsActive = true
	ra.AssignedBy = actorID

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var farmID interface{}
	if ra.FarmID != "" {
		farmID = ra.FarmID
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO role_assignments
			(id, user_id, organization_id, role_name, level, scope, farm_id, assigned_by, assigned_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, true)`,
		ra.ID, ra.UserID, ra.OrganizationID, ra.RoleName, ra.Level,
		string(ra.Scope), farmID, ra.AssignedBy, ra.AssignedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert role assignment: %w", err)
	}

	audit := models.NewRoleAuditEntry(actorID, models.AuditActionAssign,
		ra.OrganizationID, ra.UserID, ra.RoleName)
	audit.Reason = reason
	if err := db.insertRoleAudit(ctx, audit); err != nil {
		return nil, err
	}

	return ra, nil
}

// RevokeRole deactivates a role assignment and records the audit entry.
// Returns ErrRoleNotFound when no active assignment matches.
func (db *DB) RevokeRole(ctx context.Context, orgID, userID, roleName, actorID, reason string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE role_assignments SET is_active = false
		WHERE organization_id = ? AND user_id = ? AND lower(role_name) = lower(?) AND is_active = true`,
		orgID, userID, roleName)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoleNotFound
	}

	audit := models.NewRoleAuditEntry(actorID, models.AuditActionRevoke, orgID, userID, roleName)
	audit.Reason = reason
	return db.insertRoleAudit(ctx, audit)
}

// insertRoleAudit appends a role audit row. Callers hold writeMu.
func (db *DB) insertRoleAudit(ctx context.Context, entry *models.RoleAuditEntry) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO role_audit (id, ts, actor_id, action, organization_id, target_user_id, role_name, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Timestamp, entry.ActorID, entry.Action,
		entry.OrganizationID, entry.TargetUserID, entry.RoleName, entry.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert role audit entry: %w", err)
	}
	return nil
}

// ListRoleAudit returns audit entries for an organization, newest first.
func (db *DB) ListRoleAudit(ctx context.Context, orgID string, limit int) ([]models.RoleAuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, ts, actor_id, action, organization_id, target_user_id, role_name, reason
		FROM role_audit WHERE organization_id = ?
		ORDER BY ts DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query role audit: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var entries []models.RoleAuditEntry
	for rows.Next() {
		var (
			entry  models.RoleAuditEntry
			rawID  string
			reason sql.NullString
		)
		if err := rows.Scan(&rawID, &entry.Timestamp, &entry.ActorID, &entry.Action,
			&entry.OrganizationID, &entry.TargetUserID, &entry.RoleName, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("malformed audit id %q: %w", rawID, err)
		}
		entry.ID = id
		if reason.Valid {
			entry.Reason = reason.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit iteration failed: %w", err)
	}

	return entries, nil
}
