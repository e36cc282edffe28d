// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// encodeStringList serializes a string set for storage.
func encodeStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(b), nil
}

// decodeStringList deserializes a stored string set.
func decodeStringList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	return list, nil
}

// GetOrganizationSnapshot reads the per-request organization view consumed
// by the authorization pipeline.
//
// Returns ErrOrganizationNotFound when the id does not exist.
func (db *DB) GetOrganizationSnapshot(ctx context.Context, orgID string) (*models.OrganizationSnapshot, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, org_type, plan_tier, is_active, is_suspended,
		       allowed_modules, features, updated_at
		FROM organizations WHERE id = ?`, orgID)

	var (
		snap        models.OrganizationSnapshot
		orgType     string
		rawModules  string
		rawFeatures string
	)

	err := row.Scan(&snap.ID, &snap.Name, &orgType, &snap.PlanTier,
		&snap.IsActive, &snap.IsSuspended, &rawModules, &rawFeatures, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read organization %s: %w", orgID, err)
	}

	snap.Type = models.OrgType(orgType)
	if snap.AllowedModules, err = decodeStringList(rawModules); err != nil {
		return nil, err
	}
	if snap.Features, err = decodeStringList(rawFeatures); err != nil {
		return nil, err
	}

	return &snap, nil
}

// CreateOrganization inserts a new organization record.
func (db *DB) CreateOrganization(ctx context.Context, snap *models.OrganizationSnapshot) error {
	modules, err := encodeStringList(snap.AllowedModules)
	if err != nil {
		return err
	}
	features, err := encodeStringList(snap.Features)
	if err != nil {
		return err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO organizations
			(id, name, org_type, plan_tier, is_active, is_suspended, allowed_modules, features, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, string(snap.Type), snap.PlanTier,
		snap.IsActive, snap.IsSuspended, modules, features, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert organization %s: %w", snap.ID, err)
	}
	return nil
}

// UpdateOrganizationModules replaces the organization's module allow list.
// Callers publish an organization.updated event after a successful write so
// cached entitlements are invalidated.
func (db *DB) UpdateOrganizationModules(ctx context.Context, orgID string, modules []string) error {
	encoded, err := encodeStringList(modules)
	if err != nil {
		return err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE organizations SET allowed_modules = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now(), orgID)
	if err != nil {
		return fmt.Errorf("failed to update organization %s: %w", orgID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

// SetOrganizationSuspended flips the suspension flag.
func (db *DB) SetOrganizationSuspended(ctx context.Context, orgID string, suspended bool) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE organizations SET is_suspended = ?, updated_at = ? WHERE id = ?`,
		suspended, time.Now(), orgID)
	if err != nil {
		return fmt.Errorf("failed to update organization %s: %w", orgID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}
