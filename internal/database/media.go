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

	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// ListMediaObjects returns an organization's media descriptors, newest first.
func (db *DB) ListMediaObjects(ctx context.Context, orgID string, limit int) ([]models.MediaObject, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, name, kind, size_bytes, storage_key, uploaded_by, created_at
		FROM media_objects WHERE organization_id = ?
		ORDER BY created_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query media objects: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var objects []models.MediaObject
	for rows.Next() {
		var m models.MediaObject
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Kind,
			&m.SizeBytes, &m.StorageKey, &m.UploadedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media object: %w", err)
		}
		objects = append(objects, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("media iteration failed: %w", err)
	}

	return objects, nil
}

// GetMediaObject returns one media descriptor within the organization scope.
func (db *DB) GetMediaObject(ctx context.Context, orgID, id string) (*models.MediaObject, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, organization_id, name, kind, size_bytes, storage_key, uploaded_by, created_at
		FROM media_objects WHERE organization_id = ? AND id = ?`, orgID, id)

	var m models.MediaObject
	err := row.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Kind,
		&m.SizeBytes, &m.StorageKey, &m.UploadedBy, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read media object %s: %w", id, err)
	}
	return &m, nil
}

// CreateMediaObject inserts a media descriptor.
func (db *DB) CreateMediaObject(ctx context.Context, m *models.MediaObject) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO media_objects
			(id, organization_id, name, kind, size_bytes, storage_key, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OrganizationID, m.Name, m.Kind, m.SizeBytes,
		m.StorageKey, m.UploadedBy, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert media object: %w", err)
	}
	return nil
}

// DeleteMediaObject removes a media descriptor within the organization scope.
func (db *DB) DeleteMediaObject(ctx context.Context, orgID, id string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM media_objects WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete media object %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
