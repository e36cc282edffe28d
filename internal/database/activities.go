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

// ListActivities returns activities for one organization, optionally
// filtered to a single farm. Every query is scoped by organization id;
// handlers pass the id from the request's ScopingFilter, never from
// client input.
func (db *DB) ListActivities(ctx context.Context, orgID, farmID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, organization_id, farm_id, name, kind, status,
		       scheduled_for, completed_at, created_by, created_at, updated_at
		FROM activities WHERE organization_id = ?`
	args := []interface{}{orgID}
	if farmID != "" {
		query += ` AND farm_id = ?`
		args = append(args, farmID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activity iteration failed: %w", err)
	}

	return activities, nil
}

// GetActivity returns one activity within the organization scope.
func (db *DB) GetActivity(ctx context.Context, orgID, id string) (*models.Activity, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, organization_id, farm_id, name, kind, status,
		       scheduled_for, completed_at, created_by, created_at, updated_at
		FROM activities WHERE organization_id = ? AND id = ?`, orgID, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateActivity inserts an activity.
func (db *DB) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = models.ActivityStatusPlanned
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var scheduledFor, completedAt interface{}
	if a.ScheduledFor != nil {
		scheduledFor = *a.ScheduledFor
	}
	if a.CompletedAt != nil {
		completedAt = *a.CompletedAt
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO activities
			(id, organization_id, farm_id, name, kind, status, scheduled_for, completed_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.FarmID, a.Name, a.Kind, a.Status,
		scheduledFor, completedAt, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// UpdateActivityStatus transitions an activity's status within the
// organization scope.
func (db *DB) UpdateActivityStatus(ctx context.Context, orgID, id, status string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var completedAt interface{}
	if status == models.ActivityStatusCompleted {
		completedAt = time.Now()
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE activities SET status = ?, completed_at = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?`,
		status, completedAt, time.Now(), orgID, id)
	if err != nil {
		return fmt.Errorf("failed to update activity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteActivity removes an activity within the organization scope.
func (db *DB) DeleteActivity(ctx context.Context, orgID, id string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM activities WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		a            models.Activity
		scheduledFor sql.NullTime
		completedAt  sql.NullTime
	)
	err := row.Scan(&a.ID, &a.OrganizationID, &a.FarmID, &a.Name, &a.Kind,
		&a.Status, &scheduledFor, &completedAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	if scheduledFor.Valid {
		a.ScheduledFor = &scheduledFor.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}
