// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// ListInventory returns an organization's inventory items.
func (db *DB) ListInventory(ctx context.Context, orgID, farmID string, limit int) ([]models.InventoryItem, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, organization_id, farm_id, name, category, quantity, unit, updated_at
		FROM inventory_items WHERE organization_id = ?`
	args := []interface{}{orgID}
	if farmID != "" {
		query += ` AND farm_id = ?`
		args = append(args, farmID)
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var items []models.InventoryItem
	for rows.Next() {
		var (
			item   models.InventoryItem
			farmID sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.OrganizationID, &farmID, &item.Name,
			&item.Category, &item.Quantity, &item.Unit, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		if farmID.Valid {
			item.FarmID = farmID.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory iteration failed: %w", err)
	}

	return items, nil
}

// UpsertInventoryItem inserts or replaces an inventory item within the
// organization scope.
func (db *DB) UpsertInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.UpdatedAt = time.Now()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var farmID interface{}
	if item.FarmID != "" {
		farmID = item.FarmID
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO inventory_items
			(id, organization_id, farm_id, name, category, quantity, unit, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OrganizationID, farmID, item.Name, item.Category,
		item.Quantity, item.Unit, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory item: %w", err)
	}
	return nil
}

// DeleteInventoryItem removes an item within the organization scope.
func (db *DB) DeleteInventoryItem(ctx context.Context, orgID, id string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
