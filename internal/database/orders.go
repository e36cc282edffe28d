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

// ListOrders returns an organization's marketplace orders, newest first.
func (db *DB) ListOrders(ctx context.Context, orgID string, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, side, commodity, quantity_kg, price_cents,
		       currency, status, created_by, created_at, updated_at
		FROM orders WHERE organization_id = ?
		ORDER BY created_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrganizationID, &o.Side, &o.Commodity,
			&o.QuantityKg, &o.PriceCents, &o.Currency, &o.Status,
			&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order iteration failed: %w", err)
	}

	return orders, nil
}

// GetOrder returns one order within the organization scope.
func (db *DB) GetOrder(ctx context.Context, orgID, id string) (*models.Order, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, organization_id, side, commodity, quantity_kg, price_cents,
		       currency, status, created_by, created_at, updated_at
		FROM orders WHERE organization_id = ? AND id = ?`, orgID, id)

	var o models.Order
	err := row.Scan(&o.ID, &o.OrganizationID, &o.Side, &o.Commodity,
		&o.QuantityKg, &o.PriceCents, &o.Currency, &o.Status,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %s: %w", id, err)
	}
	return &o, nil
}

// CreateOrder inserts a marketplace order.
func (db *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = models.OrderStatusOpen
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO orders
			(id, organization_id, side, commodity, quantity_kg, price_cents, currency, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrganizationID, o.Side, o.Commodity, o.QuantityKg,
		o.PriceCents, o.Currency, o.Status, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// CancelOrder marks an open order canceled within the organization scope.
func (db *DB) CancelOrder(ctx context.Context, orgID, id string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ?
		WHERE organization_id = ? AND id = ? AND status = ?`,
		models.OrderStatusCanceled, time.Now(), orgID, id, models.OrderStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
