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

// GetActiveSubscription returns the organization's current active
// subscription. Returns ErrSubscriptionNotFound when none exists; the
// entitlement layer decides what a missing record means.
func (db *DB) GetActiveSubscription(ctx context.Context, orgID string) (*models.Subscription, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, organization_id, plan_tier, status, module_flags, feature_flags, started_at, expires_at
		FROM subscriptions
		WHERE organization_id = ? AND status = 'active'
		ORDER BY started_at DESC LIMIT 1`, orgID)

	var (
		sub         models.Subscription
		rawModules  string
		rawFeatures string
		expiresAt   sql.NullTime
	)

	err := row.Scan(&sub.ID, &sub.OrganizationID, &sub.PlanTier, &sub.Status,
		&rawModules, &rawFeatures, &sub.StartedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription for %s: %w", orgID, err)
	}

	if sub.ModuleFlags, err = decodeStringList(rawModules); err != nil {
		return nil, err
	}
	if sub.FeatureFlags, err = decodeStringList(rawFeatures); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		sub.ExpiresAt = &expiresAt.Time
	}

	// An expired record is treated the same as a missing one.
	if !sub.IsActive() {
		return nil, ErrSubscriptionNotFound
	}

	return &sub, nil
}

// CreateSubscription inserts a subscription record.
func (db *DB) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.StartedAt.IsZero() {
		sub.StartedAt = time.Now()
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusActive
	}

	modules, err := encodeStringList(sub.ModuleFlags)
	if err != nil {
		return err
	}
	features, err := encodeStringList(sub.FeatureFlags)
	if err != nil {
		return err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var expiresAt interface{}
	if sub.ExpiresAt != nil {
		expiresAt = *sub.ExpiresAt
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO subscriptions
			(id, organization_id, plan_tier, status, module_flags, feature_flags, started_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.OrganizationID, sub.PlanTier, sub.Status,
		modules, features, sub.StartedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// ListInvoices returns an organization's invoices, newest first.
func (db *DB) ListInvoices(ctx context.Context, orgID string, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, plan_tier, amount_cents, currency,
		       period_start, period_end, issued_at, status
		FROM invoices WHERE organization_id = ?
		ORDER BY issued_at DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.PlanTier,
			&inv.AmountCents, &inv.Currency, &inv.PeriodStart, &inv.PeriodEnd,
			&inv.IssuedAt, &inv.Status); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice iteration failed: %w", err)
	}

	return invoices, nil
}

// CreateInvoice inserts an invoice record.
func (db *DB) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now()
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO invoices
			(id, organization_id, plan_tier, amount_cents, currency, period_start, period_end, issued_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OrganizationID, inv.PlanTier, inv.AmountCents, inv.Currency,
		inv.PeriodStart, inv.PeriodEnd, inv.IssuedAt, inv.Status)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}
