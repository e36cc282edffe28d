// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates all tables. Statements are idempotent
// (IF NOT EXISTS) so startup is safe against an existing database file.
//
// String sets (allowed_modules, features, flags) are stored as JSON text
// and decoded on read; DuckDB array scanning through database/sql is not
// worth the driver coupling for sets this small.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id             VARCHAR PRIMARY KEY,
		name           VARCHAR NOT NULL,
		org_type       VARCHAR NOT NULL,
		plan_tier      VARCHAR NOT NULL DEFAULT 'trial',
		is_active      BOOLEAN NOT NULL DEFAULT true,
		is_suspended   BOOLEAN NOT NULL DEFAULT false,
		allowed_modules VARCHAR NOT NULL DEFAULT '[]',
		features       VARCHAR NOT NULL DEFAULT '[]',
		updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS role_assignments (
		id              VARCHAR PRIMARY KEY,
		user_id         VARCHAR NOT NULL,
		organization_id VARCHAR NOT NULL,
		role_name       VARCHAR NOT NULL,
		level           INTEGER NOT NULL DEFAULT 0,
		scope           VARCHAR NOT NULL,
		farm_id         VARCHAR,
		assigned_by     VARCHAR,
		assigned_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active       BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS role_audit (
		id              VARCHAR PRIMARY KEY,
		ts              TIMESTAMP NOT NULL,
		actor_id        VARCHAR NOT NULL,
		action          VARCHAR NOT NULL,
		organization_id VARCHAR NOT NULL,
		target_user_id  VARCHAR NOT NULL,
		role_name       VARCHAR NOT NULL,
		reason          VARCHAR
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		plan_tier       VARCHAR NOT NULL,
		status          VARCHAR NOT NULL DEFAULT 'active',
		module_flags    VARCHAR NOT NULL DEFAULT '[]',
		feature_flags   VARCHAR NOT NULL DEFAULT '[]',
		started_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at      TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		plan_tier       VARCHAR NOT NULL,
		amount_cents    BIGINT NOT NULL,
		currency        VARCHAR NOT NULL DEFAULT 'USD',
		period_start    TIMESTAMP NOT NULL,
		period_end      TIMESTAMP NOT NULL,
		issued_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status          VARCHAR NOT NULL DEFAULT 'issued'
	)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		farm_id         VARCHAR NOT NULL,
		name            VARCHAR NOT NULL,
		kind            VARCHAR NOT NULL,
		status          VARCHAR NOT NULL DEFAULT 'planned',
		scheduled_for   TIMESTAMP,
		completed_at    TIMESTAMP,
		created_by      VARCHAR NOT NULL,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		side            VARCHAR NOT NULL,
		commodity       VARCHAR NOT NULL,
		quantity_kg     DOUBLE NOT NULL,
		price_cents     BIGINT NOT NULL,
		currency        VARCHAR NOT NULL DEFAULT 'USD',
		status          VARCHAR NOT NULL DEFAULT 'open',
		created_by      VARCHAR NOT NULL,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS inventory_items (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		farm_id         VARCHAR,
		name            VARCHAR NOT NULL,
		category        VARCHAR NOT NULL,
		quantity        DOUBLE NOT NULL DEFAULT 0,
		unit            VARCHAR NOT NULL,
		updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS media_objects (
		id              VARCHAR PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		name            VARCHAR NOT NULL,
		kind            VARCHAR NOT NULL,
		size_bytes      BIGINT NOT NULL DEFAULT 0,
		storage_key     VARCHAR NOT NULL,
		uploaded_by     VARCHAR NOT NULL,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_role_assignments_user ON role_assignments (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_role_assignments_org ON role_assignments (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_org ON subscriptions (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_org ON activities (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_org ON orders (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_org ON inventory_items (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_media_org ON media_objects (organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_org ON invoices (organization_id)`,
}

// migrate applies the schema.
func (db *DB) migrate(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
