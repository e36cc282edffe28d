// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package database

import (
	"errors"
	"io"

	"github.com/deepintel-ltd/farmpro-api/internal/logging"
)

// Sentinel errors returned by lookup and CRUD operations. Callers compare
// with errors.Is; the authorization pipeline maps these to denials, never
// to implicit allows.
var (
	// ErrOrganizationNotFound is returned when an organization id does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrSubscriptionNotFound is returned when an organization has no
	// active subscription record.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrRoleNotFound is returned when a role assignment does not exist.
	ErrRoleNotFound = errors.New("role assignment not found")

	// ErrNotFound is returned for missing domain records (activities,
	// orders, inventory, media, invoices).
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}
