// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"errors"
	"net/http"

	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// billingSummary is the read model for GET /api/v1/billing/summary.
type billingSummary struct {
	OrganizationID  string               `json:"organization_id"`
	PlanTier        string               `json:"plan_tier"`
	Status          string               `json:"status"`
	HasSubscription bool                 `json:"has_subscription"`
	Subscription    *models.Subscription `json:"subscription,omitempty"`
}

// BillingSummary handles GET /api/v1/billing/summary.
func (h *Handlers) BillingSummary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	sub, err := h.db.GetActiveSubscription(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, database.ErrSubscriptionNotFound) {
			NewResponseWriter(w, r).Success(billingSummary{
				OrganizationID:  orgID,
				HasSubscription: false,
			})
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(billingSummary{
		OrganizationID:  orgID,
		PlanTier:        sub.PlanTier,
		Status:          sub.Status,
		HasSubscription: true,
		Subscription:    sub,
	})
}

// ListInvoices handles GET /api/v1/billing/invoices.
func (h *Handlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	invoices, err := h.db.ListInvoices(r.Context(), orgID, limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(invoices, paginationMeta(len(invoices), limit))
}
