// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// createOrderRequest places a marketplace order.
type createOrderRequest struct {
	Side       string  `json:"side" validate:"required,oneof=buy sell"`
	Commodity  string  `json:"commodity" validate:"required,max=100"`
	QuantityKg float64 `json:"quantity_kg" validate:"required,gt=0"`
	PriceCents int64   `json:"price_cents" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required,len=3,uppercase"`
}

// ListOrders handles GET /api/v1/orders.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	orders, err := h.db.ListOrders(r.Context(), orgID, limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(orders, paginationMeta(len(orders), limit))
}

// GetOrder handles GET /api/v1/orders/{orderID}.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	order, err := h.db.GetOrder(r.Context(), orgID, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("order not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(order)
}

// CreateOrder handles POST /api/v1/orders.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Side:           req.Side,
		Commodity:      req.Commodity,
		QuantityKg:     req.QuantityKg,
		PriceCents:     req.PriceCents,
		Currency:       req.Currency,
		Status:         models.OrderStatusOpen,
		CreatedBy:      principalID(r),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.db.CreateOrder(r.Context(), order); err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Created(order)
}

// CancelOrder handles POST /api/v1/orders/{orderID}/cancel. Only open
// orders can be canceled.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if err := h.db.CancelOrder(r.Context(), orgID, orderID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).Conflict("order does not exist or is not open")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(map[string]string{
		"id":     orderID,
		"status": models.OrderStatusCanceled,
	})
}
