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

// upsertInventoryRequest creates or replaces a stock record.
type upsertInventoryRequest struct {
	ID       string  `json:"id,omitempty" validate:"omitempty,uuid4"`
	FarmID   string  `json:"farm_id,omitempty" validate:"omitempty,max=100"`
	Name     string  `json:"name" validate:"required,max=200"`
	Category string  `json:"category" validate:"required,max=100"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"required,max=20"`
}

// ListInventory handles GET /api/v1/inventory. The optional farm_id query
// parameter narrows to one farm.
func (h *Handlers) ListInventory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	items, err := h.db.ListInventory(r.Context(), orgID, r.URL.Query().Get("farm_id"), limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(items, paginationMeta(len(items), limit))
}

// UpsertInventoryItem handles PUT /api/v1/inventory.
func (h *Handlers) UpsertInventoryItem(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req upsertInventoryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	item := &models.InventoryItem{
		ID:             id,
		OrganizationID: orgID,
		FarmID:         req.FarmID,
		Name:           req.Name,
		Category:       req.Category,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.db.UpsertInventoryItem(r.Context(), item); err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(item)
}

// DeleteInventoryItem handles DELETE /api/v1/inventory/{itemID}.
func (h *Handlers) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteInventoryItem(r.Context(), orgID, chi.URLParam(r, "itemID")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("inventory item not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).NoContent()
}
