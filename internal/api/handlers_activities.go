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

// createActivityRequest is the payload for recording farm work.
type createActivityRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Kind         string     `json:"kind" validate:"required,max=100"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// updateActivityStatusRequest moves an activity through its lifecycle.
type updateActivityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned in_progress completed canceled"`
}

// ListActivities handles GET /api/v1/farms/{farmID}/activities.
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	activities, err := h.db.ListActivities(r.Context(), orgID, chi.URLParam(r, "farmID"), limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(activities, paginationMeta(len(activities), limit))
}

// GetActivity handles GET /api/v1/farms/{farmID}/activities/{activityID}.
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	activity, err := h.db.GetActivity(r.Context(), orgID, chi.URLParam(r, "activityID"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("activity not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(activity)
}

// CreateActivity handles POST /api/v1/farms/{farmID}/activities.
func (h *Handlers) CreateActivity(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req createActivityRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	activity := &models.Activity{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		FarmID:         chi.URLParam(r, "farmID"),
		Name:           req.Name,
		Kind:           req.Kind,
		Status:         models.ActivityStatusPlanned,
		ScheduledFor:   req.ScheduledFor,
		CreatedBy:      principalID(r),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.db.CreateActivity(r.Context(), activity); err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Created(activity)
}

// UpdateActivityStatus handles PATCH /api/v1/farms/{farmID}/activities/{activityID}/status.
func (h *Handlers) UpdateActivityStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req updateActivityStatusRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.db.UpdateActivityStatus(r.Context(), orgID, chi.URLParam(r, "activityID"), req.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("activity not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(map[string]string{
		"id":     chi.URLParam(r, "activityID"),
		"status": req.Status,
	})
}

// DeleteActivity handles DELETE /api/v1/farms/{farmID}/activities/{activityID}.
func (h *Handlers) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteActivity(r.Context(), orgID, chi.URLParam(r, "activityID")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("activity not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).NoContent()
}
