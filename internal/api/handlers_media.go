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

// createMediaRequest registers metadata for an externally stored file.
type createMediaRequest struct {
	Name       string `json:"name" validate:"required,max=300"`
	Kind       string `json:"kind" validate:"required,oneof=photo document video"`
	SizeBytes  int64  `json:"size_bytes" validate:"required,gt=0"`
	StorageKey string `json:"storage_key" validate:"required,max=500"`
}

// ListMedia handles GET /api/v1/media.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	limit := listLimit(r)
	objects, err := h.db.ListMediaObjects(r.Context(), orgID, limit)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(objects, paginationMeta(len(objects), limit))
}

// GetMedia handles GET /api/v1/media/{mediaID}.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	object, err := h.db.GetMediaObject(r.Context(), orgID, chi.URLParam(r, "mediaID"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("media object not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Success(object)
}

// CreateMedia handles POST /api/v1/media.
func (h *Handlers) CreateMedia(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req createMediaRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	object := &models.MediaObject{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           req.Name,
		Kind:           req.Kind,
		SizeBytes:      req.SizeBytes,
		StorageKey:     req.StorageKey,
		UploadedBy:     principalID(r),
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.db.CreateMediaObject(r.Context(), object); err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).Created(object)
}

// DeleteMedia handles DELETE /api/v1/media/{mediaID}.
func (h *Handlers) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireScope(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteMediaObject(r.Context(), orgID, chi.URLParam(r, "mediaID")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NewResponseWriter(w, r).NotFound("media object not found")
			return
		}
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	NewResponseWriter(w, r).NoContent()
}
