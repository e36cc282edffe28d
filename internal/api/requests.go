// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// maxRequestBodyBytes bounds request bodies; payloads here are metadata,
// never bulk data.
const maxRequestBodyBytes = 1 << 20

// Pagination bounds.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// decodeBody decodes and validates a JSON request body into dst. On
// failure the error response is already written and false is returned.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rw.BadRequest(fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
			return false
		}
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]map[string]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, map[string]string{
					"field":      fe.Field(),
					"constraint": fe.Tag(),
				})
			}
			rw.ValidationError("request validation failed", details)
			return false
		}
		rw.BadRequest("request validation failed")
		return false
	}

	return true
}

// listLimit parses the "limit" query parameter with bounds applied.
func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// paginationMeta builds list metadata from the returned slice length.
func paginationMeta(count, limit int) *PaginationMeta {
	return &PaginationMeta{
		Count:   count,
		Limit:   limit,
		HasMore: count == limit,
	}
}
