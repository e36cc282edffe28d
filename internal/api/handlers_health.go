// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// healthStatus is the body for GET /healthz.
type healthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database"`
}

// Health handles GET /healthz. Public and unauthenticated; reports degraded
// with a 503 when the database is unreachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Database:      "ok",
	}

	rw := NewResponseWriter(w, r)
	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status})
		return
	}

	rw.Success(status)
}
