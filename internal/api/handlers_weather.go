// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/deepintel-ltd/farmpro-api/internal/weather"
)

// CurrentWeather handles GET /api/v1/weather. Coordinates come from query
// parameters; farm geodata lives with the caller.
func (h *Handlers) CurrentWeather(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r); !ok {
		return
	}

	rw := NewResponseWriter(w, r)
	if h.weather == nil {
		rw.ServiceUnavailable("weather lookups are not configured")
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		rw.BadRequest("lat must be a number between -90 and 90")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		rw.BadRequest("lon must be a number between -180 and 180")
		return
	}

	report, err := h.weather.Current(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrUnavailable) {
			rw.ServiceUnavailable("weather provider unavailable")
			return
		}
		rw.InternalError("weather lookup failed")
		return
	}

	rw.Success(report)
}
