// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deepintel-ltd/farmpro-api/internal/config"
)

func newTestClient(baseURL string, maxFailures uint32) *Client {
	return NewClient(&config.WeatherConfig{
		Enabled:            true,
		BaseURL:            baseURL,
		Timeout:            time.Second,
		BreakerMaxFailures: maxFailures,
		BreakerOpenTimeout: time.Minute,
	})
}

func TestCurrentParsesUpstreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latitude"); got != "51.5" {
			t.Errorf("latitude = %q, want 51.5", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature_c": 18.4, "humidity": 62, "wind_speed_kmh": 11.2, "condition": "partly_cloudy"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	report, err := client.Current(context.Background(), 51.5, -0.12)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if report.TemperatureC != 18.4 || report.Condition != "partly_cloudy" {
		t.Errorf("report = %+v", report)
	}
	if report.Latitude != 51.5 || report.Longitude != -0.12 {
		t.Errorf("coordinates = (%v, %v)", report.Latitude, report.Longitude)
	}
	if report.ObservedAt.IsZero() {
		t.Error("observed_at not defaulted")
	}
}

func TestCurrentUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	if _, err := client.Current(context.Background(), 0, 0); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestCurrentBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)

	for i := 0; i < 2; i++ {
		if _, err := client.Current(context.Background(), 0, 0); err == nil {
			t.Fatal("expected failure")
		}
	}
	upstreamHits := hits.Load()

	// Breaker is now open: the upstream must not be touched again.
	if _, err := client.Current(context.Background(), 0, 0); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if hits.Load() != upstreamHits {
		t.Error("upstream contacted while the breaker was open")
	}
}

func TestCurrentRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	if _, err := client.Current(context.Background(), 0, 0); err == nil {
		t.Error("malformed body accepted")
	}
}
