// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package metrics defines the Prometheus instrumentation shared across
// the service. Authorization pipeline metrics live with the pipeline;
// everything transport- and storage-level is defined here.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method, route pattern, and status.",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "farmpro",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "farmpro",
			Subsystem: "api",
			Name:      "active_requests",
			Help:      "Requests currently in flight.",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	// Database metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "farmpro",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Query latency by operation and table.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Query errors by operation and table.",
		},
		[]string{"operation", "table"},
	)

	// Application metrics

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "farmpro",
			Name:      "app_info",
			Help:      "Build information, value is always 1.",
		},
		[]string{"version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "farmpro",
			Name:      "app_uptime_seconds",
			Help:      "Seconds since process start.",
		},
	)
)

var startTime = time.Now()

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records one storage operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// SetAppInfo publishes build information and refreshes uptime.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version).Set(1)
	AppUptime.Set(time.Since(startTime).Seconds())
}
