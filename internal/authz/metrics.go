// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision metrics. Reason label cardinality is bounded by the fixed
// reason-code set, never by request content.
var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Authorization decisions by outcome and reason.",
		},
		[]string{"outcome", "reason"},
	)

	decisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "decision_duration_seconds",
			Help:      "Time spent evaluating the authorization pipeline.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	impersonationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "impersonations_total",
			Help:      "Successful admin organization impersonations.",
		},
	)

	grantCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "grant_cache_hits_total",
			Help:      "Role grant decisions served from cache.",
		},
	)

	grantCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "grant_cache_misses_total",
			Help:      "Role grant decisions requiring enforcement.",
		},
	)

	auditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farmpro",
			Subsystem: "authz",
			Name:      "audit_events_dropped_total",
			Help:      "Audit events dropped because the buffer was full.",
		},
	)
)

// RecordDecision records one pipeline evaluation.
func RecordDecision(d Decision, elapsed time.Duration) {
	outcome := "allow"
	reason := ""
	if !d.Allowed {
		outcome = "deny"
		reason = string(d.Reason)
	}
	decisionsTotal.WithLabelValues(outcome, reason).Inc()
	decisionDuration.Observe(elapsed.Seconds())
}

// RecordImpersonation records a validated admin impersonation.
func RecordImpersonation() {
	impersonationsTotal.Inc()
}

// RecordGrantCacheHit records a grant cache hit.
func RecordGrantCacheHit() {
	grantCacheHits.Inc()
}

// RecordGrantCacheMiss records a grant cache miss.
func RecordGrantCacheMiss() {
	grantCacheMisses.Inc()
}

// RecordAuditDropped records a dropped audit event.
func RecordAuditDropped() {
	auditEventsDropped.Inc()
}
