// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
middleware.go - Route Enforcement

Enforce binds one requirement to one route. On allow it attaches the
scoping filter to the request context and, for impersonated requests, sets
the confirmation headers. On deny it writes the stable reason code and
message; internal error detail never reaches the response body.
*/

package authz

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/deepintel-ltd/farmpro-api/internal/logging"
)

// Middleware enforces route requirements through the pipeline.
type Middleware struct {
	pipeline *Pipeline
	registry *Registry
}

// NewMiddleware creates the enforcement middleware. registry may be nil
// when route introspection is not needed.
func NewMiddleware(pipeline *Pipeline, registry *Registry) *Middleware {
	return &Middleware{pipeline: pipeline, registry: registry}
}

// Enforce wraps next with the requirement. route identifies the endpoint
// for the registry and the audit trail ("GET /api/v1/activities").
func (m *Middleware) Enforce(route string, req *Requirement, next http.Handler) http.Handler {
	if m.registry != nil {
		m.registry.Register(route, req)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := PrincipalFromContext(ctx)
		reqCtx := RequestContext{FarmID: chi.URLParam(r, "farmID")}

		start := time.Now()
		decision := m.pipeline.Evaluate(ctx, principal, req, r.Header.Get(OverrideHeader), reqCtx)
		elapsed := time.Since(start)

		m.auditDecision(r, route, principal, decision, elapsed)

		if !decision.Allowed {
			writeDenial(w, r, decision.Reason)
			return
		}

		if decision.ImpersonatedOrg != nil {
			w.Header().Set(ImpersonatedOrgIDHeader, decision.ImpersonatedOrg.ID)
			w.Header().Set(ImpersonatedOrgNameHeader, decision.ImpersonatedOrg.Name)
		}

		if decision.Filter != nil {
			ctx = withScopingFilter(ctx, decision.Filter)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EnforceFunc is the http.HandlerFunc convenience form of Enforce.
func (m *Middleware) EnforceFunc(route string, req *Requirement, next http.HandlerFunc) http.HandlerFunc {
	return m.Enforce(route, req, next).ServeHTTP
}

func (m *Middleware) auditDecision(r *http.Request, route string, principal *Principal, decision Decision, elapsed time.Duration) {
	if m.pipeline.audit == nil {
		return
	}

	event := &AuditEvent{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Route:     route,
		Allowed:   decision.Allowed,
		Reason:    string(decision.Reason),
		Duration:  elapsed,
	}
	if principal != nil {
		event.ActorID = principal.ID
		event.ActorEmail = principal.Email
	}
	if decision.Filter != nil {
		event.OrganizationID = decision.Filter.OrganizationID
		event.Impersonation = decision.Filter.IsImpersonation
	}
	m.pipeline.audit.Record(event)
}

// denialResponse mirrors the API error envelope without importing the api
// package (which depends on this one).
type denialResponse struct {
	Success bool        `json:"success"`
	Error   denialError `json:"error"`
}

type denialError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeDenial(w http.ResponseWriter, r *http.Request, reason Reason) {
	resp := denialResponse{
		Error: denialError{
			Code:      string(reason),
			Message:   reason.Message(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reason.HTTPStatus())
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode denial response")
	}
}
