// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
router.go - Route Table

Every route is registered through the enforcement middleware with its
access requirement declared inline, so the route table doubles as the
authorization manifest: what each endpoint demands is visible in one
place and introspectable at runtime via the requirement registry.
*/

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deepintel-ltd/farmpro-api/internal/auth"
	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/metrics"
	"github.com/deepintel-ltd/farmpro-api/internal/middleware"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// NewRouter builds the HTTP route table with the full middleware chain:
// request identity, metrics, compression, CORS, rate limiting, token
// authentication, and per-route authorization enforcement.
func NewRouter(h *Handlers, authzMW *authz.Middleware, jwt *auth.JWTManager, sec *config.SecurityConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sec.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			middleware.RequestIDHeader, authz.OverrideHeader,
		},
		ExposedHeaders: []string{
			middleware.RequestIDHeader,
			authz.ImpersonatedOrgIDHeader,
			authz.ImpersonatedOrgNameHeader,
		},
		MaxAge: 300,
	}))

	if !sec.RateLimitDisabled {
		r.Use(httprate.Limit(
			sec.RateLimitReqs,
			sec.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				metrics.APIRateLimitHits.Inc()
				NewResponseWriter(w, req).Error(http.StatusTooManyRequests,
					ErrCodeRateLimited, "rate limit exceeded")
			}),
		))
	}

	r.Use(auth.Middleware(jwt))

	en := authzMW.EnforceFunc

	// Operational surface.
	r.Get("/healthz", en("GET /healthz",
		authz.Require(authz.Public()), h.Health))
	r.Method(http.MethodGet, "/metrics", authzMW.Enforce("GET /metrics",
		authz.Require(authz.Public()), promhttp.Handler()))

	r.Route("/api/v1", func(r chi.Router) {
		// Farm activities. Only organizations that run farms log field
		// work, so the whole group carries an org-type restriction on
		// top of the feature gate.
		activityReq := func(action string) *authz.Requirement {
			return authz.Require(
				authz.Feature(authz.FeatureActivities),
				authz.OrgTypes(models.OrgTypeFarmOperation, models.OrgTypeIntegrated),
				authz.Permission("activity", action),
			)
		}
		r.Route("/farms/{farmID}", func(r chi.Router) {
			r.Get("/activities", en("GET /api/v1/farms/{farmID}/activities",
				activityReq("read"), h.ListActivities))
			r.Post("/activities", en("POST /api/v1/farms/{farmID}/activities",
				activityReq("create"), h.CreateActivity))
			r.Get("/activities/{activityID}", en("GET /api/v1/farms/{farmID}/activities/{activityID}",
				activityReq("read"), h.GetActivity))
			r.Patch("/activities/{activityID}/status", en("PATCH /api/v1/farms/{farmID}/activities/{activityID}/status",
				activityReq("update"), h.UpdateActivityStatus))
			r.Delete("/activities/{activityID}", en("DELETE /api/v1/farms/{farmID}/activities/{activityID}",
				activityReq("delete"), h.DeleteActivity))
		})

		r.Get("/weather", en("GET /api/v1/weather",
			authz.Require(
				authz.Feature(authz.FeatureWeather),
				authz.Permission("weather", "read"),
			), h.CurrentWeather))

		// Marketplace orders.
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", en("GET /api/v1/orders",
				authz.Require(
					authz.Feature(authz.FeatureOrders),
					authz.Permission("order", "read"),
				), h.ListOrders))
			r.Post("/", en("POST /api/v1/orders",
				authz.Require(
					authz.Feature(authz.FeatureOrders),
					authz.Permission("order", "create"),
				), h.CreateOrder))
			r.Get("/{orderID}", en("GET /api/v1/orders/{orderID}",
				authz.Require(
					authz.Feature(authz.FeatureOrders),
					authz.Permission("order", "read"),
				), h.GetOrder))
			r.Post("/{orderID}/cancel", en("POST /api/v1/orders/{orderID}/cancel",
				authz.Require(
					authz.Feature(authz.FeatureOrders),
					authz.Permission("order", "update"),
				), h.CancelOrder))
		})

		// Inventory.
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", en("GET /api/v1/inventory",
				authz.Require(
					authz.Feature(authz.FeatureInventory),
					authz.Permission("inventory", "read"),
				), h.ListInventory))
			r.Put("/", en("PUT /api/v1/inventory",
				authz.Require(
					authz.Feature(authz.FeatureInventory),
					authz.Permission("inventory", "update"),
				), h.UpsertInventoryItem))
			r.Delete("/{itemID}", en("DELETE /api/v1/inventory/{itemID}",
				authz.Require(
					authz.Feature(authz.FeatureInventory),
					authz.Permission("inventory", "delete"),
				), h.DeleteInventoryItem))
		})

		// Media metadata.
		r.Route("/media", func(r chi.Router) {
			r.Get("/", en("GET /api/v1/media",
				authz.Require(
					authz.Feature(authz.FeatureMedia),
					authz.Permission("media", "read"),
				), h.ListMedia))
			r.Post("/", en("POST /api/v1/media",
				authz.Require(
					authz.Feature(authz.FeatureMedia),
					authz.Permission("media", "create"),
				), h.CreateMedia))
			r.Get("/{mediaID}", en("GET /api/v1/media/{mediaID}",
				authz.Require(
					authz.Feature(authz.FeatureMedia),
					authz.Permission("media", "read"),
				), h.GetMedia))
			r.Delete("/{mediaID}", en("DELETE /api/v1/media/{mediaID}",
				authz.Require(
					authz.Feature(authz.FeatureMedia),
					authz.Permission("media", "delete"),
				), h.DeleteMedia))
		})

		// Billing.
		r.Route("/billing", func(r chi.Router) {
			r.Get("/summary", en("GET /api/v1/billing/summary",
				authz.Require(
					authz.Feature(authz.FeatureBilling),
					authz.Permission("subscription", "read"),
				), h.BillingSummary))
			r.Get("/invoices", en("GET /api/v1/billing/invoices",
				authz.Require(
					authz.Feature(authz.FeatureBilling),
					authz.Permission("invoice", "read"),
				), h.ListInvoices))
		})

		// Role administration. Gated on the reserved feature so a plan
		// change can never lock an organization out of managing access.
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", en("GET /api/v1/roles",
				authz.Require(
					authz.Feature(authz.FeatureRBAC),
					authz.Permission("role", "read"),
				), h.ListRoles))
			r.Post("/", en("POST /api/v1/roles",
				authz.Require(
					authz.Feature(authz.FeatureRBAC),
					authz.Permission("role", "create"),
					authz.RoleLevel(50),
				), h.AssignRole))
			r.Post("/revoke", en("POST /api/v1/roles/revoke",
				authz.Require(
					authz.Feature(authz.FeatureRBAC),
					authz.Permission("role", "delete"),
					authz.RoleLevel(50),
				), h.RevokeRole))
			r.Get("/audit", en("GET /api/v1/roles/audit",
				authz.Require(
					authz.Feature(authz.FeatureRBAC),
					authz.Permission("role", "read"),
				), h.RoleAudit))
			r.Get("/catalog", en("GET /api/v1/roles/catalog",
				authz.Require(
					authz.Feature(authz.FeatureRBAC),
					authz.Permission("role", "read"),
				), h.RoleCatalog))
			r.Get("/mine", en("GET /api/v1/roles/mine",
				authz.Require(authz.Feature(authz.FeatureRBAC)), h.MyRoles))
		})

		// Platform administration. Tenancy is bypassed; the role check does
		// the gating (platform admins pass it, nobody else holds the role).
		r.Route("/admin", func(r chi.Router) {
			adminOnly := func() *authz.Requirement {
				return authz.Require(
					authz.BypassTenancy(),
					authz.Role("Platform Operator", true),
				)
			}

			r.Post("/organizations", en("POST /api/v1/admin/organizations",
				adminOnly(), h.CreateOrganization))
			r.Get("/organizations/{orgID}", en("GET /api/v1/admin/organizations/{orgID}",
				adminOnly(), h.GetOrganization))
			r.Put("/organizations/{orgID}/modules", en("PUT /api/v1/admin/organizations/{orgID}/modules",
				adminOnly(), h.UpdateOrganizationModules))
			r.Put("/organizations/{orgID}/suspension", en("PUT /api/v1/admin/organizations/{orgID}/suspension",
				adminOnly(), h.SetOrganizationSuspended))
			r.Post("/subscriptions", en("POST /api/v1/admin/subscriptions",
				adminOnly(), h.CreateSubscription))
			r.Get("/authz/routes", en("GET /api/v1/admin/authz/routes",
				adminOnly(), h.AuthzRoutes))
			r.Get("/authz/audit", en("GET /api/v1/admin/authz/audit",
				adminOnly(), h.AuditStats))
		})
	})

	return r
}
