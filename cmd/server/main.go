// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package main is the entry point for the FarmPro API server.
//
// FarmPro is a multi-tenant farm-management backend. Every request passes
// through a declarative authorization pipeline (tenancy isolation,
// impersonation, feature entitlement, permission and role checks) before
// reaching a handler; handlers read their organization scope exclusively
// from the filter the pipeline produced.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered load (defaults, YAML file, env vars)
//  2. Logging: zerolog, level and format from config
//  3. Database: DuckDB, migrations applied on open
//  4. Grant enforcer: Casbin role->resource:action evaluation
//  5. Event bus + entitlement cache: Watermill in-process fan-out
//  6. Authorization pipeline and route table
//  7. Supervision tree: HTTP server and event consumers under suture
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener drains
// in-flight requests within the configured timeout, then event consumers,
// the bus, caches, and the database close in dependency order.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deepintel-ltd/farmpro-api/internal/api"
	"github.com/deepintel-ltd/farmpro-api/internal/auth"
	"github.com/deepintel-ltd/farmpro-api/internal/authz"
	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/entitlements"
	"github.com/deepintel-ltd/farmpro-api/internal/events"
	"github.com/deepintel-ltd/farmpro-api/internal/logging"
	"github.com/deepintel-ltd/farmpro-api/internal/metrics"
	"github.com/deepintel-ltd/farmpro-api/internal/supervisor"
	"github.com/deepintel-ltd/farmpro-api/internal/weather"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.SetAppInfo(version)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting FarmPro API")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeWithLog(db.Close, "database")

	grants, err := authz.NewGrantEnforcer(&cfg.Authz)
	if err != nil {
		return fmt.Errorf("failed to build grant enforcer: %w", err)
	}
	defer grants.Close()

	bus := events.NewBus()
	defer closeWithLog(bus.Close, "event bus")

	ents := entitlements.NewService(db, &cfg.Entitlements)
	defer ents.Close()

	audit := authz.NewAuditLogger(&authz.AuditConfig{
		Enabled:    cfg.Authz.AuditEnabled,
		LogAllowed: cfg.Authz.AuditLogAllowed,
		BufferSize: cfg.Authz.AuditBufferSize,
	})
	defer audit.Close()

	registry := authz.NewRegistry()
	pipeline := authz.NewPipeline(db, ents, grants, audit)
	authzMW := authz.NewMiddleware(pipeline, registry)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("failed to initialize token validation: %w", err)
	}

	var weatherClient *weather.Client
	if cfg.Weather.Enabled {
		weatherClient = weather.NewClient(&cfg.Weather)
	}

	handlers := api.NewHandlers(api.HandlersConfig{
		DB:       db,
		Weather:  weatherClient,
		Grants:   grants,
		Audit:    audit,
		Bus:      bus,
		Registry: registry,
		Version:  version,
	})
	router := api.NewRouter(handlers, authzMW, jwtManager, &cfg.Security)

	tree := supervisor.NewTree(
		slog.New(logging.NewSlogHandler()),
		supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout},
	)
	tree.AddMessagingService(entitlements.NewInvalidator(ents, bus))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	tree.AddAPIService(supervisor.NewHTTPServer(addr, router,
		cfg.Server.Timeout, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree failed: %w", err)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown deadline")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

func closeWithLog(close func() error, name string) {
	if err := close(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Close failed")
	}
}
