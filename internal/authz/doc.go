// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package authz implements the FarmPro authorization pipeline: the chain of
// policies every inbound request passes before reaching business logic.
//
// # Architecture
//
// Handlers declare WHAT they require; the pipeline decides WHETHER it is
// allowed. Requirements are static route metadata built once at router
// construction:
//
//	r.Get("/activities", h.ListActivities)   // registered with
//	authz.Require(authz.Feature("activities"), authz.Permission("activity", "read"))
//
// Evaluation order is fixed and short-circuiting:
//
//	public -> tenancy isolation (+ impersonation) -> feature entitlement -> permission/role
//
// A Deny from any stage aborts evaluation of later stages. On Allow, the
// ScopingFilter produced by the tenancy stage is attached to the request
// context; it is created exactly once and never mutated afterwards. It is
// the single source of truth for whose data the request may touch.
//
// # Stages
//
//   - Tenancy: binds the request to the principal's organization, denying
//     suspended or organization-less principals. Platform admins may
//     substitute a target organization via the X-Organization-ID header
//     (impersonation); non-admins presenting the header are denied, never
//     silently ignored.
//   - Entitlement: three conjunctive gates — organization type supports the
//     feature, organization allows the module, subscription plan grants it.
//     The reserved feature "rbac" is always granted; access-control
//     configuration itself is never feature-gated.
//   - Permission/role: resource:action grants evaluated through the role
//     grant table with scope coverage (PLATFORM/ORGANIZATION/FARM) applied
//     first; named-role and role-level checks are independent and ANDed.
//
// # Failure semantics
//
// Every stage fails closed: an erroring or ambiguous lookup is a denial,
// never an implicit allow. Denials carry a stable Reason code surfaced to
// the caller; internal error detail stays in the logs.
//
// Each request is evaluated independently; the pipeline holds no
// cross-request mutable state beyond the advisory grant-decision cache.
package authz
