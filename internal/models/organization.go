// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package models defines the shared data structures for FarmPro: tenants,
// roles, subscriptions, and the farm-domain records exposed by the API.
package models

import "time"

// OrgType classifies an organization and determines which feature families
// are available to it at all, independent of plan.
type OrgType string

// Organization types.
const (
	// OrgTypeFarmOperation is a producer running day-to-day farm operations.
	OrgTypeFarmOperation OrgType = "FARM_OPERATION"

	// OrgTypeCommodityTrader buys and sells commodities on the marketplace.
	OrgTypeCommodityTrader OrgType = "COMMODITY_TRADER"

	// OrgTypeLogisticsProvider moves goods between producers and buyers.
	OrgTypeLogisticsProvider OrgType = "LOGISTICS_PROVIDER"

	// OrgTypeIntegrated combines production, trading, and logistics.
	OrgTypeIntegrated OrgType = "INTEGRATED"
)

// ValidOrgTypes contains all valid organization types for validation.
var ValidOrgTypes = []OrgType{
	OrgTypeFarmOperation,
	OrgTypeCommodityTrader,
	OrgTypeLogisticsProvider,
	OrgTypeIntegrated,
}

// IsValidOrgType checks if a type value is one of the known organization types.
func IsValidOrgType(t OrgType) bool {
	for _, v := range ValidOrgTypes {
		if v == t {
			return true
		}
	}
	return false
}

// OrganizationSnapshot is the per-request view of an organization used by
// the authorization pipeline. It is read at request time and never written
// by the pipeline.
type OrganizationSnapshot struct {
	// ID is the organization's unique identifier.
	ID string `json:"id"`

	// Name is the display name, surfaced in impersonation confirmation headers.
	Name string `json:"name"`

	// Type classifies the organization (see OrgType).
	Type OrgType `json:"type"`

	// PlanTier is the subscription tier the organization is on.
	PlanTier string `json:"plan_tier"`

	// IsActive is false for deactivated organizations.
	IsActive bool `json:"is_active"`

	// IsSuspended blocks all tenant access when true.
	IsSuspended bool `json:"is_suspended"`

	// AllowedModules is the organization-level module allow list.
	AllowedModules []string `json:"allowed_modules"`

	// Features is the organization's own feature set, used as the
	// entitlement fallback when no active subscription record exists.
	// The sentinel "all_features" entry acts as a wildcard.
	Features []string `json:"features"`

	// UpdatedAt is when the organization record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// AllowsModule reports whether the module is in the organization's allow list.
func (o *OrganizationSnapshot) AllowsModule(module string) bool {
	for _, m := range o.AllowedModules {
		if m == module {
			return true
		}
	}
	return false
}

// HasFeature reports whether the feature is in the organization's own
// feature set, honoring the "all_features" wildcard.
func (o *OrganizationSnapshot) HasFeature(feature string) bool {
	for _, f := range o.Features {
		if f == FeatureWildcard || f == feature {
			return true
		}
	}
	return false
}

// FeatureWildcard is the sentinel feature entry that grants every feature.
const FeatureWildcard = "all_features"
