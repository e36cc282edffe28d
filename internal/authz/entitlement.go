// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
entitlement.go - Feature Entitlement Gates

A feature-gated route passes three conjunctive gates, evaluated in order:

 1. Organization type: a static map of which feature sets each
    organization type can ever use. Failing here means "wrong kind of
    organization", not an upgrade problem.
 2. Organization modules: the feature must be in the organization's
    allowed-modules list.
 3. Plan entitlement: the subscription plan must grant the feature.

Each gate has its own stable denial reason so the caller can distinguish
"never available" from "not enabled" from "upgrade required". Platform
admins bypass all three.
*/

package authz

import (
	"context"

	"github.com/deepintel-ltd/farmpro-api/internal/logging"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// Feature names gateable by requirements. Organization allowed-modules
// lists and plan flags use the same vocabulary.
const (
	FeatureActivities  = "activities"
	FeatureInventory   = "inventory"
	FeatureOrders      = "orders"
	FeatureMarketplace = "marketplace"
	FeatureLogistics   = "logistics"
	FeatureMedia       = "media"
	FeatureWeather     = "weather"
	FeatureBilling     = "billing"
	FeatureReports     = "reports"

	// FeatureRBAC is reserved and always granted: role administration
	// must never be lockable by a plan change.
	FeatureRBAC = "rbac"
)

// featuresByOrgType is the static availability map. Absence means the
// organization type can never use the feature, regardless of plan.
var featuresByOrgType = map[models.OrgType]map[string]bool{
	models.OrgTypeFarmOperation: {
		FeatureActivities: true,
		FeatureInventory:  true,
		FeatureOrders:     true,
		FeatureMedia:      true,
		FeatureWeather:    true,
		FeatureBilling:    true,
		FeatureReports:    true,
	},
	models.OrgTypeCommodityTrader: {
		FeatureMarketplace: true,
		FeatureOrders:      true,
		FeatureInventory:   true,
		FeatureMedia:       true,
		FeatureBilling:     true,
		FeatureReports:     true,
	},
	models.OrgTypeLogisticsProvider: {
		FeatureLogistics:   true,
		FeatureMarketplace: true,
		FeatureOrders:      true,
		FeatureMedia:       true,
		FeatureBilling:     true,
		FeatureReports:     true,
	},
	models.OrgTypeIntegrated: {
		FeatureActivities:  true,
		FeatureInventory:   true,
		FeatureOrders:      true,
		FeatureMarketplace: true,
		FeatureLogistics:   true,
		FeatureMedia:       true,
		FeatureWeather:     true,
		FeatureBilling:     true,
		FeatureReports:     true,
	},
}

// FeatureAvailableForOrgType reports gate 1: whether the organization type
// can ever use the feature.
func FeatureAvailableForOrgType(orgType models.OrgType, feature string) bool {
	set, ok := featuresByOrgType[orgType]
	if !ok {
		return false
	}
	return set[feature]
}

// EntitlementSource resolves the effective subscription entitlement for an
// organization. Implementations may cache; resolution errors fail closed.
type EntitlementSource interface {
	Resolve(ctx context.Context, org *models.OrganizationSnapshot) (*models.SubscriptionEntitlement, error)
}

// evaluateEntitlement runs the feature entitlement stage. Only called when
// the requirement names a feature. The org snapshot comes from the tenancy
// stage; when nil (tenancy-bypassing route) it is looked up here.
func (p *Pipeline) evaluateEntitlement(ctx context.Context, principal *Principal, org *models.OrganizationSnapshot, feature string) Decision {
	if principal.IsPlatformAdmin {
		return Allow(nil)
	}
	if feature == FeatureRBAC {
		return Allow(nil)
	}

	if org == nil {
		if principal.OrganizationID == "" {
			return Deny(ReasonNoOrganization)
		}
		looked, err := p.orgs.GetOrganizationSnapshot(ctx, principal.OrganizationID)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("org_id", principal.OrganizationID).
				Msg("Organization lookup failed during entitlement check, denying")
			return Deny(ReasonInvalidOrganization)
		}
		org = looked
	}

	// Gate 1: organization type.
	if !FeatureAvailableForOrgType(org.Type, feature) {
		return Deny(ReasonFeatureNotAvailableForOrgType)
	}

	// Gate 2: organization allowed modules.
	if !org.AllowsModule(feature) {
		return Deny(ReasonFeatureNotEnabledForOrganization)
	}

	// Gate 3: plan entitlement. Resolution failures fail closed.
	ent, err := p.entitlements.Resolve(ctx, org)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("org_id", org.ID).
			Str("feature", feature).
			Msg("Entitlement resolution failed, denying")
		return Deny(ReasonFeatureNotInPlan)
	}
	if !ent.Grants(feature) {
		return Deny(ReasonFeatureNotInPlan)
	}

	return Allow(nil)
}
