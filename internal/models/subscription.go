// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package models

import "time"

// Plan tiers, in ascending order of entitlement.
const (
	PlanTierTrial      = "trial"
	PlanTierBasic      = "basic"
	PlanTierStandard   = "standard"
	PlanTierEnterprise = "enterprise"
)

// SubscriptionEntitlement is the resolved feature/module grant for one
// organization: the plan tier's flags merged with organization-specific
// overrides. Looked up per request; cacheable with a short TTL.
type SubscriptionEntitlement struct {
	// OrganizationID is the organization the entitlement belongs to.
	OrganizationID string `json:"organization_id"`

	// PlanTier is the subscription tier the flags were derived from.
	PlanTier string `json:"plan_tier"`

	// ModuleFlags is the set of modules the plan grants.
	ModuleFlags []string `json:"module_flags"`

	// FeatureFlags is the set of features the plan grants.
	FeatureFlags []string `json:"feature_flags"`
}

// Grants reports whether the entitlement includes the named feature or
// module, honoring the "all_features" wildcard.
func (e *SubscriptionEntitlement) Grants(name string) bool {
	for _, f := range e.FeatureFlags {
		if f == FeatureWildcard || f == name {
			return true
		}
	}
	for _, m := range e.ModuleFlags {
		if m == FeatureWildcard || m == name {
			return true
		}
	}
	return false
}

// Subscription is the persistent subscription record for an organization.
type Subscription struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	PlanTier       string     `json:"plan_tier"`
	Status         string     `json:"status"`
	ModuleFlags    []string   `json:"module_flags"`
	FeatureFlags   []string   `json:"feature_flags"`
	StartedAt      time.Time  `json:"started_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Subscription status values.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// IsActive reports whether the subscription is currently in force.
func (s *Subscription) IsActive() bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt) {
		return false
	}
	return true
}

// Entitlement derives the resolved entitlement from the subscription record.
func (s *Subscription) Entitlement() *SubscriptionEntitlement {
	return &SubscriptionEntitlement{
		OrganizationID: s.OrganizationID,
		PlanTier:       s.PlanTier,
		ModuleFlags:    s.ModuleFlags,
		FeatureFlags:   s.FeatureFlags,
	}
}

// Invoice is a read-only billing record derived from subscription activity.
type Invoice struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	PlanTier       string    `json:"plan_tier"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	IssuedAt       time.Time `json:"issued_at"`
	Status         string    `json:"status"`
}
