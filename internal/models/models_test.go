// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package models

import (
	"testing"
	"time"
)

func TestMaxRoleLevel(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  int
	}{
		{"no roles", nil, 0},
		{"single role", []Role{{Level: 50}}, 50},
		{"picks maximum", []Role{{Level: 30}, {Level: 80}, {Level: 10}}, 80},
		{"zero-level roles", []Role{{Level: 0}, {Level: 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxRoleLevel(tt.roles); got != tt.want {
				t.Errorf("MaxRoleLevel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoleNameEqualsIgnoresCase(t *testing.T) {
	r := Role{Name: "Farm Manager"}
	if !r.NameEquals("farm manager") {
		t.Error("lowercase name should match")
	}
	if !r.NameEquals("FARM MANAGER") {
		t.Error("uppercase name should match")
	}
	if r.NameEquals("Farm Worker") {
		t.Error("different name must not match")
	}
}

func TestOrganizationFeatureWildcard(t *testing.T) {
	org := &OrganizationSnapshot{Features: []string{FeatureWildcard}}
	if !org.HasFeature("marketplace") {
		t.Error("wildcard should grant any feature")
	}

	org = &OrganizationSnapshot{Features: []string{"activities"}}
	if !org.HasFeature("activities") || org.HasFeature("orders") {
		t.Errorf("features = %v", org.Features)
	}
}

func TestEntitlementGrants(t *testing.T) {
	ent := &SubscriptionEntitlement{
		ModuleFlags:  []string{"inventory"},
		FeatureFlags: []string{"activities"},
	}
	if !ent.Grants("activities") {
		t.Error("feature flag should grant")
	}
	if !ent.Grants("inventory") {
		t.Error("module flag should grant")
	}
	if ent.Grants("marketplace") {
		t.Error("ungranted name must not pass")
	}
}

func TestSubscriptionIsActive(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active no expiry", Subscription{Status: SubscriptionStatusActive}, true},
		{"active future expiry", Subscription{Status: SubscriptionStatusActive, ExpiresAt: &future}, true},
		{"active but expired", Subscription{Status: SubscriptionStatusActive, ExpiresAt: &past}, false},
		{"canceled", Subscription{Status: SubscriptionStatusCanceled}, false},
		{"past due", Subscription{Status: SubscriptionStatusPastDue}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidOrgType(t *testing.T) {
	for _, valid := range ValidOrgTypes {
		if !IsValidOrgType(valid) {
			t.Errorf("%s should be valid", valid)
		}
	}
	if IsValidOrgType("GARDEN_CLUB") {
		t.Error("unknown type must be invalid")
	}
}
