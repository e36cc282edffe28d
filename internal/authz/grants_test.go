// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"context"
	"testing"
)

func TestNormalizeRoleName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Farm Manager", "farm_manager"},
		{"farm manager", "farm_manager"},
		{"FARM  MANAGER", "farm_manager"},
		{"  trader ", "trader"},
		{"org_admin", "org_admin"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRoleName(tt.in); got != tt.want {
			t.Errorf("NormalizeRoleName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleGrantsBuiltinCatalog(t *testing.T) {
	grants := newTestGrants(t)
	ctx := context.Background()

	tests := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{"Farm Manager", "activity", "read", true},
		{"Farm Manager", "activity", "delete", true},
		{"Farm Manager", "role", "create", false},
		{"farm_viewer", "activity", "read", true},
		{"farm_viewer", "activity", "create", false},
		// farm_worker inherits farm_viewer's read access.
		{"Farm Worker", "order", "read", true},
		{"Farm Worker", "activity", "create", true},
		{"Trader", "listing", "create", true},
		{"Trader", "activity", "create", false},
		{"Org Admin", "role", "create", true},
		{"Org Admin", "invoice", "read", true},
		// org_admin inherits the whole farm_manager surface.
		{"Org Admin", "activity", "delete", true},
		{"Logistics Coordinator", "shipment", "update", true},
		{"Logistics Coordinator", "order", "create", false},
		{"nonexistent_role", "activity", "read", false},
	}
	for _, tt := range tests {
		got, err := grants.RoleGrants(ctx, tt.role, tt.resource, tt.action)
		if err != nil {
			t.Fatalf("RoleGrants(%q, %q, %q) error = %v", tt.role, tt.resource, tt.action, err)
		}
		if got != tt.want {
			t.Errorf("RoleGrants(%q, %q, %q) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}
}

func TestRoleGrantsCacheServesRepeatLookups(t *testing.T) {
	grants := newTestGrants(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := grants.RoleGrants(ctx, "Farm Manager", "inventory", "update")
		if err != nil {
			t.Fatalf("RoleGrants() error = %v", err)
		}
		if !got {
			t.Fatal("expected grant on every lookup")
		}
	}
}

func TestAddGrantInvalidatesCache(t *testing.T) {
	grants := newTestGrants(t)
	ctx := context.Background()

	if got, _ := grants.RoleGrants(ctx, "auditor", "report", "read"); got {
		t.Fatal("unexpected grant before policy addition")
	}

	if err := grants.AddGrant("Auditor", "report", "read"); err != nil {
		t.Fatalf("AddGrant() error = %v", err)
	}

	got, err := grants.RoleGrants(ctx, "auditor", "report", "read")
	if err != nil {
		t.Fatalf("RoleGrants() error = %v", err)
	}
	if !got {
		t.Error("grant not visible after AddGrant")
	}
}

func TestRemoveGrant(t *testing.T) {
	grants := newTestGrants(t)
	ctx := context.Background()

	if err := grants.RemoveGrant("billing_manager", "invoice", "read"); err != nil {
		t.Fatalf("RemoveGrant() error = %v", err)
	}
	if got, _ := grants.RoleGrants(ctx, "billing_manager", "invoice", "read"); got {
		t.Error("grant still visible after RemoveGrant")
	}
}

func TestRoleInheritance(t *testing.T) {
	grants := newTestGrants(t)
	ctx := context.Background()

	if err := grants.AddRoleInheritance("Junior Trader", "farm_viewer"); err != nil {
		t.Fatalf("AddRoleInheritance() error = %v", err)
	}
	got, err := grants.RoleGrants(ctx, "junior trader", "activity", "read")
	if err != nil {
		t.Fatalf("RoleGrants() error = %v", err)
	}
	if !got {
		t.Error("inherited grant not visible")
	}
}

func TestRoleCatalogListsBuiltinRoles(t *testing.T) {
	grants := newTestGrants(t)

	names := grants.RoleCatalog()
	want := map[string]bool{
		"farm_viewer": false, "farm_worker": false, "farm_manager": false,
		"agronomist": false, "trader": false, "logistics_coordinator": false,
		"billing_manager": false, "org_admin": false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("role %q missing from catalog", name)
		}
	}
}
