// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
grants.go - Role Grant Layer (Casbin)

The grant layer answers exactly one question: does a role NAME grant a
"resource:action" pair? Scope coverage (which of the principal's roles
apply to this request) is evaluated by the pipeline, not here.

The RBAC model and the built-in role catalog ship embedded so the binary
is self-contained; operators may override both with files for custom
role vocabularies.
*/

package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/deepintel-ltd/farmpro-api/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// GrantEnforcer wraps the Casbin enforcer behind the role-grant question.
type GrantEnforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *grantCache
	fromFile bool
}

// NewGrantEnforcer builds the grant layer from configuration. With empty
// paths the embedded model and role catalog are used.
func NewGrantEnforcer(cfg *config.AuthzConfig) (*GrantEnforcer, error) {
	var m model.Model
	var err error

	if cfg.GrantModelPath != "" && fileExists(cfg.GrantModelPath) {
		m, err = model.NewModelFromFile(cfg.GrantModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load grant model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	fromFile := cfg.GrantPolicyPath != "" && fileExists(cfg.GrantPolicyPath)

	if fromFile {
		adapter := fileadapter.NewAdapter(cfg.GrantPolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create grant enforcer: %w", err)
	}

	g := &GrantEnforcer{
		enforcer: enforcer,
		fromFile: fromFile,
	}
	if cfg.DecisionCacheEnabled {
		g.cache = newGrantCache(cfg.DecisionCacheTTL)
	}
	return g, nil
}

// loadEmbeddedPolicy parses the embedded policy CSV line by line.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		ptype := parts[0]
		rule := parts[1:]

		switch ptype {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", rule, err)
				}
			}
		case "g":
			if len(rule) >= 2 {
				if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
				}
			}
		}
	}
	return nil
}

// NormalizeRoleName canonicalizes a display role name for policy lookup:
// lowercased, spaces collapsed to underscores. "Farm Manager" and
// "farm manager" resolve to the same policy subject.
func NormalizeRoleName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "_")
}

// RoleGrants reports whether the named role grants the resource:action
// pair. Results are cached per normalized role name.
func (g *GrantEnforcer) RoleGrants(ctx context.Context, roleName, resource, action string) (bool, error) {
	subject := NormalizeRoleName(roleName)

	if g.cache != nil {
		if allowed, ok := g.cache.get(subject, resource, action); ok {
			RecordGrantCacheHit()
			return allowed, nil
		}
		RecordGrantCacheMiss()
	}

	allowed, err := g.enforcer.Enforce(subject, resource, action)
	if err != nil {
		return false, fmt.Errorf("grant enforcement failed: %w", err)
	}

	if g.cache != nil {
		g.cache.set(subject, resource, action, allowed)
	}
	return allowed, nil
}

// AddGrant adds a policy rule granting resource:action to a role name.
func (g *GrantEnforcer) AddGrant(roleName, resource, action string) error {
	if _, err := g.enforcer.AddPolicy(NormalizeRoleName(roleName), resource, action); err != nil {
		return fmt.Errorf("failed to add grant: %w", err)
	}
	if g.cache != nil {
		g.cache.clear()
	}
	return nil
}

// RemoveGrant removes a policy rule.
func (g *GrantEnforcer) RemoveGrant(roleName, resource, action string) error {
	if _, err := g.enforcer.RemovePolicy(NormalizeRoleName(roleName), resource, action); err != nil {
		return fmt.Errorf("failed to remove grant: %w", err)
	}
	if g.cache != nil {
		g.cache.clear()
	}
	return nil
}

// AddRoleInheritance makes child inherit every grant of parent.
func (g *GrantEnforcer) AddRoleInheritance(child, parent string) error {
	if _, err := g.enforcer.AddGroupingPolicy(NormalizeRoleName(child), NormalizeRoleName(parent)); err != nil {
		return fmt.Errorf("failed to add role inheritance: %w", err)
	}
	if g.cache != nil {
		g.cache.clear()
	}
	return nil
}

// GrantsForRole lists the direct policy rules for a role name.
func (g *GrantEnforcer) GrantsForRole(roleName string) [][]string {
	//nolint:errcheck // GetFilteredPolicy only fails on a nil enforcer
	rules, _ := g.enforcer.GetFilteredPolicy(0, NormalizeRoleName(roleName))
	return rules
}

// RoleCatalog lists the distinct role names in the policy, sorted order is
// the caller's concern.
func (g *GrantEnforcer) RoleCatalog() []string {
	//nolint:errcheck // GetPolicy only fails on a nil enforcer
	rules, _ := g.enforcer.GetPolicy()
	seen := make(map[string]bool)
	var names []string
	for _, rule := range rules {
		if len(rule) == 0 || seen[rule[0]] {
			continue
		}
		seen[rule[0]] = true
		names = append(names, rule[0])
	}
	return names
}

// Close releases the grant layer's resources.
func (g *GrantEnforcer) Close() {
	if g.cache != nil {
		g.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
