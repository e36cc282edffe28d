// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package entitlements

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/events"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// fakeStore counts lookups and serves subscriptions from a map.
type fakeStore struct {
	subs  map[string]*models.Subscription
	err   error
	calls atomic.Int64
}

func (f *fakeStore) GetActiveSubscription(_ context.Context, orgID string) (*models.Subscription, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[orgID]
	if !ok {
		return nil, database.ErrSubscriptionNotFound
	}
	return sub, nil
}

func testOrg(id string) *models.OrganizationSnapshot {
	return &models.OrganizationSnapshot{
		ID:       id,
		Type:     models.OrgTypeFarmOperation,
		PlanTier: models.PlanTierBasic,
		IsActive: true,
		Features: []string{"activities"},
	}
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	s := NewService(store, &config.EntitlementsConfig{CacheTTL: time.Minute})
	t.Cleanup(s.Close)
	return s
}

func TestResolveFromSubscription(t *testing.T) {
	store := &fakeStore{subs: map[string]*models.Subscription{
		"org-1": {
			OrganizationID: "org-1",
			PlanTier:       models.PlanTierStandard,
			Status:         models.SubscriptionStatusActive,
			FeatureFlags:   []string{"activities", "inventory"},
		},
	}}
	s := newTestService(t, store)

	ent, err := s.Resolve(context.Background(), testOrg("org-1"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ent.PlanTier != models.PlanTierStandard {
		t.Errorf("plan tier = %q, want %q", ent.PlanTier, models.PlanTierStandard)
	}
	if !ent.Grants("inventory") {
		t.Error("subscription feature not granted")
	}
	if ent.Grants("marketplace") {
		t.Error("ungranted feature reported as granted")
	}
}

func TestResolveCachesResults(t *testing.T) {
	store := &fakeStore{subs: map[string]*models.Subscription{
		"org-1": {OrganizationID: "org-1", PlanTier: models.PlanTierStandard},
	}}
	s := newTestService(t, store)

	for i := 0; i < 5; i++ {
		if _, err := s.Resolve(context.Background(), testOrg("org-1")); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if got := store.calls.Load(); got != 1 {
		t.Errorf("store lookups = %d, want 1", got)
	}
}

func TestResolveFallsBackToOrganizationFeatures(t *testing.T) {
	s := newTestService(t, &fakeStore{})

	ent, err := s.Resolve(context.Background(), testOrg("org-legacy"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ent.Grants("activities") {
		t.Error("organization feature not granted via fallback")
	}
	if ent.PlanTier != models.PlanTierBasic {
		t.Errorf("fallback plan tier = %q, want organization's %q", ent.PlanTier, models.PlanTierBasic)
	}
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	s := newTestService(t, &fakeStore{err: errors.New("store unavailable")})

	if _, err := s.Resolve(context.Background(), testOrg("org-1")); err == nil {
		t.Error("store error swallowed")
	}
}

func TestResolveNilOrganization(t *testing.T) {
	s := newTestService(t, &fakeStore{})

	if _, err := s.Resolve(context.Background(), nil); err == nil {
		t.Error("nil organization accepted")
	}
}

func TestInvalidateForcesRefresh(t *testing.T) {
	store := &fakeStore{subs: map[string]*models.Subscription{
		"org-1": {OrganizationID: "org-1", PlanTier: models.PlanTierBasic},
	}}
	s := newTestService(t, store)

	if _, err := s.Resolve(context.Background(), testOrg("org-1")); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	store.subs["org-1"].PlanTier = models.PlanTierEnterprise
	s.Invalidate("org-1")

	ent, err := s.Resolve(context.Background(), testOrg("org-1"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ent.PlanTier != models.PlanTierEnterprise {
		t.Errorf("plan tier after invalidation = %q, want %q", ent.PlanTier, models.PlanTierEnterprise)
	}
	if got := store.calls.Load(); got != 2 {
		t.Errorf("store lookups = %d, want 2", got)
	}
}

func TestInvalidatorEvictsOnSubscriptionEvent(t *testing.T) {
	store := &fakeStore{subs: map[string]*models.Subscription{
		"org-1": {OrganizationID: "org-1", PlanTier: models.PlanTierBasic},
	}}
	s := newTestService(t, store)

	bus := events.NewBus()
	defer bus.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inv := NewInvalidator(s, bus)
	done := make(chan error, 1)
	go func() { done <- inv.Serve(ctx) }()

	// Give the subscriber time to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	if _, err := s.Resolve(ctx, testOrg("org-1")); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if err := bus.PublishSubscriptionUpdated(ctx, "org-1", models.PlanTierEnterprise); err != nil {
		t.Fatalf("PublishSubscriptionUpdated() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.cached("org-1") == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s.cached("org-1") != nil {
		t.Error("cache entry not evicted after subscription event")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("invalidator did not stop on context cancellation")
	}
}
