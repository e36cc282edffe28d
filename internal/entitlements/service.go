// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package entitlements resolves the effective subscription entitlement for
// an organization, with a short TTL cache in front of the store.
//
// Organizations without an active subscription fall back to the feature
// list stored on the organization record itself. The fallback exists for
// legacy tenants migrated before subscriptions were introduced; every
// fallback resolution is logged so the remaining tenants can be migrated.
package entitlements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deepintel-ltd/farmpro-api/internal/config"
	"github.com/deepintel-ltd/farmpro-api/internal/database"
	"github.com/deepintel-ltd/farmpro-api/internal/logging"
	"github.com/deepintel-ltd/farmpro-api/internal/models"
)

// Store is the subscription lookup the service depends on.
type Store interface {
	GetActiveSubscription(ctx context.Context, orgID string) (*models.Subscription, error)
}

// Service resolves and caches entitlements. Implements the authorization
// pipeline's EntitlementSource.
type Service struct {
	store Store
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]*cacheEntry

	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	ent       *models.SubscriptionEntitlement
	expiresAt time.Time
}

// NewService creates the entitlement resolver.
func NewService(store Store, cfg *config.EntitlementsConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	s := &Service{
		store:    store,
		ttl:      ttl,
		cache:    make(map[string]*cacheEntry),
		stopChan: make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Resolve returns the organization's effective entitlement. Store errors
// other than a missing subscription propagate so the caller fails closed.
func (s *Service) Resolve(ctx context.Context, org *models.OrganizationSnapshot) (*models.SubscriptionEntitlement, error) {
	if org == nil {
		return nil, errors.New("nil organization")
	}

	if ent := s.cached(org.ID); ent != nil {
		return ent, nil
	}

	sub, err := s.store.GetActiveSubscription(ctx, org.ID)
	switch {
	case err == nil:
		ent := sub.Entitlement()
		s.put(org.ID, ent)
		return ent, nil

	case errors.Is(err, database.ErrSubscriptionNotFound):
		// Legacy tenant without a subscription record.
		logging.Ctx(ctx).Warn().
			Str("org_id", org.ID).
			Msg("No active subscription, falling back to organization feature list")
		ent := &models.SubscriptionEntitlement{
			OrganizationID: org.ID,
			PlanTier:       org.PlanTier,
			FeatureFlags:   org.Features,
		}
		s.put(org.ID, ent)
		return ent, nil

	default:
		return nil, fmt.Errorf("failed to resolve entitlement for %s: %w", org.ID, err)
	}
}

// Invalidate drops the cached entitlement for one organization.
func (s *Service) Invalidate(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, orgID)
}

// InvalidateAll drops every cached entitlement.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cacheEntry)
}

// Close stops the cache janitor. Idempotent.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Service) cached(orgID string) *models.SubscriptionEntitlement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[orgID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.ent
}

func (s *Service) put(orgID string, ent *models.SubscriptionEntitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[orgID] = &cacheEntry{
		ent:       ent,
		expiresAt: time.Now().Add(s.ttl),
	}
}

func (s *Service) janitor() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for orgID, entry := range s.cache {
				if now.After(entry.expiresAt) {
					delete(s.cache, orgID)
				}
			}
			s.mu.Unlock()
		}
	}
}
