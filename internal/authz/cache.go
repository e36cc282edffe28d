// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package authz

import (
	"sync"
	"time"
)

// grantCache caches role grant decisions. Grants change rarely (policy
// edits), so a short TTL keeps the enforcer off the request hot path
// without risking long-lived stale denials.
type grantCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]*grantCacheItem
	stopChan chan struct{}
	stopOnce sync.Once
}

type grantCacheItem struct {
	allowed   bool
	expiresAt time.Time
}

func newGrantCache(ttl time.Duration) *grantCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &grantCache{
		ttl:      ttl,
		items:    make(map[string]*grantCacheItem),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *grantCache) key(role, resource, action string) string {
	return role + ":" + resource + ":" + action
}

func (c *grantCache) get(role, resource, action string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[c.key(role, resource, action)]
	if !ok {
		return false, false
	}
	if time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *grantCache) set(role, resource, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[c.key(role, resource, action)] = &grantCacheItem{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// clear drops every cached decision. Called on any policy mutation; grant
// edits are rare enough that a full flush is cheaper than tracking keys.
func (c *grantCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*grantCacheItem)
}

func (c *grantCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop halts the cleanup goroutine. Idempotent.
func (c *grantCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
