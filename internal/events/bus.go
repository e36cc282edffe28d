// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

// Package events is the in-process event bus. Organization and
// subscription mutations are published here so caches (entitlements,
// org snapshots) can invalidate without polling the store.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
)

// Topics.
const (
	TopicOrganizationUpdated = "organization.updated"
	TopicSubscriptionUpdated = "subscription.updated"
)

// OrganizationUpdated is published after any organization mutation
// (modules, suspension, profile).
type OrganizationUpdated struct {
	OrganizationID string    `json:"organization_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubscriptionUpdated is published after any subscription mutation.
type SubscriptionUpdated struct {
	OrganizationID string    `json:"organization_id"`
	PlanTier       string    `json:"plan_tier,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Bus wraps the in-process pub/sub. Every subscriber of a topic receives
// every message (fan-out).
type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus creates the bus. Buffered output channels keep slow subscribers
// from stalling publishers.
func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, NewLoggerAdapter()),
	}
}

// PublishOrganizationUpdated announces an organization mutation.
func (b *Bus) PublishOrganizationUpdated(ctx context.Context, orgID string) error {
	return b.publish(ctx, TopicOrganizationUpdated, OrganizationUpdated{
		OrganizationID: orgID,
		UpdatedAt:      time.Now().UTC(),
	})
}

// PublishSubscriptionUpdated announces a subscription mutation.
func (b *Bus) PublishSubscriptionUpdated(ctx context.Context, orgID, planTier string) error {
	return b.publish(ctx, TopicSubscriptionUpdated, SubscriptionUpdated{
		OrganizationID: orgID,
		PlanTier:       planTier,
		UpdatedAt:      time.Now().UTC(),
	})
}

func (b *Bus) publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream for a topic. The stream closes when
// ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return messages, nil
}

// Close shuts down the bus and closes all subscriber streams.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
