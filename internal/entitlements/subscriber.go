// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package entitlements

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"

	"github.com/deepintel-ltd/farmpro-api/internal/events"
	"github.com/deepintel-ltd/farmpro-api/internal/logging"
)

// Invalidator evicts cached entitlements when organization or
// subscription mutations are published on the bus. Runs until ctx is
// canceled; intended to live under the supervisor tree.
type Invalidator struct {
	service *Service
	bus     *events.Bus
}

// NewInvalidator creates the cache invalidation subscriber.
func NewInvalidator(service *Service, bus *events.Bus) *Invalidator {
	return &Invalidator{service: service, bus: bus}
}

// Serve consumes mutation events until ctx is canceled.
func (inv *Invalidator) Serve(ctx context.Context) error {
	orgUpdates, err := inv.bus.Subscribe(ctx, events.TopicOrganizationUpdated)
	if err != nil {
		return err
	}
	subUpdates, err := inv.bus.Subscribe(ctx, events.TopicSubscriptionUpdated)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-orgUpdates:
			if !ok {
				return nil
			}
			inv.handleOrganizationUpdated(msg)
		case msg, ok := <-subUpdates:
			if !ok {
				return nil
			}
			inv.handleSubscriptionUpdated(msg)
		}
	}
}

func (inv *Invalidator) handleOrganizationUpdated(msg *message.Message) {
	defer msg.Ack()

	var event events.OrganizationUpdated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).
			Msg("Failed to decode organization update event")
		return
	}
	inv.service.Invalidate(event.OrganizationID)
}

func (inv *Invalidator) handleSubscriptionUpdated(msg *message.Message) {
	defer msg.Ack()

	var event events.SubscriptionUpdated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).
			Msg("Failed to decode subscription update event")
		return
	}
	inv.service.Invalidate(event.OrganizationID)
}
