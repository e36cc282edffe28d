// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicOrganizationUpdated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := bus.PublishOrganizationUpdated(ctx, "org-1"); err != nil {
		t.Fatalf("PublishOrganizationUpdated() error = %v", err)
	}

	select {
	case msg := <-messages:
		var event OrganizationUpdated
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if event.OrganizationID != "org-1" {
			t.Errorf("organization id = %q, want org-1", event.OrganizationID)
		}
		if event.UpdatedAt.IsZero() {
			t.Error("event timestamp is zero")
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusSubscriptionUpdatedFanOut(t *testing.T) {
	bus := NewBus()
	defer bus.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, TopicSubscriptionUpdated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	second, err := bus.Subscribe(ctx, TopicSubscriptionUpdated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := bus.PublishSubscriptionUpdated(ctx, "org-1", "STANDARD"); err != nil {
		t.Fatalf("PublishSubscriptionUpdated() error = %v", err)
	}

	receive := func(name string, messages <-chan *message.Message) {
		t.Helper()
		select {
		case msg := <-messages:
			var event SubscriptionUpdated
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				t.Fatalf("%s: failed to decode event: %v", name, err)
			}
			if event.OrganizationID != "org-1" || event.PlanTier != "STANDARD" {
				t.Errorf("%s: event = %+v", name, event)
			}
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("%s: event not delivered", name)
		}
	}

	receive("first subscriber", first)
	receive("second subscriber", second)
}

func TestBusSubscribeAfterCloseFails(t *testing.T) {
	bus := NewBus()
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := bus.Subscribe(context.Background(), TopicOrganizationUpdated); err == nil {
		t.Error("Subscribe() succeeded on a closed bus")
	}
}
