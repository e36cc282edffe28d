// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

/*
audit.go - Authorization Decision Audit Trail

Records pipeline decisions asynchronously for compliance and forensics.
Recording is non-blocking: events are dropped (and counted) when the
buffer is full, so the audit trail can never stall the request path.
Impersonated requests are always recorded regardless of the allowed-event
setting.
*/

package authz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepintel-ltd/farmpro-api/internal/logging"
)

// AuditEvent captures the complete context of one authorization decision.
type AuditEvent struct {
	// ID uniquely identifies the audit event.
	ID string `json:"id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RequestID links the event to its HTTP request.
	RequestID string `json:"request_id,omitempty"`

	// ActorID and ActorEmail identify the principal.
	ActorID    string `json:"actor_id"`
	ActorEmail string `json:"actor_email,omitempty"`

	// OrganizationID is the resolved request scope, when one exists.
	OrganizationID string `json:"organization_id,omitempty"`

	// Impersonation marks admin tenant-override requests.
	Impersonation bool `json:"impersonation,omitempty"`

	// Route is the method + pattern being accessed.
	Route string `json:"route"`

	// Allowed is the decision outcome.
	Allowed bool `json:"allowed"`

	// Reason is the denial reason code. Empty when allowed.
	Reason string `json:"reason,omitempty"`

	// Duration is pipeline evaluation time.
	Duration time.Duration `json:"duration_ns"`
}

// AuditConfig controls the audit trail.
type AuditConfig struct {
	// Enabled turns decision auditing on.
	Enabled bool

	// LogAllowed records allowed decisions too. Denials and impersonated
	// requests are always recorded.
	LogAllowed bool

	// BufferSize is the async buffer capacity.
	BufferSize int
}

// DefaultAuditConfig returns production defaults.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		LogAllowed: false,
		BufferSize: 1000,
	}
}

// AuditLogger writes authorization decisions asynchronously.
type AuditLogger struct {
	config   *AuditConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates the audit trail writer.
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}

	return al
}

// Record queues an authorization decision. Non-blocking: the event is
// dropped with a warning when the buffer is full.
func (al *AuditLogger) Record(event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}

	// Allowed decisions are sampled out unless configured or impersonated.
	if event.Allowed && !al.config.LogAllowed && !event.Impersonation {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case al.events <- event:
	default:
		RecordAuditDropped()
		logging.Warn().
			Str("actor_id", event.ActorID).
			Str("route", event.Route).
			Msg("Audit buffer full, event dropped")
	}
}

func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

// drainEvents flushes whatever is still buffered at shutdown.
func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Allowed {
		// Denials are warnings for visibility.
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "authz_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("actor_id", event.ActorID).
		Str("route", event.Route).
		Bool("allowed", event.Allowed).
		Dur("duration", event.Duration)

	if event.ActorEmail != "" {
		logEvent = logEvent.Str("actor_email", event.ActorEmail)
	}
	if event.OrganizationID != "" {
		logEvent = logEvent.Str("organization_id", event.OrganizationID)
	}
	if event.Impersonation {
		logEvent = logEvent.Bool("impersonation", true)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}

	if event.Allowed {
		logEvent.Msg("Authorization allowed")
	} else {
		logEvent.Msg("Authorization denied")
	}
}

// Close stops the audit logger after flushing buffered events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}
	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats reports buffer usage for health surfaces.
func (al *AuditLogger) Stats() AuditStats {
	if al == nil {
		return AuditStats{}
	}
	return AuditStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		LogAllowed: al.config.LogAllowed,
	}
}

// AuditStats describes the audit trail's runtime state.
type AuditStats struct {
	BufferSize int  `json:"buffer_size"`
	BufferUsed int  `json:"buffer_used"`
	Enabled    bool `json:"enabled"`
	LogAllowed bool `json:"log_allowed"`
}
