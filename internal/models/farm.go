// FarmPro API - Multi-Tenant Farm Management Platform
// Copyright 2026 DeepIntel Ltd
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepintel-ltd/farmpro-api

package models

import "time"

// Activity is a unit of farm work (planting, spraying, harvest) recorded
// against a farm within an organization.
type Activity struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	FarmID         string     `json:"farm_id"`
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Activity status values.
const (
	ActivityStatusPlanned    = "planned"
	ActivityStatusInProgress = "in_progress"
	ActivityStatusCompleted  = "completed"
	ActivityStatusCanceled   = "canceled"
)

// Order is a marketplace buy or sell order placed by an organization.
type Order struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Side           string    `json:"side"` // "buy" or "sell"
	Commodity      string    `json:"commodity"`
	QuantityKg     float64   `json:"quantity_kg"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Order status values.
const (
	OrderStatusOpen     = "open"
	OrderStatusFilled   = "filled"
	OrderStatusCanceled = "canceled"
)

// InventoryItem is a stock record (seed, fertilizer, produce) held by an
// organization, optionally located at a specific farm.
type InventoryItem struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	FarmID         string    `json:"farm_id,omitempty"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MediaObject is metadata for an uploaded file (field photos, documents).
// Binary storage is external; only the descriptor lives here.
type MediaObject struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	SizeBytes      int64     `json:"size_bytes"`
	StorageKey     string    `json:"storage_key"`
	UploadedBy     string    `json:"uploaded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// WeatherReport is the normalized response from the upstream weather provider.
type WeatherReport struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	TemperatureC  float64   `json:"temperature_c"`
	Humidity      float64   `json:"humidity"`
	WindSpeedKmh  float64   `json:"wind_speed_kmh"`
	Precipitation float64   `json:"precipitation_mm"`
	Condition     string    `json:"condition"`
	ObservedAt    time.Time `json:"observed_at"`
}
