// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package company manages tenants and their policy settings.

A company is the root of every tenant subtree: functions, teams, users,
vacation periods, and audit events all hang off one. Nothing in the API
ever crosses from one company into another.

# Core Responsibility

  - Tenancy: Defines the [Company] entity, its slug, and soft deletion.
  - Policy: The [Settings] knobs that steer vacation accounting.

Slugs are generated once at creation from the company name and are
stable thereafter; they identify the tenant in support tooling.
*/
package company

import "time"

// # Policy Settings

// Settings holds per-tenant policy knobs, persisted as JSONB.
type Settings struct {
	// AllowNegativeBalance permits approvals that exceed the remaining
	// allocation. Off by default: exceeding days fail the approval.
	AllowNegativeBalance bool `json:"allow_negative_balance"`

	// Holidays are company-wide non-working days (ISO dates). They are
	// informational for planners; business-day counting stays weekday
	// based so a request's cost does not change when the list does.
	Holidays []string `json:"holidays,omitempty"`

	// DefaultAnnualDays seeds new allocations when none is configured.
	DefaultAnnualDays int `json:"default_annual_days"`
}

// DefaultSettings are applied to companies created without explicit
// policy.
func DefaultSettings() Settings {
	return Settings{DefaultAnnualDays: 25}
}

// # Core Entities

// Company represents one tenant.
type Company struct {
	ID        string     `json:"id"` // UUIDv7
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Domain    *string    `json:"domain,omitempty"` // Mail domain, informational
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// # Field Identifiers

const (
	FieldName   = "name"
	FieldDomain = "domain"
)
