// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package team manages teams, their memberships, and manager assignments.

Teams belong to a function and transitively to a company. Membership
history is retained: leaving a team sets left_at instead of deleting the
row, so historical vacation requests keep their organizational context.

# Core Responsibility

  - Organization: Defines the [Team] entity and its code.
  - Membership: Manages [Membership] rows with primary flags and
    historical retention.
  - Management: Tracks [ManagerAssignment] rows; these drive the
    manager scope used across vacation approvals.
*/
package team

import "time"

// # Core Entities

// Team represents a working group within a function.
type Team struct {
	ID         string     `json:"id"` // UUIDv7
	CompanyID  string     `json:"company_id"`
	FunctionID string     `json:"function_id"`
	Name       string     `json:"name"`
	Code       string     `json:"code"` // Short code, unique within the function
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

// Membership represents a user's affiliation with a team. Active rows
// satisfy LeftAt == nil; at most one active row exists per (user, team).
type Membership struct {
	TeamID    string     `json:"team_id"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`      // Denormalized for rosters
	FirstName string     `json:"first_name"` // Denormalized for rosters
	LastName  string     `json:"last_name"`  // Denormalized for rosters
	IsPrimary bool       `json:"is_primary"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}

// ManagerAssignment grants a manager decision authority over one team.
type ManagerAssignment struct {
	TeamID     string    `json:"team_id"`
	ManagerID  string    `json:"manager_id"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// # Field Identifiers

const (
	FieldName   = "name"
	FieldCode   = "code"
	FieldUserID = "user_id"
)
