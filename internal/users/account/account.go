// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package account manages user identities, their organizational placement,
and the invite flow that creates them.

Users exist only inside a company. They are born from an accepted invite
(or the admin seed), soft-deleted rather than removed, and carry the role
that drives every authorization decision.

# Core Responsibility

  - Identity: Defines the [User] entity and its lifecycle.
  - Placement: Primary function plus team memberships.
  - Invites: Admin-issued [Invite] records; the raw token travels only
    in the invitation email.

Principal resolution for the HTTP layer lives here too: role and managed
teams are re-read per request, so a role change takes effect on the next
call rather than at token expiry.
*/
package account

import (
	"time"

	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// # Core Entities

// User represents one person inside a company.
type User struct {
	ID            string       `json:"id"` // UUIDv7
	CompanyID     string       `json:"company_id"`
	FunctionID    *string      `json:"function_id,omitempty"`
	Email         string       `json:"email"`
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	PasswordHash  string       `json:"-"`
	Role          sec.UserRole `json:"role"`
	IsActive      bool         `json:"is_active"`
	EmailVerified bool         `json:"email_verified"`
	LastLoginAt   *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	DeletedAt     *time.Time   `json:"-"`
}

// FullName returns the display name used in exports and rosters.
func (user *User) FullName() string {
	return user.FirstName + " " + user.LastName
}

// Invite is an admin-issued, single-use account creation grant. Only the
// SHA-256 digest of the token is persisted.
type Invite struct {
	ID         string       `json:"id"` // UUIDv7
	CompanyID  string       `json:"company_id"`
	FunctionID *string      `json:"function_id,omitempty"`
	TeamIDs    []string     `json:"team_ids,omitempty"`
	Email      string       `json:"email"`
	Role       sec.UserRole `json:"role"`
	InvitedBy  string       `json:"invited_by"`
	TokenHash  string       `json:"-"`
	ExpiresAt  time.Time    `json:"expires_at"`
	UsedAt     *time.Time   `json:"used_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Usable reports whether the invite can still create an account.
func (invite *Invite) Usable(now time.Time) bool {
	return invite.UsedAt == nil && now.Before(invite.ExpiresAt)
}

// # Search & Filtering

// Filter holds parameters for listing users.
type Filter struct {
	Query      string       `json:"q"`    // Matches name or email
	Role       sec.UserRole `json:"role"` // Empty means all roles
	FunctionID string       `json:"function_id"`
	TeamID     string       `json:"team_id"`
	IsActive   *bool        `json:"is_active"`
}

// # Field Identifiers

const (
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldRole      = "role"
	FieldPassword  = "password"
)
