// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package auth implements the session lifecycle: login, token refresh with
rotation, logout, invite acceptance, and the password flows.

Sessions are a pair of credentials. The short-lived access token is a
signed HS256 JWT carried in the Authorization header; the long-lived
refresh token is opaque, stored hashed, and rotated on every use. A
revoked refresh token presented again is treated as theft evidence and
ends every session of the account.

# Core Responsibility

  - Sessions: Issues and rotates the access/refresh pair.
  - Lockout: Repeated failed verifications arm a latch enforced before
    any credential check.
  - Passwords: Reset and change flows, both ending all other sessions.
*/
package auth

import (
	"time"

	"github.com/vacaplan/vacaplan/internal/users/account"
)

// # Core Entities

// RefreshTokenRecord is one stored refresh credential. Only the SHA-256
// digest of the token is persisted; RevokedAt is kept (not deleted) so a
// replayed token is still recognizable.
type RefreshTokenRecord struct {
	ID           string     `json:"id"` // UUIDv7
	UserID       string     `json:"user_id"`
	TokenHash    string     `json:"-"`
	ExpiresAt    time.Time  `json:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	IP           string     `json:"ip,omitempty"`
	IsRememberMe bool       `json:"is_remember_me"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Live reports whether the record can still mint access tokens.
func (record *RefreshTokenRecord) Live(now time.Time) bool {
	return record.RevokedAt == nil && now.Before(record.ExpiresAt)
}

// PasswordResetToken is one stored single-use reset grant.
type PasswordResetToken struct {
	ID        string     `json:"id"` // UUIDv7
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Usable reports whether the reset grant can still be redeemed.
func (token *PasswordResetToken) Usable(now time.Time) bool {
	return token.UsedAt == nil && now.Before(token.ExpiresAt)
}

// Session is the credential pair handed to a client after login, invite
// acceptance, or refresh. RefreshToken carries the raw opaque value and
// leaves the process only inside the response cookie.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"-"`
	ExpiresIn    int           `json:"expires_in"` // Access token lifetime in seconds
	RememberMe   bool          `json:"-"`
	User         *account.User `json:"user"`
}

// RequestMeta carries the client network context attached to sessions
// and audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// # Field Identifiers

const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldToken    = "token"
)
