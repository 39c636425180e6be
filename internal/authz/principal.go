// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package authz is the central permission oracle.

Every core operation calls into the Kernel before touching a store. The
Kernel produces two things: an allow/deny decision and a Scope predicate
that the store layer must AND into its queries. No query may run without a
Scope; tenant isolation depends on it.

# Trust model

The Principal is rebuilt on every request from the identity store, not from
token claims. A token issued to a manager who has since been demoted
authorizes at the reduced level.
*/
package authz

import (
	"slices"

	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// Principal is the authenticated actor performing an operation.
//
// It is resolved once per request after token verification: the role and
// managed-team set come from a fresh identity-store read, never from the
// token's claims.
type Principal struct {
	UserID         string
	CompanyID      string
	Role           sec.UserRole
	ManagedTeamIDs []string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == sec.RoleAdmin }

// IsManager reports whether the principal holds the manager role.
func (p Principal) IsManager() bool { return p.Role == sec.RoleManager }

// Manages reports whether the principal manages the given team.
func (p Principal) Manages(teamID string) bool {
	return slices.Contains(p.ManagedTeamIDs, teamID)
}

// Scope is the row filter a store query must apply on behalf of a principal.
//
// CompanyID is always set; no query may cross it. TeamIDs, when non-nil,
// restricts rows to users with an active membership in one of the teams.
// UserID, when non-nil, restricts rows to that single owner.
type Scope struct {
	CompanyID string
	TeamIDs   []string
	UserID    *string
}

// Unrestricted reports whether the scope limits nothing beyond the tenant.
func (s Scope) Unrestricted() bool {
	return s.TeamIDs == nil && s.UserID == nil
}
