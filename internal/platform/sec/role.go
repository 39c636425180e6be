// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted access within the account's own company
	RoleAdmin UserRole = "admin"

	// Can view and approve requests of users in managed teams
	RoleManager UserRole = "manager"

	// Default role for standard accounts
	RoleUser UserRole = "user"
)

// Valid reports whether the role is one of the three known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
