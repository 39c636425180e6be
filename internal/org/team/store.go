// Copyright (c) 2026 Vacaplan. All rights reserved.

package team

import "context"

// # Team Data Access

// Repository defines the data access contract for teams, memberships,
// and manager assignments.
type Repository interface {

	/*
		ListByCompany returns all live teams of one company, ordered by name.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - []*Team: Company teams
		  - error: Retrieval failures
	*/
	ListByCompany(context context.Context, companyID string) ([]*Team, error)

	/*
		FindByID retrieves a team by its UUID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Team: Hydrated entity
		  - error: ErrNotFound if missing or soft-deleted
	*/
	FindByID(context context.Context, id string) (*Team, error)

	/*
		Create persists a new team.

		Parameters:
		  - context: context.Context
		  - team: *Team

		Returns:
		  - error: Persistence failures (duplicate code within the
		    function surfaces as a DUPLICATE conflict)
	*/
	Create(context context.Context, team *Team) error

	/*
		Update modifies a team's name and code.

		Parameters:
		  - context: context.Context
		  - team: *Team

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, team *Team) error

	/*
		SoftDelete marks a team as deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	// # Membership Management

	/*
		ListMembers returns the active roster of a team.

		Parameters:
		  - context: context.Context
		  - teamID: string

		Returns:
		  - []*Membership: Active members with denormalized user fields
		  - error: Retrieval failures
	*/
	ListMembers(context context.Context, teamID string) ([]*Membership, error)

	/*
		AddMember creates an active membership row.

		Parameters:
		  - context: context.Context
		  - membership: *Membership (TeamID, UserID, IsPrimary)

		Returns:
		  - error: Persistence failures (an existing active pair surfaces
		    as a DUPLICATE conflict)
	*/
	AddMember(context context.Context, membership *Membership) error

	/*
		RemoveMember closes the active membership by stamping left_at.
		The row is retained for history.

		Parameters:
		  - context: context.Context
		  - teamID: string
		  - userID: string

		Returns:
		  - error: ErrNotFound when no active membership exists
	*/
	RemoveMember(context context.Context, teamID, userID string) error

	// # Manager Assignments

	/*
		ListManagers returns the managers assigned to a team.

		Parameters:
		  - context: context.Context
		  - teamID: string

		Returns:
		  - []*ManagerAssignment: Current assignments
		  - error: Retrieval failures
	*/
	ListManagers(context context.Context, teamID string) ([]*ManagerAssignment, error)

	/*
		AssignManager grants a manager authority over a team.

		Parameters:
		  - context: context.Context
		  - assignment: *ManagerAssignment

		Returns:
		  - error: Persistence failures (existing pair surfaces as a
		    DUPLICATE conflict)
	*/
	AssignManager(context context.Context, assignment *ManagerAssignment) error

	/*
		UnassignManager removes a manager's authority over a team.

		Parameters:
		  - context: context.Context
		  - teamID: string
		  - managerID: string

		Returns:
		  - error: ErrNotFound when the assignment does not exist
	*/
	UnassignManager(context context.Context, teamID, managerID string) error
}
