// Copyright (c) 2026 Vacaplan. All rights reserved.

package account

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/authz"
)

// # Identity Data Access

// Repository defines the data access contract for users and invites.
type Repository interface {

	/*
		List returns a scoped, filtered, paginated slice of users and the
		total count. The scope is ANDed into the query: managers see their
		managed teams plus themselves, plain users only themselves.

		Parameters:
		  - context: context.Context
		  - scope: authz.Scope (Emitted by the authorization kernel)
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Matching users
		  - int: Total record count
		  - error: Retrieval failures
	*/
	List(context context.Context, scope authz.Scope, filter Filter, limit, offset int) ([]*User, int, error)

	/*
		FindByID retrieves a user by UUID, soft-deleted rows excluded.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound if missing or deleted
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail retrieves an active, non-deleted user by email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound if missing, inactive, or deleted
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a new user. Used by the admin seed; invite-born
		users go through CreateFromInvite.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures (duplicate email surfaces as a
		    DUPLICATE conflict)
	*/
	Create(context context.Context, user *User) error

	/*
		Update modifies profile fields, role, placement, and active flag.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces the stored hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - passwordHash: string (Encoded argon2id record)

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, passwordHash string) error

	/*
		TouchLastLogin stamps last_login_at with the database clock.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	TouchLastLogin(context context.Context, userID string) error

	/*
		SoftDeleteUser deactivates a user and revokes all their refresh
		tokens in one transaction. The record callback appends the audit
		row inside the same transaction.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - record: func(pgx.Tx) error (Audit append, same transaction)

		Returns:
		  - error: Persistence failures; the transaction rolls back
	*/
	SoftDeleteUser(context context.Context, userID string, record func(pgx.Tx) error) error

	/*
		TeamIDs returns the team identifiers of a user's active
		memberships.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []string: Active team ids
		  - error: Retrieval failures
	*/
	TeamIDs(context context.Context, userID string) ([]string, error)

	/*
		ManagedTeamIDs returns the team identifiers a user manages.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []string: Managed team ids
		  - error: Retrieval failures
	*/
	ManagedTeamIDs(context context.Context, userID string) ([]string, error)

	// # Invite Management

	/*
		CreateInvite persists a new invite with its token digest.

		Parameters:
		  - context: context.Context
		  - invite: *Invite (TokenHash already computed)

		Returns:
		  - error: Persistence failures
	*/
	CreateInvite(context context.Context, invite *Invite) error

	/*
		ListInvites returns a company's open and used invites, newest
		first.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - []*Invite: Invites
		  - error: Retrieval failures
	*/
	ListInvites(context context.Context, companyID string) ([]*Invite, error)

	/*
		FindInviteByTokenHash retrieves an invite by its token digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string (SHA-256 hex)

		Returns:
		  - *Invite: Hydrated entity
		  - error: ErrNotFound if no such digest exists
	*/
	FindInviteByTokenHash(context context.Context, tokenHash string) (*Invite, error)

	/*
		DeleteInvite removes an unused invite.

		Parameters:
		  - context: context.Context
		  - companyID: string (Tenant boundary)
		  - id: string

		Returns:
		  - error: ErrNotFound if missing or already used
	*/
	DeleteInvite(context context.Context, companyID, id string) error

	/*
		CreateFromInvite creates the user, their team memberships, and
		marks the invite used in one transaction. The record callback
		appends the audit rows inside the same transaction.

		Parameters:
		  - context: context.Context
		  - user: *User (Built from the invite)
		  - invite: *Invite
		  - record: func(pgx.Tx) error

		Returns:
		  - error: Persistence failures; the transaction rolls back and
		    the invite stays usable
	*/
	CreateFromInvite(context context.Context, user *User, invite *Invite, record func(pgx.Tx) error) error
}
