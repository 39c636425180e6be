// Copyright (c) 2026 Vacaplan. All rights reserved.

package auth

import "context"

// # Session Data Access

// Repository defines the data access contract for refresh tokens and
// password reset grants.
type Repository interface {

	/*
		CreateRefreshToken persists a new refresh credential.

		Parameters:
		  - context: context.Context
		  - record: *RefreshTokenRecord (TokenHash already computed)

		Returns:
		  - error: Persistence failures
	*/
	CreateRefreshToken(context context.Context, record *RefreshTokenRecord) error

	/*
		FindRefreshByHash retrieves a refresh credential by its digest.
		Revoked and expired rows are returned too; replay detection
		depends on seeing them.

		Parameters:
		  - context: context.Context
		  - tokenHash: string (SHA-256 hex)

		Returns:
		  - *RefreshTokenRecord: Hydrated entity
		  - error: ErrNotFound if no such digest exists
	*/
	FindRefreshByHash(context context.Context, tokenHash string) (*RefreshTokenRecord, error)

	/*
		Rotate revokes the spent credential and persists its successor in
		one transaction, so a crash can never leave two live tokens from
		one refresh call.

		Parameters:
		  - context: context.Context
		  - spentID: string (The credential being consumed)
		  - next: *RefreshTokenRecord (The successor)

		Returns:
		  - error: Persistence failures; the transaction rolls back
	*/
	Rotate(context context.Context, spentID string, next *RefreshTokenRecord) error

	/*
		RevokeRefreshToken marks one credential revoked. Idempotent.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeRefreshToken(context context.Context, id string) error

	/*
		RevokeAllForUser marks every live credential of a user revoked.
		Called on replay detection, password change, and deactivation.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeAllForUser(context context.Context, userID string) error

	// # Password Reset Grants

	/*
		CreatePasswordReset persists a new reset grant.

		Parameters:
		  - context: context.Context
		  - token: *PasswordResetToken (TokenHash already computed)

		Returns:
		  - error: Persistence failures
	*/
	CreatePasswordReset(context context.Context, token *PasswordResetToken) error

	/*
		FindResetByHash retrieves a reset grant by its digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string (SHA-256 hex)

		Returns:
		  - *PasswordResetToken: Hydrated entity
		  - error: ErrNotFound if no such digest exists
	*/
	FindResetByHash(context context.Context, tokenHash string) (*PasswordResetToken, error)

	/*
		MarkResetUsed stamps a reset grant consumed.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: ErrNotFound if missing or already used
	*/
	MarkResetUsed(context context.Context, id string) error
}
