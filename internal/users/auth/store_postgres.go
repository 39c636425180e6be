// Copyright (c) 2026 Vacaplan. All rights reserved.

package auth

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed session store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const refreshInsertQuery = `
	INSERT INTO refresh_tokens (
		id, user_id, token_hash, expires_at, user_agent, ip, is_remember_me, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	RETURNING created_at
`

// # Refresh Tokens

/*
CreateRefreshToken persists a new refresh credential.

Parameters:
  - context: context.Context
  - record: *RefreshTokenRecord

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreateRefreshToken(context context.Context, record *RefreshTokenRecord) error {
	err := repository.db.QueryRow(context, refreshInsertQuery,
		record.ID, record.UserID, record.TokenHash, record.ExpiresAt,
		record.UserAgent, record.IP, record.IsRememberMe,
	).Scan(&record.CreatedAt)

	return dberr.Wrap(err, "create_refresh_token")
}

/*
FindRefreshByHash retrieves a refresh credential by digest, revoked rows
included.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *RefreshTokenRecord: Hydrated entity
  - error: ErrNotFound if no such digest exists
*/
func (repository *PostgresRepository) FindRefreshByHash(context context.Context, tokenHash string) (*RefreshTokenRecord, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, revoked_at, last_used_at,
			user_agent, ip, is_remember_me, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	record := &RefreshTokenRecord{}
	err := repository.db.QueryRow(context, query, tokenHash).Scan(
		&record.ID, &record.UserID, &record.TokenHash, &record.ExpiresAt,
		&record.RevokedAt, &record.LastUsedAt, &record.UserAgent, &record.IP,
		&record.IsRememberMe, &record.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_refresh_by_hash")
	}
	return record, nil
}

/*
Rotate revokes the spent credential and persists its successor in one
transaction.

Parameters:
  - context: context.Context
  - spentID: string
  - next: *RefreshTokenRecord

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Rotate(context context.Context, spentID string, next *RefreshTokenRecord) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_rotate_tx")
	}
	defer transaction.Rollback(context)

	const revokeQuery = `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), last_used_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`
	result, err := transaction.Exec(context, revokeQuery, spentID)
	if err != nil {
		return dberr.Wrap(err, "revoke_spent_token")
	}
	if result.RowsAffected() == 0 {
		// A racing refresh consumed it first.
		return dberr.Wrap(pgx.ErrNoRows, "revoke_spent_token")
	}

	err = transaction.QueryRow(context, refreshInsertQuery,
		next.ID, next.UserID, next.TokenHash, next.ExpiresAt,
		next.UserAgent, next.IP, next.IsRememberMe,
	).Scan(&next.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_rotated_token")
	}

	return transaction.Commit(context)
}

/*
RevokeRefreshToken marks one credential revoked. Idempotent.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) RevokeRefreshToken(context context.Context, id string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := repository.db.Exec(context, query, id)
	return dberr.Wrap(err, "revoke_refresh_token")
}

/*
RevokeAllForUser marks every live credential of a user revoked.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) RevokeAllForUser(context context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := repository.db.Exec(context, query, userID)
	return dberr.Wrap(err, "revoke_all_refresh_tokens")
}

// # Password Reset Grants

/*
CreatePasswordReset persists a new reset grant.

Parameters:
  - context: context.Context
  - token: *PasswordResetToken

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreatePasswordReset(context context.Context, token *PasswordResetToken) error {
	const query = `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := repository.db.QueryRow(context, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt,
	).Scan(&token.CreatedAt)

	return dberr.Wrap(err, "create_password_reset")
}

/*
FindResetByHash retrieves a reset grant by digest.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *PasswordResetToken: Hydrated entity
  - error: ErrNotFound if no such digest exists
*/
func (repository *PostgresRepository) FindResetByHash(context context.Context, tokenHash string) (*PasswordResetToken, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`
	token := &PasswordResetToken{}
	err := repository.db.QueryRow(context, query, tokenHash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt,
		&token.UsedAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_reset_by_hash")
	}
	return token, nil
}

/*
MarkResetUsed stamps a reset grant consumed. The conditional UPDATE
makes redemption single-use under concurrency.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: ErrNotFound if missing or already used
*/
func (repository *PostgresRepository) MarkResetUsed(context context.Context, id string) error {
	const query = `UPDATE password_reset_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`
	result, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "mark_reset_used")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "mark_reset_used")
	}
	return nil
}
