// Copyright (c) 2026 Vacaplan. All rights reserved.

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed identity store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	id, company_id, function_id, email, first_name, last_name, password_hash,
	role, is_active, email_verified, last_login_at, created_at, updated_at
`

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID, &user.CompanyID, &user.FunctionID, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.Role, &user.IsActive, &user.EmailVerified,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
}

// # User Retrieval

/*
List returns a scoped, filtered, paginated page of users.

Description: The authorization scope becomes part of the WHERE clause:
plain users collapse to their own row, managers to the union of their
managed teams' rosters and themselves. COUNT(*) OVER() carries the
total.

Parameters:
  - context: context.Context
  - scope: authz.Scope
  - filter: Filter
  - limit, offset: int

Returns:
  - []*User: Matching users ordered by name
  - int: Total record count
  - error: Retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, scope authz.Scope, filter Filter, limit, offset int) ([]*User, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT ` + userColumns + `, COUNT(*) OVER() as total
		FROM users u
		WHERE company_id = $1 AND deleted_at IS NULL
	`)

	args := []any{scope.CompanyID}
	argID := 2

	// Scope predicate: rows in any listed team, or the principal's own.
	if len(scope.TeamIDs) > 0 || scope.UserID != nil {
		var clauses []string
		if len(scope.TeamIDs) > 0 {
			clauses = append(clauses, fmt.Sprintf(
				`EXISTS (SELECT 1 FROM team_memberships m
					WHERE m.user_id = u.id AND m.left_at IS NULL AND m.team_id = ANY($%d))`, argID))
			args = append(args, scope.TeamIDs)
			argID++
		}
		if scope.UserID != nil {
			clauses = append(clauses, fmt.Sprintf("u.id = $%d", argID))
			args = append(args, *scope.UserID)
			argID++
		}
		queryBuilder.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	if filter.Role != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND role = $%d", argID))
		args = append(args, filter.Role)
		argID++
	}

	if filter.FunctionID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND function_id = $%d", argID))
		args = append(args, filter.FunctionID)
		argID++
	}

	if filter.TeamID != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM team_memberships m
				WHERE m.user_id = u.id AND m.left_at IS NULL AND m.team_id = $%d)`, argID))
		args = append(args, filter.TeamID)
		argID++
	}

	if filter.IsActive != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_active = $%d", argID))
		args = append(args, *filter.IsActive)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY last_name ASC, first_name ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}
	defer rows.Close()

	var users []*User
	var total int
	for rows.Next() {
		user := &User{}
		err := rows.Scan(
			&user.ID, &user.CompanyID, &user.FunctionID, &user.Email, &user.FirstName, &user.LastName,
			&user.PasswordHash, &user.Role, &user.IsActive, &user.EmailVerified,
			&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_user")
		}
		users = append(users, user)
	}

	return users, total, nil
}

/*
FindByID retrieves a single user record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE id = $1 AND deleted_at IS NULL`
	user := &User{}
	if err := scanUser(repository.db.QueryRow(context, query, id), user); err != nil {
		return nil, dberr.Wrap(err, "get_user_by_id")
	}
	return user, nil
}

/*
FindByEmail retrieves an active user by email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		WHERE lower(email) = lower($1) AND is_active = TRUE AND deleted_at IS NULL`
	user := &User{}
	if err := scanUser(repository.db.QueryRow(context, query, email), user); err != nil {
		return nil, dberr.Wrap(err, "get_user_by_email")
	}
	return user, nil
}

// # User Mutation

/*
Create inserts a new user record.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, company_id, function_id, email, first_name, last_name, password_hash,
			role, is_active, email_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		user.ID, user.CompanyID, user.FunctionID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Role, user.IsActive, user.EmailVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return dberr.Wrap(err, "create_user")
}

/*
Update modifies profile, role, placement, and active flag.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, function_id = $4, role = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query,
		user.ID, user.FirstName, user.LastName, user.FunctionID, user.Role, user.IsActive,
	).Scan(&user.UpdatedAt)

	return dberr.Wrap(err, "update_user")
}

/*
UpdatePassword replaces the stored hash.

Parameters:
  - context: context.Context
  - userID: string
  - passwordHash: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	_, err := repository.db.Exec(context, query, userID, passwordHash)
	return dberr.Wrap(err, "update_user_password")
}

/*
TouchLastLogin stamps last_login_at.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) TouchLastLogin(context context.Context, userID string) error {
	const query = `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, userID)
	return dberr.Wrap(err, "touch_last_login")
}

/*
SoftDeleteUser deactivates a user and revokes their refresh tokens in
one transaction; the audit row joins via the record callback.

Parameters:
  - context: context.Context
  - userID: string
  - record: func(pgx.Tx) error

Returns:
  - error: Transactional failures
*/
func (repository *PostgresRepository) SoftDeleteUser(context context.Context, userID string, record func(pgx.Tx) error) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_soft_delete_tx")
	}
	defer transaction.Rollback(context)

	const deleteQuery = `
		UPDATE users
		SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := transaction.Exec(context, deleteQuery, userID)
	if err != nil {
		return dberr.Wrap(err, "soft_delete_user")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "soft_delete_user")
	}

	// A deactivated user must not keep a live session.
	const revokeQuery = `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	if _, err := transaction.Exec(context, revokeQuery, userID); err != nil {
		return dberr.Wrap(err, "revoke_tokens_on_delete")
	}

	if err := record(transaction); err != nil {
		return err
	}

	return transaction.Commit(context)
}

// # Placement Lookups

/*
TeamIDs returns the user's active team memberships.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []string: Team ids
  - error: Retrieval failures
*/
func (repository *PostgresRepository) TeamIDs(context context.Context, userID string) ([]string, error) {
	const query = `SELECT team_id FROM team_memberships WHERE user_id = $1 AND left_at IS NULL`
	return repository.collectIDs(context, query, userID, "list_user_teams")
}

/*
ManagedTeamIDs returns the teams the user manages.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []string: Team ids
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ManagedTeamIDs(context context.Context, userID string) ([]string, error) {
	const query = `SELECT team_id FROM manager_assignments WHERE manager_id = $1`
	return repository.collectIDs(context, query, userID, "list_managed_teams")
}

func (repository *PostgresRepository) collectIDs(context context.Context, query, userID, action string) ([]string, error) {
	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dberr.Wrap(err, action)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// # Invite Implementation

/*
CreateInvite inserts a new invite with its token digest.

Parameters:
  - context: context.Context
  - invite: *Invite

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreateInvite(context context.Context, invite *Invite) error {
	const query = `
		INSERT INTO invite_tokens (
			id, company_id, function_id, team_ids, email, role, invited_by,
			token_hash, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	err := repository.db.QueryRow(context, query,
		invite.ID, invite.CompanyID, invite.FunctionID, invite.TeamIDs, invite.Email,
		invite.Role, invite.InvitedBy, invite.TokenHash, invite.ExpiresAt,
	).Scan(&invite.CreatedAt)

	return dberr.Wrap(err, "create_invite")
}

/*
ListInvites returns a company's invites, newest first.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - []*Invite: Invites
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListInvites(context context.Context, companyID string) ([]*Invite, error) {
	const query = `
		SELECT id, company_id, function_id, team_ids, email, role, invited_by,
			token_hash, expires_at, used_at, created_at
		FROM invite_tokens
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	rows, err := repository.db.Query(context, query, companyID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_invites")
	}
	defer rows.Close()

	var invites []*Invite
	for rows.Next() {
		invite := &Invite{}
		err := rows.Scan(
			&invite.ID, &invite.CompanyID, &invite.FunctionID, &invite.TeamIDs, &invite.Email,
			&invite.Role, &invite.InvitedBy, &invite.TokenHash, &invite.ExpiresAt,
			&invite.UsedAt, &invite.CreatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_invite")
		}
		invites = append(invites, invite)
	}

	return invites, nil
}

/*
FindInviteByTokenHash retrieves an invite by digest.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Invite: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindInviteByTokenHash(context context.Context, tokenHash string) (*Invite, error) {
	const query = `
		SELECT id, company_id, function_id, team_ids, email, role, invited_by,
			token_hash, expires_at, used_at, created_at
		FROM invite_tokens
		WHERE token_hash = $1
	`
	invite := &Invite{}
	err := repository.db.QueryRow(context, query, tokenHash).Scan(
		&invite.ID, &invite.CompanyID, &invite.FunctionID, &invite.TeamIDs, &invite.Email,
		&invite.Role, &invite.InvitedBy, &invite.TokenHash, &invite.ExpiresAt,
		&invite.UsedAt, &invite.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_invite_by_hash")
	}
	return invite, nil
}

/*
DeleteInvite removes an unused invite within a company.

Parameters:
  - context: context.Context
  - companyID: string
  - id: string

Returns:
  - error: ErrNotFound if missing or already used
*/
func (repository *PostgresRepository) DeleteInvite(context context.Context, companyID, id string) error {
	const query = `DELETE FROM invite_tokens WHERE company_id = $1 AND id = $2 AND used_at IS NULL`
	result, err := repository.db.Exec(context, query, companyID, id)
	if err != nil {
		return dberr.Wrap(err, "delete_invite")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "delete_invite")
	}
	return nil
}

/*
CreateFromInvite creates the user, memberships, and invite consumption
atomically.

Description: The invite row is claimed first with a conditional UPDATE;
a concurrent acceptance of the same invite loses the claim and rolls
back, so one invite never creates two accounts.

Parameters:
  - context: context.Context
  - user: *User
  - invite: *Invite
  - record: func(pgx.Tx) error

Returns:
  - error: Transactional failures
*/
func (repository *PostgresRepository) CreateFromInvite(context context.Context, user *User, invite *Invite, record func(pgx.Tx) error) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_invite_accept_tx")
	}
	defer transaction.Rollback(context)

	// Claim the invite. Zero rows means someone else got here first.
	const claimQuery = `
		UPDATE invite_tokens SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL AND expires_at > NOW()
	`
	result, err := transaction.Exec(context, claimQuery, invite.ID)
	if err != nil {
		return dberr.Wrap(err, "claim_invite")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "claim_invite")
	}

	const userQuery = `
		INSERT INTO users (
			id, company_id, function_id, email, first_name, last_name, password_hash,
			role, is_active, email_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, TRUE, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = transaction.QueryRow(context, userQuery,
		user.ID, user.CompanyID, user.FunctionID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_user_from_invite")
	}

	const membershipQuery = `
		INSERT INTO team_memberships (team_id, user_id, is_primary, joined_at)
		VALUES ($1, $2, $3, NOW())
	`
	for index, teamID := range invite.TeamIDs {
		if _, err := transaction.Exec(context, membershipQuery, teamID, user.ID, index == 0); err != nil {
			return dberr.Wrap(err, "create_invite_membership")
		}
	}

	if err := record(transaction); err != nil {
		return err
	}

	return transaction.Commit(context)
}
