// Copyright (c) 2026 Vacaplan. All rights reserved.

package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed request store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const requestColumns = `
	id, company_id, user_id, team_id, period_id, type, status, start_date, end_date,
	days_count, reason, approver_id, approved_at, rejected_reason, created_at, updated_at
`

func scanRequest(row pgx.Row, request *Request) error {
	return row.Scan(
		&request.ID, &request.CompanyID, &request.UserID, &request.TeamID, &request.PeriodID,
		&request.Type, &request.Status, &request.StartDate, &request.EndDate,
		&request.DaysCount, &request.Reason, &request.ApproverID, &request.ApprovedAt,
		&request.RejectedReason, &request.CreatedAt, &request.UpdatedAt,
	)
}

// wrapWindowConflict translates the exclusion constraint on the request
// window (SQLSTATE 23P01) into the engine's overlap conflict. The
// constraint is the backstop behind the advisory Overlapping checks:
// two writers that both passed the probe cannot both commit.
func wrapWindowConflict(err error, action string) error {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == "23P01" {
		return apperr.ConflictCode("OVERLAPPING_REQUEST", "The range intersects an existing pending or approved request")
	}
	return dberr.Wrap(err, action)
}

// # Retrieval

/*
List returns a scoped, filtered, paginated page of requests.

Description: The authorization scope becomes part of the WHERE clause:
plain users collapse to their own rows, managers to the union of their
managed teams' members and themselves. COUNT(*) OVER() carries the
total.

Parameters:
  - context: context.Context
  - scope: authz.Scope
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Request: Matching requests, newest first
  - int: Total record count
  - error: Retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, scope authz.Scope, filter Filter, limit, offset int) ([]*Request, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT ` + requestColumns + `, COUNT(*) OVER() as total
		FROM vacation_requests r
		WHERE r.company_id = $1
	`)

	args := []any{scope.CompanyID}
	argID := 2

	// Scope predicate: rows of any listed team's members, or the
	// principal's own.
	if len(scope.TeamIDs) > 0 || scope.UserID != nil {
		var clauses []string
		if len(scope.TeamIDs) > 0 {
			clauses = append(clauses, fmt.Sprintf(
				`EXISTS (SELECT 1 FROM team_memberships m
					WHERE m.user_id = r.user_id AND m.left_at IS NULL AND m.team_id = ANY($%d))`, argID))
			args = append(args, scope.TeamIDs)
			argID++
		}
		if scope.UserID != nil {
			clauses = append(clauses, fmt.Sprintf("r.user_id = $%d", argID))
			args = append(args, *scope.UserID)
			argID++
		}
		queryBuilder.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}

	if filter.UserID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND r.user_id = $%d", argID))
		args = append(args, filter.UserID)
		argID++
	}

	if filter.TeamID != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM team_memberships m
				WHERE m.user_id = r.user_id AND m.left_at IS NULL AND m.team_id = $%d)`, argID))
		args = append(args, filter.TeamID)
		argID++
	}

	if filter.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND r.status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}

	if filter.Type != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND r.type = $%d", argID))
		args = append(args, filter.Type)
		argID++
	}

	if filter.From != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND r.end_date >= $%d", argID))
		args = append(args, *filter.From)
		argID++
	}

	if filter.To != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND r.start_date <= $%d", argID))
		args = append(args, *filter.To)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_requests")
	}
	defer rows.Close()

	var requests []*Request
	total := 0
	for rows.Next() {
		request := &Request{}
		if err := rows.Scan(
			&request.ID, &request.CompanyID, &request.UserID, &request.TeamID, &request.PeriodID,
			&request.Type, &request.Status, &request.StartDate, &request.EndDate,
			&request.DaysCount, &request.Reason, &request.ApproverID, &request.ApprovedAt,
			&request.RejectedReason, &request.CreatedAt, &request.UpdatedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_request")
		}
		requests = append(requests, request)
	}

	return requests, total, nil
}

/*
FindByID retrieves one request.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Request: Hydrated entity
  - error: ErrNotFound if missing
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM vacation_requests r WHERE r.id = $1`
	request := &Request{}
	if err := scanRequest(repository.db.QueryRow(context, query, id), request); err != nil {
		return nil, dberr.Wrap(err, "get_request_by_id")
	}
	return request, nil
}

// # Creation & Draft Updates

/*
Create persists a new request.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, request *Request) error {
	const query = `
		INSERT INTO vacation_requests (
			id, company_id, user_id, team_id, period_id, type, status, start_date, end_date,
			days_count, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		request.ID, request.CompanyID, request.UserID, request.TeamID, request.PeriodID,
		request.Type, request.Status, request.StartDate, request.EndDate,
		request.DaysCount, request.Reason,
	).Scan(&request.CreatedAt, &request.UpdatedAt)

	return wrapWindowConflict(err, "create_request")
}

/*
Update rewrites the ownable fields of a draft.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, request *Request) error {
	const query = `
		UPDATE vacation_requests
		SET period_id = $2, type = $3, start_date = $4, end_date = $5,
		    days_count = $6, reason = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query,
		request.ID, request.PeriodID, request.Type, request.StartDate, request.EndDate,
		request.DaysCount, request.Reason,
	).Scan(&request.UpdatedAt)

	return wrapWindowConflict(err, "update_request")
}

/*
Overlapping reports whether the user already has a pending or approved
request intersecting [start, end].

Parameters:
  - context: context.Context
  - userID: string
  - start, end: time.Time
  - excludeID: string

Returns:
  - bool: True when an intersecting request exists
  - error: Retrieval failures
*/
const overlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM vacation_requests
		WHERE user_id = $1
		  AND status IN ('pending', 'approved')
		  AND start_date <= $3 AND end_date >= $2
		  AND ($4 = '' OR id <> $4)
	)
`

func (repository *PostgresRepository) Overlapping(context context.Context, userID string, start, end time.Time, excludeID string) (bool, error) {
	var exists bool
	if err := repository.db.QueryRow(context, overlapQuery, userID, start, end, excludeID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "check_overlap")
	}
	return exists, nil
}

/*
OverlappingTx runs the overlap probe on the transaction of an ongoing
Transition, so the verdict and the status write commit against the same
snapshot.

Parameters:
  - context: context.Context
  - tx: pgx.Tx
  - userID: string
  - start, end: time.Time
  - excludeID: string

Returns:
  - bool: True when an intersecting request exists
  - error: Retrieval failures
*/
func (repository *PostgresRepository) OverlappingTx(context context.Context, tx pgx.Tx, userID string, start, end time.Time, excludeID string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(context, overlapQuery, userID, start, end, excludeID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "check_overlap")
	}
	return exists, nil
}

// # Transitions

/*
Transition runs one locked state change.

Description: The row is loaded with SELECT ... FOR UPDATE so concurrent
transitions on the same request serialize; the loser re-reads the
post-state and fails its pre-state check inside apply.

Parameters:
  - context: context.Context
  - id: string
  - apply: func(pgx.Tx, *Request) error

Returns:
  - *Request: The request after the transition
  - error: ErrNotFound, or whatever apply returned
*/
func (repository *PostgresRepository) Transition(context context.Context, id string, apply func(tx pgx.Tx, current *Request) error) (*Request, error) {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_transition_tx")
	}
	defer transaction.Rollback(context)

	query := `SELECT ` + requestColumns + ` FROM vacation_requests r WHERE r.id = $1 FOR UPDATE`
	current := &Request{}
	if err := scanRequest(transaction.QueryRow(context, query, id), current); err != nil {
		return nil, dberr.Wrap(err, "lock_request")
	}

	if err := apply(transaction, current); err != nil {
		return nil, err
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "commit_transition_tx")
	}
	return current, nil
}

/*
UpdateStatusTx writes the status and decision columns inside a
Transition.

Parameters:
  - context: context.Context
  - tx: pgx.Tx
  - request: *Request

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) UpdateStatusTx(context context.Context, tx pgx.Tx, request *Request) error {
	const query = `
		UPDATE vacation_requests
		SET status = $2, approver_id = $3, approved_at = $4, rejected_reason = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := tx.QueryRow(context, query,
		request.ID, request.Status, request.ApproverID, request.ApprovedAt, request.RejectedReason,
	).Scan(&request.UpdatedAt)

	// A draft moving to pending enters the exclusion constraint's set.
	return wrapWindowConflict(err, "update_request_status")
}

/*
AdjustDaysUsedTx moves the allocation's days_used by delta inside a
Transition.

Description: The budget check runs in the UPDATE predicate, so the
debit and the check are one atomic statement. Zero rows means either
the budget would be exceeded or the allocation is missing; a follow-up
existence probe distinguishes the two.

Parameters:
  - context: context.Context
  - tx: pgx.Tx
  - userID, periodID: string
  - delta: int
  - allowNegative: bool

Returns:
  - error: ALLOCATION_EXCEEDED, ErrNotFound, or persistence failures
*/
func (repository *PostgresRepository) AdjustDaysUsedTx(context context.Context, tx pgx.Tx, userID, periodID string, delta int, allowNegative bool) error {
	const query = `
		UPDATE vacation_allocations
		SET days_used = GREATEST(days_used + $3, 0), updated_at = NOW()
		WHERE user_id = $1 AND period_id = $2
		  AND ($4 OR days_used + $3 <= total_days + carried_over_days)
	`
	result, err := tx.Exec(context, query, userID, periodID, delta, allowNegative)
	if err != nil {
		return dberr.Wrap(err, "adjust_days_used")
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	const probe = `SELECT EXISTS (SELECT 1 FROM vacation_allocations WHERE user_id = $1 AND period_id = $2)`
	var exists bool
	if err := tx.QueryRow(context, probe, userID, periodID).Scan(&exists); err != nil {
		return dberr.Wrap(err, "probe_allocation")
	}
	if !exists {
		return apperr.NotFound("Allocation")
	}
	return apperr.ConflictCode("ALLOCATION_EXCEEDED", "Approving this request would exceed the remaining allocation")
}
