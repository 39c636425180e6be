// Copyright (c) 2026 Vacaplan. All rights reserved.

package period

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed calendar store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const periodColumns = `
	id, company_id, name, start_date, end_date, is_default, is_active, created_at, updated_at
`

func scanPeriod(row pgx.Row, period *Period) error {
	return row.Scan(
		&period.ID, &period.CompanyID, &period.Name, &period.StartDate, &period.EndDate,
		&period.IsDefault, &period.IsActive, &period.CreatedAt, &period.UpdatedAt,
	)
}

// # Period Implementation

/*
ListPeriods returns all periods of a company, earliest first.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - []*Period: Company periods
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListPeriods(context context.Context, companyID string) ([]*Period, error) {
	query := `SELECT ` + periodColumns + ` FROM vacation_periods WHERE company_id = $1 ORDER BY start_date ASC, name ASC`

	rows, err := repository.db.Query(context, query, companyID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_periods")
	}
	defer rows.Close()

	var periods []*Period
	for rows.Next() {
		period := &Period{}
		if err := scanPeriod(rows, period); err != nil {
			return nil, dberr.Wrap(err, "scan_period")
		}
		periods = append(periods, period)
	}

	return periods, nil
}

/*
FindPeriodByID retrieves one period.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Period: Hydrated entity
  - error: ErrNotFound if missing
*/
func (repository *PostgresRepository) FindPeriodByID(context context.Context, id string) (*Period, error) {
	query := `SELECT ` + periodColumns + ` FROM vacation_periods WHERE id = $1`
	period := &Period{}
	if err := scanPeriod(repository.db.QueryRow(context, query, id), period); err != nil {
		return nil, dberr.Wrap(err, "get_period_by_id")
	}
	return period, nil
}

/*
CreatePeriod persists a new period, clearing the previous default in
the same transaction when IsDefault is set.

Parameters:
  - context: context.Context
  - period: *Period

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreatePeriod(context context.Context, period *Period) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_period_tx")
	}
	defer transaction.Rollback(context)

	if period.IsDefault {
		if err := clearDefault(context, transaction, period.CompanyID); err != nil {
			return err
		}
	}

	const query = `
		INSERT INTO vacation_periods (
			id, company_id, name, start_date, end_date, is_default, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = transaction.QueryRow(context, query,
		period.ID, period.CompanyID, period.Name, period.StartDate, period.EndDate,
		period.IsDefault, period.IsActive,
	).Scan(&period.CreatedAt, &period.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_period")
	}

	return transaction.Commit(context)
}

/*
UpdatePeriod modifies a period; default handling matches CreatePeriod.

Parameters:
  - context: context.Context
  - period: *Period

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) UpdatePeriod(context context.Context, period *Period) error {
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_update_period_tx")
	}
	defer transaction.Rollback(context)

	if period.IsDefault {
		if err := clearDefault(context, transaction, period.CompanyID); err != nil {
			return err
		}
	}

	const query = `
		UPDATE vacation_periods
		SET name = $2, start_date = $3, end_date = $4, is_default = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = transaction.QueryRow(context, query,
		period.ID, period.Name, period.StartDate, period.EndDate, period.IsDefault, period.IsActive,
	).Scan(&period.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "update_period")
	}

	return transaction.Commit(context)
}

// clearDefault unsets the company's current default period.
func clearDefault(context context.Context, tx pgx.Tx, companyID string) error {
	const query = `UPDATE vacation_periods SET is_default = FALSE, updated_at = NOW() WHERE company_id = $1 AND is_default = TRUE`
	if _, err := tx.Exec(context, query, companyID); err != nil {
		return dberr.Wrap(err, "clear_default_period")
	}
	return nil
}

/*
DeactivatePeriod retires a period from resolution.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: ErrNotFound if missing
*/
func (repository *PostgresRepository) DeactivatePeriod(context context.Context, id string) error {
	const query = `UPDATE vacation_periods SET is_active = FALSE, is_default = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "deactivate_period")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "deactivate_period")
	}
	return nil
}

// # Allocation Implementation

// Qualified so joins against vacation_periods stay unambiguous.
const allocationColumns = `
	a.id, a.user_id, a.period_id, a.total_days, a.carried_over_days, a.days_used, a.notes, a.created_at, a.updated_at
`

func scanAllocation(row pgx.Row, allocation *Allocation) error {
	return row.Scan(
		&allocation.ID, &allocation.UserID, &allocation.PeriodID, &allocation.TotalDays,
		&allocation.CarriedOverDays, &allocation.DaysUsed, &allocation.Notes,
		&allocation.CreatedAt, &allocation.UpdatedAt,
	)
}

/*
ListAllocations returns the allocations of a period visible under the
scope.

Parameters:
  - context: context.Context
  - scope: authz.Scope
  - periodID: string

Returns:
  - []*Allocation: Visible allocations
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListAllocations(context context.Context, scope authz.Scope, periodID string) ([]*Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM vacation_allocations a
		JOIN users u ON u.id = a.user_id
		WHERE a.period_id = $1 AND u.company_id = $2
	`
	args := []any{periodID, scope.CompanyID}

	if scope.UserID != nil && len(scope.TeamIDs) == 0 {
		query += ` AND a.user_id = $3`
		args = append(args, *scope.UserID)
	} else if len(scope.TeamIDs) > 0 {
		query += ` AND (a.user_id = $3 OR EXISTS (
			SELECT 1 FROM team_memberships m
			WHERE m.user_id = a.user_id AND m.left_at IS NULL AND m.team_id = ANY($4)))`
		userID := ""
		if scope.UserID != nil {
			userID = *scope.UserID
		}
		args = append(args, userID, scope.TeamIDs)
	}

	query += ` ORDER BY a.created_at ASC`

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_allocations")
	}
	defer rows.Close()

	return collectAllocations(rows)
}

/*
ListUserAllocations returns all allocations of one user, newest period
first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Allocation: The user's allocations
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListUserAllocations(context context.Context, userID string) ([]*Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM vacation_allocations a
		JOIN vacation_periods p ON p.id = a.period_id
		WHERE a.user_id = $1
		ORDER BY p.start_date DESC
	`
	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_user_allocations")
	}
	defer rows.Close()

	return collectAllocations(rows)
}

func collectAllocations(rows pgx.Rows) ([]*Allocation, error) {
	var allocations []*Allocation
	for rows.Next() {
		allocation := &Allocation{}
		if err := scanAllocation(rows, allocation); err != nil {
			return nil, dberr.Wrap(err, "scan_allocation")
		}
		allocations = append(allocations, allocation)
	}
	return allocations, nil
}

/*
FindAllocationByID retrieves one allocation by id within a company.

Description: The join against vacation_periods carries the tenant
check, so a foreign company's allocation is indistinguishable from a
missing one.

Parameters:
  - context: context.Context
  - companyID: string
  - id: string

Returns:
  - *Allocation: Hydrated entity
  - error: ErrNotFound for missing or foreign allocations
*/
func (repository *PostgresRepository) FindAllocationByID(context context.Context, companyID, id string) (*Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM vacation_allocations a
		JOIN vacation_periods p ON p.id = a.period_id
		WHERE a.id = $1 AND p.company_id = $2
	`
	allocation := &Allocation{}
	if err := scanAllocation(repository.db.QueryRow(context, query, id, companyID), allocation); err != nil {
		return nil, dberr.Wrap(err, "get_allocation_by_id")
	}
	return allocation, nil
}

/*
FindAllocation retrieves the (user, period) allocation.

Parameters:
  - context: context.Context
  - userID, periodID: string

Returns:
  - *Allocation: Hydrated entity
  - error: ErrNotFound if the pair has no allocation
*/
func (repository *PostgresRepository) FindAllocation(context context.Context, userID, periodID string) (*Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM vacation_allocations a WHERE user_id = $1 AND period_id = $2`
	allocation := &Allocation{}
	if err := scanAllocation(repository.db.QueryRow(context, query, userID, periodID), allocation); err != nil {
		return nil, dberr.Wrap(err, "get_allocation")
	}
	return allocation, nil
}

/*
CreateAllocation persists a new allocation.

Parameters:
  - context: context.Context
  - allocation: *Allocation

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreateAllocation(context context.Context, allocation *Allocation) error {
	const query = `
		INSERT INTO vacation_allocations (
			id, user_id, period_id, total_days, carried_over_days, days_used, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 0, $6, NOW(), NOW())
		RETURNING days_used, created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		allocation.ID, allocation.UserID, allocation.PeriodID, allocation.TotalDays,
		allocation.CarriedOverDays, allocation.Notes,
	).Scan(&allocation.DaysUsed, &allocation.CreatedAt, &allocation.UpdatedAt)

	return dberr.Wrap(err, "create_allocation")
}

/*
UpdateAllocation modifies totals, carry-over, and notes.

Parameters:
  - context: context.Context
  - allocation: *Allocation

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) UpdateAllocation(context context.Context, allocation *Allocation) error {
	const query = `
		UPDATE vacation_allocations
		SET total_days = $2, carried_over_days = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query,
		allocation.ID, allocation.TotalDays, allocation.CarriedOverDays, allocation.Notes,
	).Scan(&allocation.UpdatedAt)

	return dberr.Wrap(err, "update_allocation")
}

/*
PendingDays sums days_count over the user's pending requests in a
period.

Parameters:
  - context: context.Context
  - userID, periodID: string

Returns:
  - int: Pending day total
  - error: Retrieval failures
*/
func (repository *PostgresRepository) PendingDays(context context.Context, userID, periodID string) (int, error) {
	const query = `
		SELECT COALESCE(SUM(days_count), 0)
		FROM vacation_requests
		WHERE user_id = $1 AND period_id = $2 AND status = 'pending'
	`
	var total int
	if err := repository.db.QueryRow(context, query, userID, periodID).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_pending_days")
	}
	return total, nil
}
