// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed projection store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
StreamRows walks the scoped, filtered projection forward-only.

Description: Employee, approver, and team names are denormalized in the
query so the walk never issues follow-up lookups. Rows stream straight
off the pgx cursor into yield.

Parameters:
  - context: context.Context
  - scope: authz.Scope
  - filter: Filter
  - yield: func(*Row) error

Returns:
  - error: Retrieval failures or the first yield error
*/
func (repository *PostgresRepository) StreamRows(context context.Context, scope authz.Scope, filter Filter, yield func(*Row) error) error {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT r.id, u.first_name || ' ' || u.last_name, u.email,
		       COALESCE(t.name, ''), r.start_date, r.end_date, r.days_count,
		       r.type, r.status, r.reason,
		       COALESCE(a.first_name || ' ' || a.last_name, ''), r.approved_at, r.created_at
		FROM vacation_requests r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN users a ON a.id = r.approver_id
		LEFT JOIN teams t ON t.id = r.team_id
		WHERE r.company_id = $1
	`)

	args := []any{scope.CompanyID}
	argID := 2

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

	queryBuilder.WriteString(" ORDER BY r.start_date ASC, r.created_at ASC")

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return dberr.Wrap(err, "stream_export_rows")
	}
	defer rows.Close()

	for rows.Next() {
		row := &Row{}
		if err := rows.Scan(
			&row.RequestID, &row.EmployeeName, &row.EmployeeEmail, &row.TeamName,
			&row.StartDate, &row.EndDate, &row.DaysCount, &row.Type, &row.Status,
			&row.Reason, &row.ApproverName, &row.ApprovedAt, &row.CreatedAt,
		); err != nil {
			return dberr.Wrap(err, "scan_export_row")
		}
		if err := yield(row); err != nil {
			return err
		}
	}

	return dberr.Wrap(rows.Err(), "stream_export_rows")
}
