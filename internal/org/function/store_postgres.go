// Copyright (c) 2026 Vacaplan. All rights reserved.

package function

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed function store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
ListByCompany returns every live function of a company.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - []*Function: Ordered by name
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByCompany(context context.Context, companyID string) ([]*Function, error) {
	const query = `
		SELECT id, company_id, name, code, created_at, updated_at
		FROM functions
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY name ASC
	`
	rows, err := repository.db.Query(context, query, companyID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_functions")
	}
	defer rows.Close()

	var functions []*Function
	for rows.Next() {
		function := &Function{}
		err := rows.Scan(
			&function.ID, &function.CompanyID, &function.Name, &function.Code,
			&function.CreatedAt, &function.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_function")
		}
		functions = append(functions, function)
	}

	return functions, nil
}

/*
FindByID retrieves a single function record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Function: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Function, error) {
	const query = `
		SELECT id, company_id, name, code, created_at, updated_at
		FROM functions
		WHERE id = $1 AND deleted_at IS NULL
	`
	function := &Function{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&function.ID, &function.CompanyID, &function.Name, &function.Code,
		&function.CreatedAt, &function.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_function_by_id")
	}
	return function, nil
}

/*
Create inserts a new function record.

Parameters:
  - context: context.Context
  - function: *Function

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, function *Function) error {
	const query = `
		INSERT INTO functions (id, company_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		function.ID, function.CompanyID, function.Name, function.Code,
	).Scan(&function.CreatedAt, &function.UpdatedAt)

	return dberr.Wrap(err, "create_function")
}

/*
Update modifies function metadata.

Parameters:
  - context: context.Context
  - function: *Function

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, function *Function) error {
	const query = `
		UPDATE functions
		SET name = $2, code = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query, function.ID, function.Name, function.Code).Scan(&function.UpdatedAt)
	return dberr.Wrap(err, "update_function")
}

/*
SoftDelete flags a function as deleted.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	const query = `UPDATE functions SET deleted_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, id)
	return dberr.Wrap(err, "delete_function")
}
