// Copyright (c) 2026 Vacaplan. All rights reserved.

package company

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed company store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Settings travel as JSONB; pgx maps the struct through encoding/json.

/*
FindByID retrieves a single company record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Company: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Company, error) {
	const query = `
		SELECT id, name, slug, domain, settings, created_at, updated_at
		FROM companies
		WHERE id = $1 AND deleted_at IS NULL
	`
	company := &Company{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&company.ID, &company.Name, &company.Slug, &company.Domain,
		&company.Settings, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_company_by_id")
	}
	return company, nil
}

/*
FindBySlug retrieves a company by its unique slug.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Company: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Company, error) {
	const query = `
		SELECT id, name, slug, domain, settings, created_at, updated_at
		FROM companies
		WHERE slug = $1 AND deleted_at IS NULL
	`
	company := &Company{}
	err := repository.db.QueryRow(context, query, slug).Scan(
		&company.ID, &company.Name, &company.Slug, &company.Domain,
		&company.Settings, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_company_by_slug")
	}
	return company, nil
}

/*
Create inserts a new company record.

Parameters:
  - context: context.Context
  - company: *Company

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, company *Company) error {
	const query = `
		INSERT INTO companies (id, name, slug, domain, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		company.ID, company.Name, company.Slug, company.Domain, company.Settings,
	).Scan(&company.CreatedAt, &company.UpdatedAt)

	return dberr.Wrap(err, "create_company")
}

/*
Update modifies company metadata and settings.

Parameters:
  - context: context.Context
  - company: *Company

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, company *Company) error {
	const query = `
		UPDATE companies
		SET name = $2, domain = $3, settings = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query,
		company.ID, company.Name, company.Domain, company.Settings,
	).Scan(&company.UpdatedAt)

	return dberr.Wrap(err, "update_company")
}
