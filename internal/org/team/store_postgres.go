// Copyright (c) 2026 Vacaplan. All rights reserved.

package team

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

// NewPostgresRepository constructs a PostgreSQL backed team store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Team Retrieval

/*
ListByCompany returns every live team of a company.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - []*Team: Ordered by name
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByCompany(context context.Context, companyID string) ([]*Team, error) {
	const query = `
		SELECT id, company_id, function_id, name, code, created_at, updated_at
		FROM teams
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY name ASC
	`
	rows, err := repository.db.Query(context, query, companyID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_teams")
	}
	defer rows.Close()

	return scanTeams(rows)
}

/*
FindByID retrieves a single team record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Team: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Team, error) {
	const query = `
		SELECT id, company_id, function_id, name, code, created_at, updated_at
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL
	`
	team := &Team{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&team.ID, &team.CompanyID, &team.FunctionID, &team.Name, &team.Code,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_team_by_id")
	}
	return team, nil
}

func scanTeams(rows pgx.Rows) ([]*Team, error) {
	var teams []*Team
	for rows.Next() {
		team := &Team{}
		err := rows.Scan(
			&team.ID, &team.CompanyID, &team.FunctionID, &team.Name, &team.Code,
			&team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_team")
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// # Team Mutation

/*
Create inserts a new team record.

Parameters:
  - context: context.Context
  - team: *Team

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, team *Team) error {
	const query = `
		INSERT INTO teams (id, company_id, function_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		team.ID, team.CompanyID, team.FunctionID, team.Name, team.Code,
	).Scan(&team.CreatedAt, &team.UpdatedAt)

	return dberr.Wrap(err, "create_team")
}

/*
Update modifies team metadata.

Parameters:
  - context: context.Context
  - team: *Team

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, team *Team) error {
	const query = `
		UPDATE teams
		SET name = $2, code = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := repository.db.QueryRow(context, query, team.ID, team.Name, team.Code).Scan(&team.UpdatedAt)
	return dberr.Wrap(err, "update_team")
}

/*
SoftDelete flags a team as deleted.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	const query = `UPDATE teams SET deleted_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, id)
	return dberr.Wrap(err, "delete_team")
}

// # Membership Implementation

/*
ListMembers retrieves the active roster with denormalized user fields.

Parameters:
  - context: context.Context
  - teamID: string

Returns:
  - []*Membership: Active members ordered by join time
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListMembers(context context.Context, teamID string) ([]*Membership, error) {
	const query = `
		SELECT m.team_id, m.user_id, u.email, u.first_name, u.last_name,
			m.is_primary, m.joined_at, m.left_at
		FROM team_memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.team_id = $1 AND m.left_at IS NULL AND u.deleted_at IS NULL
		ORDER BY m.joined_at ASC
	`
	rows, err := repository.db.Query(context, query, teamID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_team_members")
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		member := &Membership{}
		err := rows.Scan(
			&member.TeamID, &member.UserID, &member.Email, &member.FirstName, &member.LastName,
			&member.IsPrimary, &member.JoinedAt, &member.LeftAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_team_member")
		}
		members = append(members, member)
	}

	return members, nil
}

/*
AddMember inserts an active membership row. The partial unique index on
(user_id, team_id) WHERE left_at IS NULL rejects duplicate active pairs.

Parameters:
  - context: context.Context
  - membership: *Membership

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) AddMember(context context.Context, membership *Membership) error {
	const query = `
		INSERT INTO team_memberships (team_id, user_id, is_primary, joined_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING joined_at
	`
	err := repository.db.QueryRow(context, query,
		membership.TeamID, membership.UserID, membership.IsPrimary,
	).Scan(&membership.JoinedAt)

	return dberr.Wrap(err, "add_team_member")
}

/*
RemoveMember stamps left_at on the active membership, retaining the row.

Parameters:
  - context: context.Context
  - teamID: string
  - userID: string

Returns:
  - error: ErrNotFound when no active membership exists
*/
func (repository *PostgresRepository) RemoveMember(context context.Context, teamID, userID string) error {
	const query = `
		UPDATE team_memberships
		SET left_at = NOW()
		WHERE team_id = $1 AND user_id = $2 AND left_at IS NULL
		RETURNING left_at
	`
	var leftAt any
	err := repository.db.QueryRow(context, query, teamID, userID).Scan(&leftAt)
	return dberr.Wrap(err, "remove_team_member")
}

// # Manager Assignment Implementation

/*
ListManagers retrieves all managers assigned to a team.

Parameters:
  - context: context.Context
  - teamID: string

Returns:
  - []*ManagerAssignment: Current assignments ordered by assignment time
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListManagers(context context.Context, teamID string) ([]*ManagerAssignment, error) {
	const query = `
		SELECT team_id, manager_id, assigned_by, assigned_at
		FROM manager_assignments
		WHERE team_id = $1
		ORDER BY assigned_at ASC
	`
	rows, err := repository.db.Query(context, query, teamID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_team_managers")
	}
	defer rows.Close()

	var assignments []*ManagerAssignment
	for rows.Next() {
		assignment := &ManagerAssignment{}
		err := rows.Scan(&assignment.TeamID, &assignment.ManagerID, &assignment.AssignedBy, &assignment.AssignedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_manager_assignment")
		}
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}

/*
AssignManager inserts a manager assignment row.

Parameters:
  - context: context.Context
  - assignment: *ManagerAssignment

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) AssignManager(context context.Context, assignment *ManagerAssignment) error {
	const query = `
		INSERT INTO manager_assignments (team_id, manager_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING assigned_at
	`
	err := repository.db.QueryRow(context, query,
		assignment.TeamID, assignment.ManagerID, assignment.AssignedBy,
	).Scan(&assignment.AssignedAt)

	return dberr.Wrap(err, "assign_manager")
}

/*
UnassignManager hard-deletes a manager assignment.

Parameters:
  - context: context.Context
  - teamID: string
  - managerID: string

Returns:
  - error: ErrNotFound when the assignment does not exist
*/
func (repository *PostgresRepository) UnassignManager(context context.Context, teamID, managerID string) error {
	const query = `DELETE FROM manager_assignments WHERE team_id = $1 AND manager_id = $2`
	result, err := repository.db.Exec(context, query, teamID, managerID)
	if err != nil {
		return dberr.Wrap(err, "unassign_manager")
	}
	if result.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "unassign_manager")
	}
	return nil
}
