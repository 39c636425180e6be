// Copyright (c) 2026 Vacaplan. All rights reserved.

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vacaplan/vacaplan/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
//
// The backing table carries a trigger that rejects UPDATE and DELETE, so
// immutability holds even against raw SQL access.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed audit store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertQuery = `
	INSERT INTO audit_events (
		id, company_id, actor_id, action, entity_type, entity_id,
		before_state, after_state, ip, user_agent, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	RETURNING created_at
`

// # Appending

/*
Insert appends one event on the pool connection.

Parameters:
  - context: context.Context
  - event: *Event

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Insert(context context.Context, event *Event) error {
	before, after, err := marshalSnapshots(event)
	if err != nil {
		return err
	}

	err = repository.db.QueryRow(context, insertQuery,
		event.ID, event.CompanyID, event.ActorID, event.Action, event.EntityType, event.EntityID,
		before, after, event.IP, event.UserAgent,
	).Scan(&event.CreatedAt)

	return dberr.Wrap(err, "insert_audit_event")
}

/*
InsertTx appends one event inside the caller's open transaction.

Parameters:
  - context: context.Context
  - tx: pgx.Tx
  - event: *Event

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) InsertTx(context context.Context, tx pgx.Tx, event *Event) error {
	before, after, err := marshalSnapshots(event)
	if err != nil {
		return err
	}

	err = tx.QueryRow(context, insertQuery,
		event.ID, event.CompanyID, event.ActorID, event.Action, event.EntityType, event.EntityID,
		before, after, event.IP, event.UserAgent,
	).Scan(&event.CreatedAt)

	return dberr.Wrap(err, "insert_audit_event_tx")
}

// # Retrieval

/*
List returns a filtered, paginated page of one company's trail.

Description: Builds the WHERE clause incrementally from the filter and
uses COUNT(*) OVER() for total metadata. Order is newest first with the
id as a stable tiebreaker.

Parameters:
  - context: context.Context
  - companyID: string
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Event: Matching events
  - int: Total record count
  - error: Retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, companyID string, filter Filter, limit, offset int) ([]*Event, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			id, company_id, actor_id, action, entity_type, entity_id,
			before_state, after_state, ip, user_agent, created_at,
			COUNT(*) OVER() as total
		FROM audit_events
		WHERE company_id = $1
	`)

	args := []any{companyID}
	argID := 2

	if filter.ActorID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND actor_id = $%d", argID))
		args = append(args, filter.ActorID)
		argID++
	}

	if filter.Action != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND action = $%d", argID))
		args = append(args, filter.Action)
		argID++
	}

	if filter.EntityType != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND entity_type = $%d", argID))
		args = append(args, filter.EntityType)
		argID++
	}

	if filter.EntityID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND entity_id = $%d", argID))
		args = append(args, filter.EntityID)
		argID++
	}

	if filter.From != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND created_at >= $%d", argID))
		args = append(args, *filter.From)
		argID++
	}

	if filter.To != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND created_at < $%d", argID))
		args = append(args, *filter.To)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_audit_events")
	}
	defer rows.Close()

	var events []*Event
	var total int
	for rows.Next() {
		event := &Event{}
		var before, after []byte
		err := rows.Scan(
			&event.ID, &event.CompanyID, &event.ActorID, &event.Action,
			&event.EntityType, &event.EntityID, &before, &after,
			&event.IP, &event.UserAgent, &event.CreatedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_audit_event")
		}
		if err := unmarshalSnapshots(before, after, event); err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}

	return events, total, nil
}

/*
FindByID retrieves a single event scoped to a company.

Parameters:
  - context: context.Context
  - companyID: string
  - id: string

Returns:
  - *Event: Hydrated entity
  - error: Retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, companyID, id string) (*Event, error) {
	const query = `
		SELECT
			id, company_id, actor_id, action, entity_type, entity_id,
			before_state, after_state, ip, user_agent, created_at
		FROM audit_events
		WHERE company_id = $1 AND id = $2
	`
	event := &Event{}
	var before, after []byte
	err := repository.db.QueryRow(context, query, companyID, id).Scan(
		&event.ID, &event.CompanyID, &event.ActorID, &event.Action,
		&event.EntityType, &event.EntityID, &before, &after,
		&event.IP, &event.UserAgent, &event.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_audit_event_by_id")
	}
	if err := unmarshalSnapshots(before, after, event); err != nil {
		return nil, err
	}
	return event, nil
}

// # JSONB Mapping

func marshalSnapshots(event *Event) (before, after []byte, err error) {
	if before, err = marshalSnapshot(event.Before); err != nil {
		return nil, nil, err
	}
	if after, err = marshalSnapshot(event.After); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func marshalSnapshot(snapshot map[string]any) ([]byte, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("audit: encode snapshot: %w", err)
	}
	return encoded, nil
}

func unmarshalSnapshots(before, after []byte, event *Event) error {
	if len(before) > 0 {
		if err := json.Unmarshal(before, &event.Before); err != nil {
			return fmt.Errorf("audit: decode before snapshot: %w", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &event.After); err != nil {
			return fmt.Errorf("audit: decode after snapshot: %w", err)
		}
	}
	return nil
}
