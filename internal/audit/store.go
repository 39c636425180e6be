// Copyright (c) 2026 Vacaplan. All rights reserved.

package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// # Audit Data Access

// Repository defines the data access contract for the audit trail.
//
// The trail is append-only: the contract deliberately has no update or
// delete operations, and none may be added.
type Repository interface {

	/*
		Insert appends one event using the repository's own connection.

		Parameters:
		  - context: context.Context
		  - event: *Event (ID and CreatedAt already assigned)

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, event *Event) error

	/*
		InsertTx appends one event inside the caller's transaction, so a
		domain state change and its audit row commit or roll back together.

		Parameters:
		  - context: context.Context
		  - tx: pgx.Tx (The caller's open transaction)
		  - event: *Event

		Returns:
		  - error: Persistence failures
	*/
	InsertTx(context context.Context, tx pgx.Tx, event *Event) error

	/*
		List returns a filtered, paginated slice of events for one company,
		newest first.

		Parameters:
		  - context: context.Context
		  - companyID: string (Tenant boundary, always enforced)
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Event: Matching events ordered created_at DESC, id DESC
		  - int: Total record count
		  - error: Retrieval failures
	*/
	List(context context.Context, companyID string, filter Filter, limit, offset int) ([]*Event, int, error)

	/*
		FindByID retrieves a single event within a company.

		Parameters:
		  - context: context.Context
		  - companyID: string
		  - id: string (UUIDv7)

		Returns:
		  - *Event: Hydrated entity
		  - error: ErrNotFound if missing or outside the company
	*/
	FindByID(context context.Context, companyID, id string) (*Event, error)
}
