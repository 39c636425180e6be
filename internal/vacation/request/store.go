// Copyright (c) 2026 Vacaplan. All rights reserved.

package request

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/authz"
)

// # Request Data Access

// Repository defines the data access contract for vacation requests.
//
// Transition is the only entry point for state changes past draft: it
// loads the row under a write lock and hands it to the caller, who
// performs the status write, the allocation adjustment, and the audit
// insert on the same transaction through the Tx helpers.
type Repository interface {

	/*
		List returns requests visible under the scope, newest first.

		Parameters:
		  - context: context.Context
		  - scope: authz.Scope
		  - filter: Filter
		  - limit, offset: int

		Returns:
		  - []*Request: Page of requests
		  - int: Total matching count
		  - error: Retrieval failures
	*/
	List(context context.Context, scope authz.Scope, filter Filter, limit, offset int) ([]*Request, int, error)

	/*
		FindByID retrieves one request.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Request: Hydrated entity
		  - error: ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*Request, error)

	/*
		Create persists a new request in draft or pending status.

		Parameters:
		  - context: context.Context
		  - request: *Request

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, request *Request) error

	/*
		Update rewrites the ownable fields of a draft. Status, approver,
		and decision columns are untouched.

		Parameters:
		  - context: context.Context
		  - request: *Request

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, request *Request) error

	/*
		Overlapping reports whether the user already has a pending or
		approved request intersecting [start, end]. Drafts and terminal
		requests are outside the overlap set.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - start, end: time.Time
		  - excludeID: string (Skipped row, empty for none)

		Returns:
		  - bool: True when an intersecting request exists
		  - error: Retrieval failures
	*/
	Overlapping(context context.Context, userID string, start, end time.Time, excludeID string) (bool, error)

	/*
		OverlappingTx is Overlapping bound to the transaction of an
		ongoing Transition, so the probe reads the same snapshot the
		status write will commit against.

		Parameters:
		  - context: context.Context
		  - tx: pgx.Tx
		  - userID: string
		  - start, end: time.Time
		  - excludeID: string (Skipped row, empty for none)

		Returns:
		  - bool: True when an intersecting request exists
		  - error: Retrieval failures
	*/
	OverlappingTx(context context.Context, tx pgx.Tx, userID string, start, end time.Time, excludeID string) (bool, error)

	/*
		Transition runs one locked state change. The request row is
		loaded with SELECT ... FOR UPDATE, apply mutates it through the
		Tx helpers, and everything commits atomically. When apply errors
		the transaction rolls back and nothing is written.

		Parameters:
		  - context: context.Context
		  - id: string
		  - apply: func(pgx.Tx, *Request) error

		Returns:
		  - *Request: The request after the transition
		  - error: ErrNotFound, or whatever apply returned
	*/
	Transition(context context.Context, id string, apply func(tx pgx.Tx, current *Request) error) (*Request, error)

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
	UpdateStatusTx(context context.Context, tx pgx.Tx, request *Request) error

	/*
		AdjustDaysUsedTx moves the allocation's days_used by delta inside
		a Transition. A positive delta that would push usage past the
		available budget fails ALLOCATION_EXCEEDED unless allowNegative
		is set; days_used never drops below zero.

		Parameters:
		  - context: context.Context
		  - tx: pgx.Tx
		  - userID, periodID: string
		  - delta: int
		  - allowNegative: bool

		Returns:
		  - error: ALLOCATION_EXCEEDED, ErrNotFound when the user has no
		    allocation in the period, or persistence failures
	*/
	AdjustDaysUsedTx(context context.Context, tx pgx.Tx, userID, periodID string, delta int, allowNegative bool) error
}
