// Copyright (c) 2026 Vacaplan. All rights reserved.

package audit

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// # Recorder Service

// Recorder appends to and queries the audit trail.
//
// Domain services hold a Recorder and call [Recorder.RecordTx] from inside
// their own transactions so the audit row is part of the state change.
type Recorder struct {
	repo   Repository
	kernel *authz.Kernel
	logger *slog.Logger
}

// NewRecorder constructs an audit [Recorder].
func NewRecorder(repo Repository, kernel *authz.Kernel, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		kernel: kernel,
		logger: logger,
	}
}

// # Appending

/*
Record appends one event outside any domain transaction.

Description: Used for events that are not themselves a database state
change (logins, lockouts, exports, denied access). The event ID is
assigned here; CreatedAt comes from the database clock.

Parameters:
  - context: context.Context
  - event: *Event (CompanyID and Action required)

Returns:
  - error: Persistence failures
*/
func (recorder *Recorder) Record(context context.Context, event *Event) error {
	event.ID = uuidv7.New()

	if err := recorder.repo.Insert(context, event); err != nil {
		recorder.logger.Error("audit_record_failed",
			slog.String("action", string(event.Action)),
			slog.String("company_id", event.CompanyID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

/*
RecordTx appends one event inside the caller's transaction.

Description: The row commits or rolls back with the domain change; a
vacation approval that cannot write its audit row does not happen.

Parameters:
  - context: context.Context
  - tx: pgx.Tx (The caller's open transaction)
  - event: *Event

Returns:
  - error: Persistence failures, which the caller must treat as fatal
    for the surrounding transaction
*/
func (recorder *Recorder) RecordTx(context context.Context, tx pgx.Tx, event *Event) error {
	event.ID = uuidv7.New()
	return recorder.repo.InsertTx(context, tx, event)
}

// # Retrieval

/*
Query returns a page of the caller's company trail, newest first.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Event: Matching events
  - int: Total matching count
  - error: Authorization or retrieval failures
*/
func (recorder *Recorder) Query(context context.Context, principal authz.Principal, filter Filter, limit, offset int) ([]*Event, int, error) {
	_, err := recorder.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceAuditEvent,
	})
	if err != nil {
		return nil, 0, err
	}

	// Admin visibility never leaves the tenant, even for platform admins.
	return recorder.repo.List(context, principal.CompanyID, filter, limit, offset)
}

/*
GetEvent retrieves one event from the caller's company trail.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (UUIDv7)

Returns:
  - *Event: Hydrated entity
  - error: Authorization failures, or ErrNotFound when the event is
    missing or belongs to another company
*/
func (recorder *Recorder) GetEvent(context context.Context, principal authz.Principal, id string) (*Event, error) {
	_, err := recorder.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceAuditEvent,
	})
	if err != nil {
		return nil, err
	}

	return recorder.repo.FindByID(context, principal.CompanyID, id)
}
