// Copyright (c) 2026 Vacaplan. All rights reserved.

package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// memoryRepository keeps events in a slice, newest first, mirroring the
// ordering contract of the Postgres store.
type memoryRepository struct {
	events []*audit.Event
}

func (repository *memoryRepository) Insert(_ context.Context, event *audit.Event) error {
	repository.events = append([]*audit.Event{event}, repository.events...)
	return nil
}

func (repository *memoryRepository) InsertTx(ctx context.Context, _ pgx.Tx, event *audit.Event) error {
	return repository.Insert(ctx, event)
}

func (repository *memoryRepository) List(_ context.Context, companyID string, filter audit.Filter, limit, offset int) ([]*audit.Event, int, error) {
	var matched []*audit.Event
	for _, event := range repository.events {
		if event.CompanyID != companyID {
			continue
		}
		if filter.Action != "" && event.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && (event.ActorID == nil || *event.ActorID != filter.ActorID) {
			continue
		}
		matched = append(matched, event)
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (repository *memoryRepository) FindByID(context.Context, string, string) (*audit.Event, error) {
	return nil, nil
}

func newRecorder(repository audit.Repository) *audit.Recorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return audit.NewRecorder(repository, authz.NewKernel(), logger)
}

/*
TestRecord_AssignsIdentifier verifies every appended event gets a fresh
UUID before it reaches the store.
*/
func TestRecord_AssignsIdentifier(t *testing.T) {
	repository := &memoryRepository{}
	recorder := newRecorder(repository)

	first := &audit.Event{CompanyID: "co-1", Action: audit.ActionLoginSucceeded, EntityType: "user"}
	second := &audit.Event{CompanyID: "co-1", Action: audit.ActionLoginFailed, EntityType: "user"}

	require.NoError(t, recorder.Record(context.Background(), first))
	require.NoError(t, recorder.Record(context.Background(), second))

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

/*
TestQuery_AdminOnly checks that only administrators can read the trail
and that visibility is pinned to the caller's company.
*/
func TestQuery_AdminOnly(t *testing.T) {
	repository := &memoryRepository{}
	recorder := newRecorder(repository)

	require.NoError(t, recorder.Record(context.Background(), &audit.Event{
		CompanyID: "co-1", Action: audit.ActionRequestApproved, EntityType: "vacation_request",
	}))
	require.NoError(t, recorder.Record(context.Background(), &audit.Event{
		CompanyID: "co-2", Action: audit.ActionRequestApproved, EntityType: "vacation_request",
	}))

	admin := authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}
	events, total, err := recorder.Query(context.Background(), admin, audit.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "co-1", events[0].CompanyID)

	manager := authz.Principal{UserID: "manager-1", CompanyID: "co-1", Role: sec.RoleManager}
	_, _, err = recorder.Query(context.Background(), manager, audit.Filter{}, 20, 0)
	require.Error(t, err)

	member := authz.Principal{UserID: "user-1", CompanyID: "co-1", Role: sec.RoleUser}
	_, _, err = recorder.Query(context.Background(), member, audit.Filter{}, 20, 0)
	require.Error(t, err)
}

/*
TestQuery_Filters exercises action and actor narrowing.
*/
func TestQuery_Filters(t *testing.T) {
	repository := &memoryRepository{}
	recorder := newRecorder(repository)
	actor := "user-7"

	require.NoError(t, recorder.Record(context.Background(), &audit.Event{
		CompanyID: "co-1", ActorID: &actor, Action: audit.ActionRequestSubmitted, EntityType: "vacation_request",
	}))
	require.NoError(t, recorder.Record(context.Background(), &audit.Event{
		CompanyID: "co-1", Action: audit.ActionLoginFailed, EntityType: "user",
	}))

	admin := authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}

	byAction, total, err := recorder.Query(context.Background(), admin, audit.Filter{
		Action: audit.ActionRequestSubmitted,
	}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byAction, 1)
	assert.Equal(t, audit.ActionRequestSubmitted, byAction[0].Action)

	byActor, _, err := recorder.Query(context.Background(), admin, audit.Filter{ActorID: actor}, 20, 0)
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, &actor, byActor[0].ActorID)
}
