// Copyright (c) 2026 Vacaplan. All rights reserved.

package period_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/vacation/period"
)

// calendarRepository is an in-memory [period.Repository] double.
type calendarRepository struct {
	periods     map[string]*period.Period
	allocations map[string]*period.Allocation
	pending     map[string]int // userID+periodID -> pending day total
}

func newCalendarRepository() *calendarRepository {
	return &calendarRepository{
		periods:     map[string]*period.Period{},
		allocations: map[string]*period.Allocation{},
		pending:     map[string]int{},
	}
}

func (repository *calendarRepository) ListPeriods(_ context.Context, companyID string) ([]*period.Period, error) {
	var matched []*period.Period
	for _, candidate := range repository.periods {
		if candidate.CompanyID == companyID {
			matched = append(matched, candidate)
		}
	}
	slices.SortFunc(matched, func(a, b *period.Period) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return matched, nil
}

func (repository *calendarRepository) FindPeriodByID(_ context.Context, id string) (*period.Period, error) {
	if found, ok := repository.periods[id]; ok {
		return found, nil
	}
	return nil, apperr.NotFound("Period")
}

func (repository *calendarRepository) CreatePeriod(_ context.Context, created *period.Period) error {
	if created.IsDefault {
		repository.clearDefault(created.CompanyID)
	}
	repository.periods[created.ID] = created
	return nil
}

func (repository *calendarRepository) UpdatePeriod(_ context.Context, updated *period.Period) error {
	if updated.IsDefault {
		repository.clearDefault(updated.CompanyID)
	}
	repository.periods[updated.ID] = updated
	return nil
}

func (repository *calendarRepository) clearDefault(companyID string) {
	for _, candidate := range repository.periods {
		if candidate.CompanyID == companyID {
			candidate.IsDefault = false
		}
	}
}

func (repository *calendarRepository) DeactivatePeriod(_ context.Context, id string) error {
	found, ok := repository.periods[id]
	if !ok {
		return apperr.NotFound("Period")
	}
	found.IsActive = false
	found.IsDefault = false
	return nil
}

func (repository *calendarRepository) ListAllocations(_ context.Context, scope authz.Scope, periodID string) ([]*period.Allocation, error) {
	var matched []*period.Allocation
	for _, allocation := range repository.allocations {
		if allocation.PeriodID != periodID {
			continue
		}
		if scope.UserID != nil && len(scope.TeamIDs) == 0 && *scope.UserID != allocation.UserID {
			continue
		}
		matched = append(matched, allocation)
	}
	return matched, nil
}

func (repository *calendarRepository) ListUserAllocations(_ context.Context, userID string) ([]*period.Allocation, error) {
	var matched []*period.Allocation
	for _, allocation := range repository.allocations {
		if allocation.UserID == userID {
			matched = append(matched, allocation)
		}
	}
	return matched, nil
}

func (repository *calendarRepository) FindAllocationByID(_ context.Context, companyID, id string) (*period.Allocation, error) {
	allocation, ok := repository.allocations[id]
	if !ok {
		return nil, apperr.NotFound("Allocation")
	}
	owner, ok := repository.periods[allocation.PeriodID]
	if !ok || owner.CompanyID != companyID {
		return nil, apperr.NotFound("Allocation")
	}
	return allocation, nil
}

func (repository *calendarRepository) FindAllocation(_ context.Context, userID, periodID string) (*period.Allocation, error) {
	for _, allocation := range repository.allocations {
		if allocation.UserID == userID && allocation.PeriodID == periodID {
			return allocation, nil
		}
	}
	return nil, apperr.NotFound("Allocation")
}

func (repository *calendarRepository) CreateAllocation(_ context.Context, created *period.Allocation) error {
	for _, allocation := range repository.allocations {
		if allocation.UserID == created.UserID && allocation.PeriodID == created.PeriodID {
			return apperr.ConflictCode("DUPLICATE", "An allocation already exists for this user and period")
		}
	}
	repository.allocations[created.ID] = created
	return nil
}

func (repository *calendarRepository) UpdateAllocation(_ context.Context, updated *period.Allocation) error {
	repository.allocations[updated.ID] = updated
	return nil
}

func (repository *calendarRepository) PendingDays(_ context.Context, userID, periodID string) (int, error) {
	return repository.pending[userID+periodID], nil
}

// auditRepository is a no-op audit store for service wiring.
type auditRepository struct{}

func (auditRepository) Insert(context.Context, *audit.Event) error           { return nil }
func (auditRepository) InsertTx(context.Context, pgx.Tx, *audit.Event) error { return nil }
func (auditRepository) FindByID(context.Context, string, string) (*audit.Event, error) {
	return nil, nil
}
func (auditRepository) List(context.Context, string, audit.Filter, int, int) ([]*audit.Event, int, error) {
	return nil, 0, nil
}

func newService(repository *calendarRepository) *period.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kernel := authz.NewKernel()
	recorder := audit.NewRecorder(auditRepository{}, kernel, logger)
	return period.NewService(repository, kernel, recorder, logger)
}

func admin() authz.Principal {
	return authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}
}

func member(id string) authz.Principal {
	return authz.Principal{UserID: id, CompanyID: "co-1", Role: sec.RoleUser}
}

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func seedPeriod(repository *calendarRepository, id, name, start, end string, isDefault bool) *period.Period {
	seeded := &period.Period{
		ID: id, CompanyID: "co-1", Name: name,
		StartDate: date(start), EndDate: date(end),
		IsDefault: isDefault, IsActive: true,
	}
	repository.periods[id] = seeded
	return seeded
}

// # Business-Day Math

/*
TestBusinessDays covers the inclusive weekday count: full weeks,
weekend-only spans, single days, and reversed ranges.
*/
func TestBusinessDays(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"monday_through_friday", "2026-06-01", "2026-06-05", 5},
		{"monday_through_next_friday", "2026-06-01", "2026-06-12", 10},
		{"weekend_only", "2026-06-06", "2026-06-07", 0},
		{"friday_through_monday", "2026-06-05", "2026-06-08", 2},
		{"single_weekday", "2026-06-03", "2026-06-03", 1},
		{"single_saturday", "2026-06-06", "2026-06-06", 0},
		{"end_before_start", "2026-06-05", "2026-06-01", 0},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, period.BusinessDays(date(testCase.start), date(testCase.end)))
		})
	}
}

// # Period Resolution

/*
TestResolvePeriod_TieBreaks verifies deterministic resolution between
overlapping periods: the default wins, then the earliest start, then
the smallest name. Inactive periods never match.
*/
func TestResolvePeriod_TieBreaks(t *testing.T) {
	repository := newCalendarRepository()
	seedPeriod(repository, "p-early", "2025-2026", "2025-04-01", "2026-03-31", false)
	seedPeriod(repository, "p-default", "fiscal-2026", "2026-01-01", "2026-12-31", true)
	service := newService(repository)

	resolved, err := service.ResolvePeriod(context.Background(), "co-1", date("2026-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "p-default", resolved.ID, "default period wins over earlier start")

	repository.periods["p-default"].IsDefault = false
	resolved, err = service.ResolvePeriod(context.Background(), "co-1", date("2026-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "p-early", resolved.ID, "earliest start wins without a default")

	repository.periods["p-early"].StartDate = date("2026-01-01")
	resolved, err = service.ResolvePeriod(context.Background(), "co-1", date("2026-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "p-early", resolved.ID, "smallest name wins on equal starts")

	repository.periods["p-early"].IsActive = false
	resolved, err = service.ResolvePeriod(context.Background(), "co-1", date("2026-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "p-default", resolved.ID, "inactive periods never match")
}

/*
TestResolvePeriod_NoMatch distinguishes the two empty outcomes: a
company with periods that cover nothing gets NO_ACTIVE_PERIOD, while a
company with no periods at all gets an April-to-March default
materialized and persisted.
*/
func TestResolvePeriod_NoMatch(t *testing.T) {
	repository := newCalendarRepository()
	seedPeriod(repository, "p-old", "2020-2021", "2020-04-01", "2021-03-31", true)
	service := newService(repository)

	_, err := service.ResolvePeriod(context.Background(), "co-1", date("2026-06-15"))
	assert.True(t, apperr.IsCode(err, "NO_ACTIVE_PERIOD"))

	empty := newService(newCalendarRepository())
	materialized, err := empty.ResolvePeriod(context.Background(), "co-1", date("2026-06-15"))
	require.NoError(t, err)
	assert.Equal(t, "2026-2027", materialized.Name)
	assert.Equal(t, date("2026-04-01"), materialized.StartDate)
	assert.Equal(t, date("2027-03-31"), materialized.EndDate)
	assert.True(t, materialized.IsDefault)
	assert.True(t, materialized.IsActive)

	// January resolves into the previous accounting year.
	again := newService(newCalendarRepository())
	materialized, err = again.ResolvePeriod(context.Background(), "co-1", date("2026-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", materialized.Name)
	assert.Equal(t, date("2025-04-01"), materialized.StartDate)
}

/*
TestCreatePeriod_SingleDefault verifies that marking a new period as
default clears the previous one, and that plain users cannot manage
periods.
*/
func TestCreatePeriod_SingleDefault(t *testing.T) {
	repository := newCalendarRepository()
	seedPeriod(repository, "p-1", "2025-2026", "2025-04-01", "2026-03-31", true)
	service := newService(repository)

	created, err := service.CreatePeriod(context.Background(), admin(), period.PeriodInput{
		Name: "2026-2027", StartDate: "2026-04-01", EndDate: "2027-03-31",
		IsDefault: true, IsActive: true,
	})
	require.NoError(t, err)
	assert.True(t, created.IsDefault)
	assert.False(t, repository.periods["p-1"].IsDefault)

	_, err = service.CreatePeriod(context.Background(), member("user-1"), period.PeriodInput{
		Name: "rogue", StartDate: "2026-04-01", EndDate: "2027-03-31", IsActive: true,
	})
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	_, err = service.CreatePeriod(context.Background(), admin(), period.PeriodInput{
		Name: "backwards", StartDate: "2027-04-01", EndDate: "2026-03-31", IsActive: true,
	})
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}

// # Allocations & Balances

/*
TestCreateAllocation verifies the admin gate and the one-per-user-and-
period constraint.
*/
func TestCreateAllocation(t *testing.T) {
	const periodID = "018f1aaa-0000-7000-8000-0000000000aa"

	repository := newCalendarRepository()
	seedPeriod(repository, periodID, "2026-2027", "2026-04-01", "2027-03-31", true)
	service := newService(repository)

	input := period.AllocationInput{
		UserID:    "018f1aaa-0000-7000-8000-000000000001",
		PeriodID:  periodID,
		TotalDays: 25,
	}

	_, err := service.CreateAllocation(context.Background(), member("user-1"), input)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	created, err := service.CreateAllocation(context.Background(), admin(), input)
	require.NoError(t, err)
	assert.Equal(t, 25, created.TotalDays)
	assert.Equal(t, 0, created.DaysUsed)

	_, err = service.CreateAllocation(context.Background(), admin(), input)
	assert.True(t, apperr.IsCode(err, "DUPLICATE"))
}

/*
TestUpdateAllocation adjusts totals, carry-over, and notes while
days_used stays untouched, and keeps a foreign company's allocation
indistinguishable from a missing one.
*/
func TestUpdateAllocation(t *testing.T) {
	repository := newCalendarRepository()
	seedPeriod(repository, "p-1", "2026-2027", "2026-04-01", "2027-03-31", true)
	repository.allocations["a-1"] = &period.Allocation{
		ID: "a-1", UserID: "user-1", PeriodID: "p-1",
		TotalDays: 20, DaysUsed: 5,
	}
	service := newService(repository)

	input := period.AllocationInput{TotalDays: 30, CarriedOverDays: 2, Notes: "rollover granted"}

	updated, err := service.UpdateAllocation(context.Background(), admin(), "a-1", input)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.TotalDays)
	assert.Equal(t, 2, updated.CarriedOverDays)
	assert.Equal(t, "rollover granted", updated.Notes)
	assert.Equal(t, 5, updated.DaysUsed)

	_, err = service.UpdateAllocation(context.Background(), member("user-1"), "a-1", input)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	foreignAdmin := authz.Principal{UserID: "admin-9", CompanyID: "co-9", Role: sec.RoleAdmin}
	_, err = service.UpdateAllocation(context.Background(), foreignAdmin, "a-1", input)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"), "foreign allocations read as missing")

	_, err = service.UpdateAllocation(context.Background(), admin(), "a-missing", input)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

/*
TestBalances verifies the projection math and that plain users cannot
read someone else's balance.
*/
func TestBalances(t *testing.T) {
	repository := newCalendarRepository()
	seedPeriod(repository, "p-1", "2026-2027", "2026-04-01", "2027-03-31", true)
	repository.allocations["a-1"] = &period.Allocation{
		ID: "a-1", UserID: "user-1", PeriodID: "p-1",
		TotalDays: 25, CarriedOverDays: 5, DaysUsed: 10,
	}
	repository.pending["user-1"+"p-1"] = 4
	service := newService(repository)

	balances, err := service.Balances(context.Background(), member("user-1"), "")
	require.NoError(t, err)
	require.Len(t, balances, 1)

	balance := balances[0]
	assert.Equal(t, "2026-2027", balance.PeriodName)
	assert.Equal(t, 25, balance.TotalDays)
	assert.Equal(t, 5, balance.CarriedOverDays)
	assert.Equal(t, 10, balance.DaysUsed)
	assert.Equal(t, 4, balance.PendingDays)
	assert.Equal(t, 20, balance.Remaining, "pending days are not debited")

	_, err = service.Balances(context.Background(), member("user-2"), "user-1")
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	other, err := service.Balances(context.Background(), admin(), "user-1")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
