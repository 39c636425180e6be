// Copyright (c) 2026 Vacaplan. All rights reserved.

package request_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/internal/vacation/period"
	"github.com/vacaplan/vacaplan/internal/vacation/request"
)

// allocationState tracks one (user, period) budget in memory.
type allocationState struct {
	total   int
	carried int
	used    int
}

// memoryRepository is an in-memory [request.Repository] double. Its
// Transition applies the mutation to a copy and swaps it in on success,
// mirroring commit-or-rollback.
type memoryRepository struct {
	requests    map[string]*request.Request
	allocations map[string]*allocationState // userID|periodID
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		requests:    map[string]*request.Request{},
		allocations: map[string]*allocationState{},
	}
}

func allocationKey(userID, periodID string) string { return userID + "|" + periodID }

func (repository *memoryRepository) List(_ context.Context, scope authz.Scope, filter request.Filter, limit, offset int) ([]*request.Request, int, error) {
	var matched []*request.Request
	for _, candidate := range repository.requests {
		if candidate.CompanyID != scope.CompanyID {
			continue
		}
		if scope.UserID != nil && len(scope.TeamIDs) == 0 && *scope.UserID != candidate.UserID {
			continue
		}
		if filter.Status != "" && candidate.Status != filter.Status {
			continue
		}
		matched = append(matched, candidate)
	}
	return matched, len(matched), nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*request.Request, error) {
	if found, ok := repository.requests[id]; ok {
		return found, nil
	}
	return nil, apperr.NotFound("Vacation request")
}

func (repository *memoryRepository) Create(_ context.Context, created *request.Request) error {
	repository.requests[created.ID] = created
	return nil
}

func (repository *memoryRepository) Update(_ context.Context, updated *request.Request) error {
	repository.requests[updated.ID] = updated
	return nil
}

func (repository *memoryRepository) Overlapping(_ context.Context, userID string, start, end time.Time, excludeID string) (bool, error) {
	for _, candidate := range repository.requests {
		if candidate.UserID != userID || candidate.ID == excludeID {
			continue
		}
		if candidate.Status != request.StatusPending && candidate.Status != request.StatusApproved {
			continue
		}
		if !candidate.StartDate.After(end) && !candidate.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (repository *memoryRepository) OverlappingTx(ctx context.Context, _ pgx.Tx, userID string, start, end time.Time, excludeID string) (bool, error) {
	return repository.Overlapping(ctx, userID, start, end, excludeID)
}

func (repository *memoryRepository) Transition(ctx context.Context, id string, apply func(tx pgx.Tx, current *request.Request) error) (*request.Request, error) {
	stored, ok := repository.requests[id]
	if !ok {
		return nil, apperr.NotFound("Vacation request")
	}
	working := *stored
	if err := apply(nil, &working); err != nil {
		return nil, err
	}
	repository.requests[id] = &working
	return &working, nil
}

func (repository *memoryRepository) UpdateStatusTx(context.Context, pgx.Tx, *request.Request) error {
	return nil
}

func (repository *memoryRepository) AdjustDaysUsedTx(_ context.Context, _ pgx.Tx, userID, periodID string, delta int, allowNegative bool) error {
	state, ok := repository.allocations[allocationKey(userID, periodID)]
	if !ok {
		return apperr.NotFound("Allocation")
	}
	if delta > 0 && !allowNegative && state.used+delta > state.total+state.carried {
		return apperr.ConflictCode("ALLOCATION_EXCEEDED", "Approving this request would exceed the remaining allocation")
	}
	state.used += delta
	if state.used < 0 {
		state.used = 0
	}
	return nil
}

// accountRepository is a minimal [account.Repository] double; only team
// membership lookups matter here.
type accountRepository struct {
	teams map[string][]string
}

func (repository *accountRepository) TeamIDs(_ context.Context, userID string) ([]string, error) {
	return repository.teams[userID], nil
}

func (repository *accountRepository) List(context.Context, authz.Scope, account.Filter, int, int) ([]*account.User, int, error) {
	return nil, 0, nil
}
func (repository *accountRepository) FindByID(context.Context, string) (*account.User, error) {
	return nil, apperr.NotFound("User")
}
func (repository *accountRepository) FindByEmail(context.Context, string) (*account.User, error) {
	return nil, apperr.NotFound("User")
}
func (repository *accountRepository) Create(context.Context, *account.User) error { return nil }
func (repository *accountRepository) Update(context.Context, *account.User) error { return nil }
func (repository *accountRepository) UpdatePassword(context.Context, string, string) error {
	return nil
}
func (repository *accountRepository) TouchLastLogin(context.Context, string) error { return nil }
func (repository *accountRepository) SoftDeleteUser(context.Context, string, func(pgx.Tx) error) error {
	return nil
}
func (repository *accountRepository) ManagedTeamIDs(context.Context, string) ([]string, error) {
	return nil, nil
}
func (repository *accountRepository) CreateInvite(context.Context, *account.Invite) error { return nil }
func (repository *accountRepository) ListInvites(context.Context, string) ([]*account.Invite, error) {
	return nil, nil
}
func (repository *accountRepository) FindInviteByTokenHash(context.Context, string) (*account.Invite, error) {
	return nil, apperr.NotFound("Invite")
}
func (repository *accountRepository) DeleteInvite(context.Context, string, string) error { return nil }
func (repository *accountRepository) CreateFromInvite(context.Context, *account.User, *account.Invite, func(pgx.Tx) error) error {
	return nil
}

// companyRepository serves the policy flag.
type companyRepository struct {
	allowNegative bool
}

func (repository *companyRepository) FindByID(_ context.Context, id string) (*company.Company, error) {
	return &company.Company{
		ID: id, Name: "Acme",
		Settings: company.Settings{AllowNegativeBalance: repository.allowNegative},
	}, nil
}
func (repository *companyRepository) FindBySlug(context.Context, string) (*company.Company, error) {
	return nil, apperr.NotFound("Company")
}
func (repository *companyRepository) Create(context.Context, *company.Company) error { return nil }
func (repository *companyRepository) Update(context.Context, *company.Company) error { return nil }

// stubGuard is a [request.RateGuard] double counting charges per
// category; deny flips every check to a denial.
type stubGuard struct {
	deny    bool
	charges map[ratelimit.Category]int
}

func (guard *stubGuard) CheckAndRecord(_ context.Context, category ratelimit.Category, _ string) (ratelimit.Decision, error) {
	guard.charges[category]++
	if guard.deny {
		return ratelimit.Decision{Allowed: false, RetryAfter: 30 * time.Second}, nil
	}
	return ratelimit.Decision{Allowed: true, Remaining: 1}, nil
}

// periodResolver returns one fixed period for every date.
type periodResolver struct{}

func (periodResolver) ResolvePeriod(_ context.Context, companyID string, _ time.Time) (*period.Period, error) {
	return &period.Period{
		ID: "p-1", CompanyID: companyID, Name: "2026-2027",
		StartDate: date("2026-04-01"), EndDate: date("2027-03-31"),
		IsDefault: true, IsActive: true,
	}, nil
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

type fixture struct {
	service   *request.Service
	repo      *memoryRepository
	companies *companyRepository
	guard     *stubGuard
}

// newFixture pins the clock to Monday 2026-06-01. user-1 and user-2 sit
// in team-1, managed by manager-1; manager-2 manages team-2.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemoryRepository()
	accounts := &accountRepository{teams: map[string][]string{
		"user-1": {"team-1"},
		"user-2": {"team-1"},
	}}
	companies := &companyRepository{}
	guard := &stubGuard{charges: map[ratelimit.Category]int{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kernel := authz.NewKernel()
	recorder := audit.NewRecorder(auditRepository{}, kernel, logger)
	service := request.NewService(
		repo, accounts, companies, periodResolver{}, kernel, guard, recorder,
		clock.NewFake(date("2026-06-01")), logger,
	)

	return &fixture{service: service, repo: repo, companies: companies, guard: guard}
}

func (f *fixture) grantAllocation(userID string, total int) {
	f.repo.allocations[allocationKey(userID, "p-1")] = &allocationState{total: total}
}

func (f *fixture) usedDays(userID string) int {
	return f.repo.allocations[allocationKey(userID, "p-1")].used
}

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func owner() authz.Principal {
	return authz.Principal{UserID: "user-1", CompanyID: "co-1", Role: sec.RoleUser}
}

func teamManager() authz.Principal {
	return authz.Principal{UserID: "manager-1", CompanyID: "co-1", Role: sec.RoleManager, ManagedTeamIDs: []string{"team-1"}}
}

func otherManager() authz.Principal {
	return authz.Principal{UserID: "manager-2", CompanyID: "co-1", Role: sec.RoleManager, ManagedTeamIDs: []string{"team-2"}}
}

func admin() authz.Principal {
	return authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}
}

// Wednesday through Friday, 3 business days.
func weekInput() request.CreateInput {
	return request.CreateInput{
		StartDate: "2026-06-10", EndDate: "2026-06-12",
		Type: "annual", Reason: "summer break",
	}
}

// # Creation

/*
TestCreate covers the happy path (direct to pending, priced in business
days) and the three creation failure modes: past start, overlap, and
draft bypassing the overlap set.
*/
func TestCreate(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, created.Status)
	assert.Equal(t, 3, created.DaysCount)
	assert.Equal(t, "p-1", created.PeriodID)

	past := weekInput()
	past.StartDate, past.EndDate = "2026-05-20", "2026-05-22"
	_, err = f.service.Create(context.Background(), owner(), past)
	assert.True(t, apperr.IsCode(err, "DATE_IN_PAST"))

	overlapping := weekInput()
	overlapping.StartDate, overlapping.EndDate = "2026-06-12", "2026-06-16"
	_, err = f.service.Create(context.Background(), owner(), overlapping)
	assert.True(t, apperr.IsCode(err, "OVERLAPPING_REQUEST"))

	// Drafts stay outside the overlap set until submitted.
	overlapping.Draft = true
	draft, err := f.service.Create(context.Background(), owner(), overlapping)
	require.NoError(t, err)
	assert.Equal(t, request.StatusDraft, draft.Status)
}

/*
TestSubmit moves a draft to pending, recomputing the overlap check at
submission time, and refuses a second submission.
*/
func TestSubmit(t *testing.T) {
	f := newFixture(t)

	input := weekInput()
	input.Draft = true
	draft, err := f.service.Create(context.Background(), owner(), input)
	require.NoError(t, err)

	submitted, err := f.service.Submit(context.Background(), owner(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, submitted.Status)

	_, err = f.service.Submit(context.Background(), owner(), draft.ID)
	assert.True(t, apperr.IsCode(err, "NOT_PENDING"))

	// A draft overlapping the now-pending request fails at submission.
	blocked, err := f.service.Create(context.Background(), owner(), request.CreateInput{
		StartDate: "2026-06-11", EndDate: "2026-06-15",
		Type: "annual", Draft: true,
	})
	require.NoError(t, err)
	_, err = f.service.Submit(context.Background(), owner(), blocked.ID)
	assert.True(t, apperr.IsCode(err, "OVERLAPPING_REQUEST"))
}

/*
TestModify allows rewrites only in draft and reprices the day count.
*/
func TestModify(t *testing.T) {
	f := newFixture(t)

	input := weekInput()
	input.Draft = true
	draft, err := f.service.Create(context.Background(), owner(), input)
	require.NoError(t, err)

	shorter := weekInput()
	shorter.EndDate = "2026-06-10"
	updated, err := f.service.Modify(context.Background(), owner(), draft.ID, shorter)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.DaysCount)

	_, err = f.service.Submit(context.Background(), owner(), draft.ID)
	require.NoError(t, err)

	_, err = f.service.Modify(context.Background(), owner(), draft.ID, shorter)
	assert.True(t, apperr.IsCode(err, "NOT_PENDING"), "owners cannot rework a submitted request")

	corrected, err := f.service.Modify(context.Background(), admin(), draft.ID, weekInput())
	require.NoError(t, err, "admins may correct a still-pending request")
	assert.Equal(t, 3, corrected.DaysCount)
}

// # Decisions

/*
TestApprove verifies the decision gate (team management, self-approval)
and the allocation debit, including the second-approver race outcome.
*/
func TestApprove(t *testing.T) {
	f := newFixture(t)
	f.grantAllocation("user-1", 25)

	pending, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), owner(), pending.ID)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"), "owners never decide their own requests")

	_, err = f.service.Approve(context.Background(), otherManager(), pending.ID)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"), "managing an unrelated team is not enough")

	approved, err := f.service.Approve(context.Background(), teamManager(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, "manager-1", *approved.ApproverID)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, 3, f.usedDays("user-1"))

	// The racing second decision observes the changed status.
	_, err = f.service.Approve(context.Background(), admin(), pending.ID)
	assert.True(t, apperr.IsCode(err, "NOT_PENDING"))
	assert.Equal(t, 3, f.usedDays("user-1"), "no double debit")
}

/*
TestApprove_AllocationExceeded is a hard deny by default and allowed
when the company policy permits a negative balance.
*/
func TestApprove_AllocationExceeded(t *testing.T) {
	f := newFixture(t)
	f.grantAllocation("user-1", 2)

	pending, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), teamManager(), pending.ID)
	assert.True(t, apperr.IsCode(err, "ALLOCATION_EXCEEDED"))
	assert.Equal(t, 0, f.usedDays("user-1"))

	found, err := f.repo.FindByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, found.Status, "failed approval leaves the request pending")

	f.companies.allowNegative = true
	approved, err := f.service.Approve(context.Background(), teamManager(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, approved.Status)
	assert.Equal(t, 3, f.usedDays("user-1"))
}

/*
TestReject requires a reason and moves no allocation days.
*/
func TestReject(t *testing.T) {
	f := newFixture(t)
	f.grantAllocation("user-1", 25)

	pending, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), teamManager(), pending.ID, "")
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))

	rejected, err := f.service.Reject(context.Background(), teamManager(), pending.ID, "staffing conflict")
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, rejected.Status)
	assert.Equal(t, "staffing conflict", rejected.RejectedReason)
	assert.Equal(t, 0, f.usedDays("user-1"))
}

// # Cancellation & Withdrawal

/*
TestCancel covers the owner cancelling pending (no credit involved),
the manager cancelling approved (credit back), and terminal requests
refusing further transitions.
*/
func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.grantAllocation("user-1", 25)

	pending, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(context.Background(), owner(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusCancelled, cancelled.Status)

	_, err = f.service.Cancel(context.Background(), owner(), pending.ID)
	assert.True(t, apperr.IsCode(err, "NOT_PENDING"))

	second, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)
	_, err = f.service.Approve(context.Background(), teamManager(), second.ID)
	require.NoError(t, err)
	require.Equal(t, 3, f.usedDays("user-1"))

	cancelled, err = f.service.Cancel(context.Background(), teamManager(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, f.usedDays("user-1"), "approved days flow back on cancellation")
}

/*
TestWithdraw lets the owner take back an approved request before it
starts; the status is withdrawn, not cancelled, and the days return.
A request that already started stays put.
*/
func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	f.grantAllocation("user-1", 25)

	approvedRequest, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)
	_, err = f.service.Approve(context.Background(), teamManager(), approvedRequest.ID)
	require.NoError(t, err)

	withdrawn, err := f.service.Cancel(context.Background(), owner(), approvedRequest.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusWithdrawn, withdrawn.Status)
	assert.Equal(t, 0, f.usedDays("user-1"))

	// Backdate a fresh approved request so it is already running.
	started := &request.Request{
		ID: "req-started", CompanyID: "co-1", UserID: "user-1", PeriodID: "p-1",
		Type: request.TypeAnnual, Status: request.StatusApproved,
		StartDate: date("2026-05-25"), EndDate: date("2026-06-05"), DaysCount: 10,
	}
	f.repo.requests[started.ID] = started

	_, err = f.service.Cancel(context.Background(), owner(), started.ID)
	assert.True(t, apperr.IsCode(err, "CONFLICT"), "owners cannot withdraw once the vacation started")

	// Managers still can; the credit clamps at zero usage.
	cancelled, err := f.service.Cancel(context.Background(), teamManager(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusCancelled, cancelled.Status)
}

// # Visibility

/*
TestGet_Scope hides other members' requests from plain users while the
managing manager sees them.
*/
func TestGet_Scope(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)

	stranger := authz.Principal{UserID: "user-9", CompanyID: "co-1", Role: sec.RoleUser}
	_, err = f.service.Get(context.Background(), stranger, created.ID)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	seen, err := f.service.Get(context.Background(), teamManager(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, seen.ID)

	foreign := authz.Principal{UserID: "user-1", CompanyID: "co-2", Role: sec.RoleAdmin}
	_, err = f.service.Get(context.Background(), foreign, created.ID)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"), "cross-tenant reads as missing")
}

// # Rate Budgets

/*
TestRateBudget verifies mutations draw on the write window and
retrievals on the read window, and that an exhausted window answers
RATE_LIMITED before any state changes.
*/
func TestRateBudget(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), owner(), weekInput())
	require.NoError(t, err)
	assert.Equal(t, 1, f.guard.charges[ratelimit.CategoryVacationWrite])

	_, err = f.service.Get(context.Background(), owner(), created.ID)
	require.NoError(t, err)
	_, _, err = f.service.List(context.Background(), owner(), request.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.guard.charges[ratelimit.CategoryVacationRead])

	f.guard.deny = true

	later := request.CreateInput{
		StartDate: "2026-07-01", EndDate: "2026-07-03",
		Type: "annual", Reason: "blocked by the window",
	}
	_, err = f.service.Create(context.Background(), owner(), later)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "RATE_LIMITED"))
	assert.Positive(t, apperr.As(err).RetryAfter)

	_, err = f.service.Cancel(context.Background(), owner(), created.ID)
	assert.True(t, apperr.IsCode(err, "RATE_LIMITED"))

	_, _, err = f.service.List(context.Background(), owner(), request.Filter{}, 20, 0)
	assert.True(t, apperr.IsCode(err, "RATE_LIMITED"))

	found, err := f.repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, found.Status, "denied calls change nothing")
}
