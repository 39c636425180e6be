// Copyright (c) 2026 Vacaplan. All rights reserved.

package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/internal/vacation/period"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// PeriodResolver finds the accounting period for a request date.
type PeriodResolver interface {
	ResolvePeriod(ctx context.Context, companyID string, date time.Time) (*period.Period, error)
}

var _ PeriodResolver = (*period.Service)(nil)

// RateGuard budgets vacation reads and writes per principal.
type RateGuard interface {
	CheckAndRecord(ctx context.Context, category ratelimit.Category, key string) (ratelimit.Decision, error)
}

var _ RateGuard = (*ratelimit.RateGate)(nil)

// # Service Layer

// Service drives the request state machine.
type Service struct {
	repo      Repository
	accounts  account.Repository
	companies company.Repository
	periods   PeriodResolver
	kernel    *authz.Kernel
	gate      RateGuard
	recorder  *audit.Recorder
	clock     clock.Clock
	logger    *slog.Logger
}

// NewService constructs a request [Service].
func NewService(
	repo Repository,
	accounts account.Repository,
	companies company.Repository,
	periods PeriodResolver,
	kernel *authz.Kernel,
	gate RateGuard,
	recorder *audit.Recorder,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		companies: companies,
		periods:   periods,
		kernel:    kernel,
		gate:      gate,
		recorder:  recorder,
		clock:     clk,
		logger:    logger,
	}
}

// checkBudget consumes one unit of an endpoint budget. A failing
// limiter counts as a denial, never as an allowance.
func (service *Service) checkBudget(context context.Context, category ratelimit.Category, key string) error {
	decision, err := service.gate.CheckAndRecord(context, category, key)
	if err != nil {
		return apperr.Internal(err)
	}
	if !decision.Allowed {
		return apperr.RateLimited(int(decision.RetryAfter.Seconds()) + 1)
	}
	return nil
}

// # Retrieval

/*
List returns requests visible to the caller, newest first.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Request: Page of requests
  - int: Total matching count
  - error: Authorization or retrieval failures
*/
func (service *Service) List(context context.Context, principal authz.Principal, filter Filter, limit, offset int) ([]*Request, int, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationRead, principal.UserID); err != nil {
		return nil, 0, err
	}

	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceVacationRequest,
	})
	if err != nil {
		return nil, 0, err
	}

	return service.repo.List(context, scope, filter, limit, offset)
}

/*
Get retrieves one request visible to the caller.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string

Returns:
  - *Request: Hydrated entity
  - error: ErrNotFound for missing, foreign, or out-of-scope requests
*/
func (service *Service) Get(context context.Context, principal authz.Principal, id string) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationRead, principal.UserID); err != nil {
		return nil, err
	}

	found, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, found.CompanyID, string(authz.ResourceVacationRequest)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}

	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceVacationRequest,
	})
	if err != nil {
		return nil, err
	}

	if !scope.Unrestricted() && !service.inScope(context, scope, found.UserID) {
		// Out-of-scope reads as missing so absence schedules never leak.
		return nil, apperr.NotFound("Vacation request")
	}

	return found, nil
}

// inScope reports whether the scope covers the request owner.
func (service *Service) inScope(context context.Context, scope authz.Scope, ownerID string) bool {
	if scope.UserID != nil && *scope.UserID == ownerID {
		return true
	}
	if len(scope.TeamIDs) == 0 {
		return false
	}

	teamIDs, err := service.accounts.TeamIDs(context, ownerID)
	if err != nil {
		return false
	}
	for _, teamID := range teamIDs {
		for _, scoped := range scope.TeamIDs {
			if teamID == scoped {
				return true
			}
		}
	}
	return false
}

// # Creation & Draft Editing

// CreateInput carries the owner-settable request fields.
type CreateInput struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	TeamID    string `json:"team_id,omitempty"`
	Draft     bool   `json:"draft,omitempty"`
}

// validateInput checks dates and type, returning the parsed bounds.
func validateInput(input CreateInput) (start, end time.Time, err error) {
	validator := &validate.Validator{}
	validator.Required(FieldStartDate, input.StartDate).Date(FieldStartDate, input.StartDate)
	validator.Required(FieldEndDate, input.EndDate).Date(FieldEndDate, input.EndDate)
	validator.DateOrder(FieldEndDate, input.StartDate, input.EndDate)
	validator.Required(FieldType, input.Type).OneOf(FieldType, input.Type, Types...)
	validator.MaxLen(FieldReason, input.Reason, 500)
	if input.TeamID != "" {
		validator.UUID("team_id", input.TeamID)
	}
	if err := validator.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	start, _ = time.Parse("2006-01-02", input.StartDate)
	end, _ = time.Parse("2006-01-02", input.EndDate)
	return start, end, nil
}

/*
Create opens a new request for the caller.

Description: The period is resolved for the start date and days_count
is fixed immediately; later period edits never reprice the request.
With draft=false (the default) the request lands directly in pending
and participates in overlap checking; drafts stay out of the overlap
set until submitted.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - input: CreateInput

Returns:
  - *Request: Created entity
  - error: DATE_IN_PAST, NO_ACTIVE_PERIOD, OVERLAPPING_REQUEST,
    validation, or persistence failures
*/
func (service *Service) Create(context context.Context, principal authz.Principal, input CreateInput) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbCreate,
		Resource:     authz.ResourceVacationRequest,
		TargetUserID: principal.UserID,
	}); err != nil {
		return nil, err
	}

	start, end, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if start.Before(service.today()) {
		return nil, apperr.DateInPast()
	}

	resolved, err := service.periods.ResolvePeriod(context, principal.CompanyID, start)
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if input.Draft {
		status = StatusDraft
	} else {
		overlapping, err := service.repo.Overlapping(context, principal.UserID, start, end, "")
		if err != nil {
			return nil, err
		}
		if overlapping {
			return nil, apperr.ConflictCode("OVERLAPPING_REQUEST", "The range intersects an existing pending or approved request")
		}
	}

	created := &Request{
		ID:        uuidv7.New(),
		CompanyID: principal.CompanyID,
		UserID:    principal.UserID,
		PeriodID:  resolved.ID,
		Type:      Type(input.Type),
		Status:    status,
		StartDate: start,
		EndDate:   end,
		DaysCount: period.BusinessDays(start, end),
		Reason:    input.Reason,
	}
	if input.TeamID != "" {
		created.TeamID = &input.TeamID
	}

	if err := service.repo.Create(context, created); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionRequestCreated,
		EntityType: string(authz.ResourceVacationRequest),
		EntityID:   &created.ID,
		After:      requestSnapshot(created),
	})

	return created, nil
}

/*
Modify rewrites a request with fresh validation and repricing.

Description: Owners may rework their own drafts. Admins may also
correct a still-pending request; the audited change set carries both
states. Decided requests are never modified.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string
  - input: CreateInput (Draft flag ignored)

Returns:
  - *Request: Updated entity
  - error: NOT_PENDING when the state forbids edits, plus the create
    failure modes
*/
func (service *Service) Modify(context context.Context, principal authz.Principal, id string, input CreateInput) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationRequest)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbUpdate,
		Resource:     authz.ResourceVacationRequest,
		TargetUserID: current.UserID,
	}); err != nil {
		return nil, err
	}
	switch {
	case current.Status == StatusDraft:
	case current.Status == StatusPending && principal.IsAdmin():
	default:
		return nil, apperr.ConflictCode("NOT_PENDING", "Only draft and admin-corrected pending requests can be modified")
	}

	start, end, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if start.Before(service.today()) {
		return nil, apperr.DateInPast()
	}

	resolved, err := service.periods.ResolvePeriod(context, current.CompanyID, start)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.PeriodID = resolved.ID
	updated.Type = Type(input.Type)
	updated.StartDate = start
	updated.EndDate = end
	updated.DaysCount = period.BusinessDays(start, end)
	updated.Reason = input.Reason

	if err := service.repo.Update(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionRequestModified,
		EntityType: string(authz.ResourceVacationRequest),
		EntityID:   &id,
		Before:     requestSnapshot(current),
		After:      requestSnapshot(&updated),
	})

	return &updated, nil
}

// # Transitions

/*
Submit moves a draft to pending.

Description: Overlap and date checks rerun at submission; a draft that
sat past its start date is rejected here, not silently submitted.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string

Returns:
  - *Request: The pending request
  - error: NOT_PENDING, DATE_IN_PAST, OVERLAPPING_REQUEST, or
    persistence failures
*/
func (service *Service) Submit(context context.Context, principal authz.Principal, id string) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationRequest)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbUpdate,
		Resource:     authz.ResourceVacationRequest,
		TargetUserID: current.UserID,
	}); err != nil {
		return nil, err
	}

	return service.repo.Transition(context, id, func(tx pgx.Tx, locked *Request) error {
		if locked.Status != StatusDraft {
			return apperr.ConflictCode("NOT_PENDING", "Only draft requests can be submitted")
		}
		if locked.StartDate.Before(service.today()) {
			return apperr.DateInPast()
		}

		overlapping, err := service.repo.OverlappingTx(context, tx, locked.UserID, locked.StartDate, locked.EndDate, locked.ID)
		if err != nil {
			return err
		}
		if overlapping {
			return apperr.ConflictCode("OVERLAPPING_REQUEST", "The range intersects an existing pending or approved request")
		}

		before := requestSnapshot(locked)
		locked.Status = StatusPending
		if err := service.repo.UpdateStatusTx(context, tx, locked); err != nil {
			return err
		}

		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  locked.CompanyID,
			ActorID:    &principal.UserID,
			Action:     audit.ActionRequestSubmitted,
			EntityType: string(authz.ResourceVacationRequest),
			EntityID:   &locked.ID,
			Before:     before,
			After:      requestSnapshot(locked),
		})
	})
}

/*
Approve decides a pending request in the affirmative.

Description: The transition, the allocation debit, and the audit row
commit in one transaction. A concurrent approver serializes behind the
row lock, re-reads the post-state, and fails NOT_PENDING. Debits past
the remaining budget fail ALLOCATION_EXCEEDED unless the company policy
allows a negative balance.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Manager of the owner's team or Admin;
    never the owner)
  - id: string

Returns:
  - *Request: The approved request
  - error: NOT_PENDING, ALLOCATION_EXCEEDED, authorization, or
    persistence failures
*/
func (service *Service) Approve(context context.Context, principal authz.Principal, id string) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	current, err := service.authorizeDecision(context, principal, id, authz.VerbApprove)
	if err != nil {
		return nil, err
	}

	allowNegative, err := service.allowNegativeBalance(context, current.CompanyID)
	if err != nil {
		return nil, err
	}

	return service.repo.Transition(context, id, func(tx pgx.Tx, locked *Request) error {
		if locked.Status != StatusPending {
			return apperr.ConflictCode("NOT_PENDING", "The request has already been decided")
		}

		if err := service.repo.AdjustDaysUsedTx(context, tx, locked.UserID, locked.PeriodID, locked.DaysCount, allowNegative); err != nil {
			return err
		}

		before := requestSnapshot(locked)
		now := service.clock.Now()
		locked.Status = StatusApproved
		locked.ApproverID = &principal.UserID
		locked.ApprovedAt = &now
		if err := service.repo.UpdateStatusTx(context, tx, locked); err != nil {
			return err
		}

		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  locked.CompanyID,
			ActorID:    &principal.UserID,
			Action:     audit.ActionRequestApproved,
			EntityType: string(authz.ResourceVacationRequest),
			EntityID:   &locked.ID,
			Before:     before,
			After:      requestSnapshot(locked),
		})
	})
}

/*
Reject decides a pending request in the negative. No allocation moves.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Same gate as Approve)
  - id: string
  - reason: string (Required, surfaced to the owner)

Returns:
  - *Request: The rejected request
  - error: NOT_PENDING, validation, authorization, or persistence
    failures
*/
func (service *Service) Reject(context context.Context, principal authz.Principal, id, reason string) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldReason, reason).MaxLen(FieldReason, reason, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.authorizeDecision(context, principal, id, authz.VerbReject); err != nil {
		return nil, err
	}

	return service.repo.Transition(context, id, func(tx pgx.Tx, locked *Request) error {
		if locked.Status != StatusPending {
			return apperr.ConflictCode("NOT_PENDING", "The request has already been decided")
		}

		before := requestSnapshot(locked)
		locked.Status = StatusRejected
		locked.RejectedReason = reason
		if err := service.repo.UpdateStatusTx(context, tx, locked); err != nil {
			return err
		}

		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  locked.CompanyID,
			ActorID:    &principal.UserID,
			Action:     audit.ActionRequestRejected,
			EntityType: string(authz.ResourceVacationRequest),
			EntityID:   &locked.ID,
			Before:     before,
			After:      requestSnapshot(locked),
		})
	})
}

/*
Cancel takes a request out of play.

Description: Owners cancel their drafts and pending requests freely.
An approved request cancelled by its owner becomes withdrawn and is
only allowed before the vacation starts; managers and admins may cancel
an approved request at any time. Either way the approved days flow back
to the allocation in the same transaction.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string

Returns:
  - *Request: The cancelled or withdrawn request
  - error: NOT_PENDING for terminal requests, CONFLICT for started
    withdrawals, authorization, or persistence failures
*/
func (service *Service) Cancel(context context.Context, principal authz.Principal, id string) (*Request, error) {
	if err := service.checkBudget(context, ratelimit.CategoryVacationWrite, principal.UserID); err != nil {
		return nil, err
	}

	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationRequest)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbCancel,
		Resource:     authz.ResourceVacationRequest,
		TargetUserID: current.UserID,
	}); err != nil {
		return nil, err
	}
	if current.UserID != principal.UserID {
		ownerTeamIDs, err := service.accounts.TeamIDs(context, current.UserID)
		if err != nil {
			return nil, err
		}
		if err := service.kernel.CanDecide(principal, current.UserID, ownerTeamIDs); err != nil {
			return nil, err
		}
	}

	byOwner := current.UserID == principal.UserID

	return service.repo.Transition(context, id, func(tx pgx.Tx, locked *Request) error {
		if locked.Status.Terminal() {
			return apperr.ConflictCode("NOT_PENDING", "The request is already finalized")
		}

		wasApproved := locked.Status == StatusApproved
		if wasApproved && byOwner && !service.today().Before(dateOnly(locked.StartDate)) {
			return apperr.Conflict("An approved request can only be withdrawn before it starts")
		}

		if wasApproved {
			// Credit back; credits never fail the budget check.
			if err := service.repo.AdjustDaysUsedTx(context, tx, locked.UserID, locked.PeriodID, -locked.DaysCount, true); err != nil {
				return err
			}
		}

		before := requestSnapshot(locked)
		action := audit.ActionRequestCancelled
		locked.Status = StatusCancelled
		if wasApproved && byOwner {
			locked.Status = StatusWithdrawn
			action = audit.ActionRequestWithdrawn
		}
		if err := service.repo.UpdateStatusTx(context, tx, locked); err != nil {
			return err
		}

		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  locked.CompanyID,
			ActorID:    &principal.UserID,
			Action:     action,
			EntityType: string(authz.ResourceVacationRequest),
			EntityID:   &locked.ID,
			Before:     before,
			After:      requestSnapshot(locked),
		})
	})
}

// # Helpers

// authorizeDecision runs the shared approve/reject gate: tenant match,
// kernel matrix, and managed-team membership of the owner.
func (service *Service) authorizeDecision(context context.Context, principal authz.Principal, id string, verb authz.Verb) (*Request, error) {
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationRequest)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         verb,
		Resource:     authz.ResourceVacationRequest,
		TargetUserID: current.UserID,
	}); err != nil {
		return nil, err
	}

	ownerTeamIDs, err := service.accounts.TeamIDs(context, current.UserID)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CanDecide(principal, current.UserID, ownerTeamIDs); err != nil {
		return nil, err
	}

	return current, nil
}

// allowNegativeBalance reads the company policy flag.
func (service *Service) allowNegativeBalance(context context.Context, companyID string) (bool, error) {
	record, err := service.companies.FindByID(context, companyID)
	if err != nil {
		return false, err
	}
	return record.Settings.AllowNegativeBalance, nil
}

func (service *Service) today() time.Time {
	return dateOnly(service.clock.Now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (service *Service) auditCrossTenant(context context.Context, principal authz.Principal, entityID string) {
	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionCrossTenantDenied,
		EntityType: string(authz.ResourceVacationRequest),
		EntityID:   &entityID,
	})
}

func requestSnapshot(request *Request) map[string]any {
	snapshot := map[string]any{
		"user_id":    request.UserID,
		"period_id":  request.PeriodID,
		"type":       string(request.Type),
		"status":     string(request.Status),
		"start_date": request.StartDate.Format("2006-01-02"),
		"end_date":   request.EndDate.Format("2006-01-02"),
		"days_count": request.DaysCount,
	}
	if request.ApproverID != nil {
		snapshot["approver_id"] = *request.ApproverID
	}
	if request.RejectedReason != "" {
		snapshot["rejected_reason"] = request.RejectedReason
	}
	return snapshot
}
