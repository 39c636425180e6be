// Copyright (c) 2026 Vacaplan. All rights reserved.

package period

import (
	"context"
	"log/slog"
	"time"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates calendar and allocation operations.
type Service struct {
	repo     Repository
	kernel   *authz.Kernel
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a calendar [Service].
func NewService(repo Repository, kernel *authz.Kernel, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		kernel:   kernel,
		recorder: recorder,
		logger:   logger,
	}
}

// # Period Management

/*
ListPeriods returns the caller's company periods, earliest first.

Parameters:
  - context: context.Context
  - principal: authz.Principal

Returns:
  - []*Period: Company periods
  - error: Authorization or retrieval failures
*/
func (service *Service) ListPeriods(context context.Context, principal authz.Principal) ([]*Period, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceVacationPeriod,
	}); err != nil {
		return nil, err
	}

	return service.repo.ListPeriods(context, principal.CompanyID)
}

/*
GetPeriod retrieves one period in the caller's company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (Period UUID)

Returns:
  - *Period: Hydrated entity
  - error: ErrNotFound for missing or foreign periods
*/
func (service *Service) GetPeriod(context context.Context, principal authz.Principal, id string) (*Period, error) {
	period, err := service.repo.FindPeriodByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, period.CompanyID, string(authz.ResourceVacationPeriod)); err != nil {
		return nil, err
	}
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceVacationPeriod,
	}); err != nil {
		return nil, err
	}
	return period, nil
}

// PeriodInput carries the mutable period fields.
type PeriodInput struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
	IsDefault bool   `json:"is_default"`
	IsActive  bool   `json:"is_active"`
}

// validatePeriodInput checks names and date ordering, returning the
// parsed bounds.
func validatePeriodInput(input PeriodInput) (start, end time.Time, err error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100)
	validator.Required(FieldStartDate, input.StartDate).Date(FieldStartDate, input.StartDate)
	validator.Required(FieldEndDate, input.EndDate).Date(FieldEndDate, input.EndDate)
	validator.DateOrder(FieldEndDate, input.StartDate, input.EndDate)
	if err := validator.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	start, _ = time.Parse("2006-01-02", input.StartDate)
	end, _ = time.Parse("2006-01-02", input.EndDate)
	if !end.After(start) {
		return time.Time{}, time.Time{}, validate.RequiredError(FieldEndDate, "End date must be after start date")
	}
	return start, end, nil
}

/*
CreatePeriod adds a period to the caller's company. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: PeriodInput

Returns:
  - *Period: Created entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) CreatePeriod(context context.Context, principal authz.Principal, input PeriodInput) (*Period, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbCreate,
		Resource: authz.ResourceVacationPeriod,
	}); err != nil {
		return nil, err
	}

	start, end, err := validatePeriodInput(input)
	if err != nil {
		return nil, err
	}

	period := &Period{
		ID:        uuidv7.New(),
		CompanyID: principal.CompanyID,
		Name:      input.Name,
		StartDate: start,
		EndDate:   end,
		IsDefault: input.IsDefault,
		IsActive:  input.IsActive,
	}
	if err := service.repo.CreatePeriod(context, period); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionPeriodCreated,
		EntityType: string(authz.ResourceVacationPeriod),
		EntityID:   &period.ID,
		After:      periodSnapshot(period),
	})

	return period, nil
}

/*
UpdatePeriod modifies a period. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string
  - input: PeriodInput

Returns:
  - *Period: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdatePeriod(context context.Context, principal authz.Principal, id string, input PeriodInput) (*Period, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbUpdate,
		Resource: authz.ResourceVacationPeriod,
	}); err != nil {
		return nil, err
	}

	current, err := service.repo.FindPeriodByID(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationPeriod)); err != nil {
		return nil, err
	}

	start, end, err := validatePeriodInput(input)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = input.Name
	updated.StartDate = start
	updated.EndDate = end
	updated.IsDefault = input.IsDefault
	updated.IsActive = input.IsActive

	if err := service.repo.UpdatePeriod(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionPeriodUpdated,
		EntityType: string(authz.ResourceVacationPeriod),
		EntityID:   &id,
		Before:     periodSnapshot(current),
		After:      periodSnapshot(&updated),
	})

	return &updated, nil
}

/*
DeactivatePeriod retires a period from resolution. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string

Returns:
  - error: Authorization or persistence failures
*/
func (service *Service) DeactivatePeriod(context context.Context, principal authz.Principal, id string) error {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete,
		Resource: authz.ResourceVacationPeriod,
	}); err != nil {
		return err
	}

	current, err := service.repo.FindPeriodByID(context, id)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceVacationPeriod)); err != nil {
		return err
	}

	if err := service.repo.DeactivatePeriod(context, id); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionPeriodDeactivated,
		EntityType: string(authz.ResourceVacationPeriod),
		EntityID:   &id,
		Before:     periodSnapshot(current),
	})

	return nil
}

// # Period Resolution

/*
ResolvePeriod finds the period accounting a date, materializing the
April-to-March default when the company has no periods at all.

Description: Called by the request engine with the request's start
date. Overlapping periods resolve deterministically: default first,
then earliest start, then smallest name. A company that has periods but
none covering the date gets NO_ACTIVE_PERIOD rather than a new period.

Parameters:
  - context: context.Context
  - companyID: string
  - date: time.Time

Returns:
  - *Period: The accounting period
  - error: NO_ACTIVE_PERIOD or persistence failures
*/
func (service *Service) ResolvePeriod(context context.Context, companyID string, date time.Time) (*Period, error) {
	periods, err := service.repo.ListPeriods(context, companyID)
	if err != nil {
		return nil, err
	}

	if picked := pickPeriod(periods, date); picked != nil {
		return picked, nil
	}
	if len(periods) > 0 {
		return nil, apperr.NoActivePeriod()
	}

	start, end, name := defaultBounds(date)
	materialized := &Period{
		ID:        uuidv7.New(),
		CompanyID: companyID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		IsDefault: true,
		IsActive:  true,
	}
	if err := service.repo.CreatePeriod(context, materialized); err != nil {
		return nil, err
	}

	service.logger.Info("period_materialized",
		slog.String("company_id", companyID),
		slog.String("period_id", materialized.ID),
		slog.String("name", name),
	)

	return materialized, nil
}

// # Allocation Management

/*
ListAllocations returns a period's allocations visible to the caller.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - periodID: string

Returns:
  - []*Allocation: Visible allocations
  - error: Authorization or retrieval failures
*/
func (service *Service) ListAllocations(context context.Context, principal authz.Principal, periodID string) ([]*Allocation, error) {
	if _, err := service.GetPeriod(context, principal, periodID); err != nil {
		return nil, err
	}

	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceAllocation,
	})
	if err != nil {
		return nil, err
	}

	return service.repo.ListAllocations(context, scope, periodID)
}

// AllocationInput carries the admin-settable allocation fields.
type AllocationInput struct {
	UserID          string `json:"user_id"`
	PeriodID        string `json:"period_id"`
	TotalDays       int    `json:"total_days"`
	CarriedOverDays int    `json:"carried_over_days"`
	Notes           string `json:"notes"`
}

/*
CreateAllocation grants a user a day budget in a period. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: AllocationInput

Returns:
  - *Allocation: Created entity
  - error: Authorization, validation, or persistence failures; a
    second allocation for the same (user, period) is a DUPLICATE
*/
func (service *Service) CreateAllocation(context context.Context, principal authz.Principal, input AllocationInput) (*Allocation, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbCreate,
		Resource: authz.ResourceAllocation,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).UUID(FieldUserID, input.UserID)
	validator.Required(FieldPeriodID, input.PeriodID).UUID(FieldPeriodID, input.PeriodID)
	validator.Range(FieldTotalDays, input.TotalDays, 0, 366)
	validator.Range("carried_over_days", input.CarriedOverDays, 0, 366)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Foreign periods read as missing.
	if _, err := service.GetPeriod(context, principal, input.PeriodID); err != nil {
		return nil, err
	}

	allocation := &Allocation{
		ID:              uuidv7.New(),
		UserID:          input.UserID,
		PeriodID:        input.PeriodID,
		TotalDays:       input.TotalDays,
		CarriedOverDays: input.CarriedOverDays,
		Notes:           input.Notes,
	}
	if err := service.repo.CreateAllocation(context, allocation); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionAllocationCreated,
		EntityType: string(authz.ResourceAllocation),
		EntityID:   &allocation.ID,
		After:      allocationSnapshot(allocation),
	})

	return allocation, nil
}

/*
UpdateAllocation adjusts totals, carry-over, and notes. Admin only.
DaysUsed is untouchable here; only request transitions move it.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (Allocation UUID)
  - input: AllocationInput (UserID and PeriodID ignored)

Returns:
  - *Allocation: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdateAllocation(context context.Context, principal authz.Principal, id string, input AllocationInput) (*Allocation, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbUpdate,
		Resource: authz.ResourceAllocation,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Range(FieldTotalDays, input.TotalDays, 0, 366)
	validator.Range("carried_over_days", input.CarriedOverDays, 0, 366)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Foreign allocations read as missing.
	current, err := service.repo.FindAllocationByID(context, principal.CompanyID, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.TotalDays = input.TotalDays
	updated.CarriedOverDays = input.CarriedOverDays
	updated.Notes = input.Notes

	if err := service.repo.UpdateAllocation(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionAllocationUpdated,
		EntityType: string(authz.ResourceAllocation),
		EntityID:   &id,
		Before:     allocationSnapshot(current),
		After:      allocationSnapshot(&updated),
	})

	return &updated, nil
}

// # Balance Projection

/*
Balances projects a user's balances across their allocations.

Description: Callers read their own balances; admins may read anyone in
the company. Pending days are summed live from undecided requests.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - userID: string (Empty means the caller)

Returns:
  - []*Balance: One entry per allocation, newest period first
  - error: Authorization or retrieval failures
*/
func (service *Service) Balances(context context.Context, principal authz.Principal, userID string) ([]*Balance, error) {
	if userID == "" {
		userID = principal.UserID
	}
	if userID != principal.UserID && !principal.IsAdmin() {
		return nil, apperr.Forbidden("You may only read your own balance")
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceAllocation,
	}); err != nil {
		return nil, err
	}

	allocations, err := service.repo.ListUserAllocations(context, userID)
	if err != nil {
		return nil, err
	}

	balances := make([]*Balance, 0, len(allocations))
	for _, allocation := range allocations {
		pending, err := service.repo.PendingDays(context, userID, allocation.PeriodID)
		if err != nil {
			return nil, err
		}

		periodName := ""
		if period, err := service.repo.FindPeriodByID(context, allocation.PeriodID); err == nil {
			periodName = period.Name
		}

		balances = append(balances, &Balance{
			PeriodID:        allocation.PeriodID,
			PeriodName:      periodName,
			UserID:          userID,
			TotalDays:       allocation.TotalDays,
			CarriedOverDays: allocation.CarriedOverDays,
			DaysUsed:        allocation.DaysUsed,
			PendingDays:     pending,
			Remaining:       allocation.Remaining(),
		})
	}

	return balances, nil
}

// # Helpers

func periodSnapshot(period *Period) map[string]any {
	return map[string]any{
		"name":       period.Name,
		"start_date": period.StartDate.Format("2006-01-02"),
		"end_date":   period.EndDate.Format("2006-01-02"),
		"is_default": period.IsDefault,
		"is_active":  period.IsActive,
	}
}

func allocationSnapshot(allocation *Allocation) map[string]any {
	return map[string]any{
		"user_id":           allocation.UserID,
		"period_id":         allocation.PeriodID,
		"total_days":        allocation.TotalDays,
		"carried_over_days": allocation.CarriedOverDays,
		"days_used":         allocation.DaysUsed,
	}
}
