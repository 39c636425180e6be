// Copyright (c) 2026 Vacaplan. All rights reserved.

package period

import (
	"context"

	"github.com/vacaplan/vacaplan/internal/authz"
)

// # Calendar Data Access

// Repository defines the data access contract for periods and
// allocations.
type Repository interface {

	/*
		ListPeriods returns all periods of a company, earliest first.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - []*Period: Active and inactive periods
		  - error: Retrieval failures
	*/
	ListPeriods(context context.Context, companyID string) ([]*Period, error)

	/*
		FindPeriodByID retrieves one period.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Period: Hydrated entity
		  - error: ErrNotFound if missing
	*/
	FindPeriodByID(context context.Context, id string) (*Period, error)

	/*
		CreatePeriod persists a new period. When IsDefault is set the
		previous default of the company is cleared in the same
		transaction, so at most one default exists at any commit point.

		Parameters:
		  - context: context.Context
		  - period: *Period

		Returns:
		  - error: Persistence failures (duplicate name surfaces as a
		    DUPLICATE conflict)
	*/
	CreatePeriod(context context.Context, period *Period) error

	/*
		UpdatePeriod modifies a period. Default handling matches
		CreatePeriod.

		Parameters:
		  - context: context.Context
		  - period: *Period

		Returns:
		  - error: Persistence failures
	*/
	UpdatePeriod(context context.Context, period *Period) error

	/*
		DeactivatePeriod retires a period from resolution. Rows are kept;
		historical requests keep referencing them.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: ErrNotFound if missing
	*/
	DeactivatePeriod(context context.Context, id string) error

	// # Allocations

	/*
		ListAllocations returns the allocations of a period visible
		under the scope.

		Parameters:
		  - context: context.Context
		  - scope: authz.Scope
		  - periodID: string

		Returns:
		  - []*Allocation: Visible allocations
		  - error: Retrieval failures
	*/
	ListAllocations(context context.Context, scope authz.Scope, periodID string) ([]*Allocation, error)

	/*
		ListUserAllocations returns all allocations of one user across
		periods, newest period first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*Allocation: The user's allocations
		  - error: Retrieval failures
	*/
	ListUserAllocations(context context.Context, userID string) ([]*Allocation, error)

	/*
		FindAllocationByID retrieves one allocation by its id, scoped to
		the company that owns its period. Foreign allocations read as
		missing.

		Parameters:
		  - context: context.Context
		  - companyID: string
		  - id: string (Allocation UUID)

		Returns:
		  - *Allocation: Hydrated entity
		  - error: ErrNotFound for missing or foreign allocations
	*/
	FindAllocationByID(context context.Context, companyID, id string) (*Allocation, error)

	/*
		FindAllocation retrieves the (user, period) allocation.

		Parameters:
		  - context: context.Context
		  - userID, periodID: string

		Returns:
		  - *Allocation: Hydrated entity
		  - error: ErrNotFound if the pair has no allocation
	*/
	FindAllocation(context context.Context, userID, periodID string) (*Allocation, error)

	/*
		CreateAllocation persists a new allocation.

		Parameters:
		  - context: context.Context
		  - allocation: *Allocation

		Returns:
		  - error: Persistence failures; a second allocation for the
		    same (user, period) surfaces as a DUPLICATE conflict
	*/
	CreateAllocation(context context.Context, allocation *Allocation) error

	/*
		UpdateAllocation modifies totals, carry-over, and notes.
		DaysUsed is never written here; only request transitions touch
		it.

		Parameters:
		  - context: context.Context
		  - allocation: *Allocation

		Returns:
		  - error: Persistence failures
	*/
	UpdateAllocation(context context.Context, allocation *Allocation) error

	/*
		PendingDays sums days_count over the user's pending requests in
		a period.

		Parameters:
		  - context: context.Context
		  - userID, periodID: string

		Returns:
		  - int: Pending day total, zero when none
		  - error: Retrieval failures
	*/
	PendingDays(context context.Context, userID, periodID string) (int, error)
}
