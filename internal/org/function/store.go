// Copyright (c) 2026 Vacaplan. All rights reserved.

package function

import "context"

// # Function Data Access

// Repository defines the data access contract for functions.
type Repository interface {

	/*
		ListByCompany returns all functions of one company, ordered by name.

		Parameters:
		  - context: context.Context
		  - companyID: string

		Returns:
		  - []*Function: Company departments
		  - error: Retrieval failures
	*/
	ListByCompany(context context.Context, companyID string) ([]*Function, error)

	/*
		FindByID retrieves a function by its UUID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Function: Hydrated entity
		  - error: ErrNotFound if missing or soft-deleted
	*/
	FindByID(context context.Context, id string) (*Function, error)

	/*
		Create persists a new function.

		Parameters:
		  - context: context.Context
		  - function: *Function

		Returns:
		  - error: Persistence failures (duplicate code within the company
		    surfaces as a DUPLICATE conflict)
	*/
	Create(context context.Context, function *Function) error

	/*
		Update modifies a function's name and code.

		Parameters:
		  - context: context.Context
		  - function: *Function

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, function *Function) error

	/*
		SoftDelete marks a function as deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error
}
