// Copyright (c) 2026 Vacaplan. All rights reserved.

package company

import "context"

// # Company Data Access

// Repository defines the data access contract for companies.
type Repository interface {

	/*
		FindByID retrieves a company by its UUID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Company: Hydrated entity
		  - error: ErrNotFound if missing or soft-deleted
	*/
	FindByID(context context.Context, id string) (*Company, error)

	/*
		FindBySlug retrieves a company by its human-readable identifier.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Company: Hydrated entity
		  - error: ErrNotFound if missing
	*/
	FindBySlug(context context.Context, slug string) (*Company, error)

	/*
		Create persists a new company.

		Parameters:
		  - context: context.Context
		  - company: *Company

		Returns:
		  - error: Persistence failures (duplicate slug surfaces as a
		    DUPLICATE conflict)
	*/
	Create(context context.Context, company *Company) error

	/*
		Update modifies a company's name, domain, and settings.

		Parameters:
		  - context: context.Context
		  - company: *Company

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, company *Company) error
}
