// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"context"

	"github.com/vacaplan/vacaplan/internal/authz"
)

// # Projection Data Access

// Repository streams export rows out of the store.
type Repository interface {

	/*
		StreamRows walks the scoped, filtered projection forward-only,
		calling yield once per row. A non-nil error from yield stops the
		walk and is returned unchanged.

		Parameters:
		  - context: context.Context
		  - scope: authz.Scope
		  - filter: Filter
		  - yield: func(*Row) error

		Returns:
		  - error: Retrieval failures or the first yield error
	*/
	StreamRows(context context.Context, scope authz.Scope, filter Filter, yield func(*Row) error) error
}
