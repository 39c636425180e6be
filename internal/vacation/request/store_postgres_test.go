// Copyright (c) 2026 Vacaplan. All rights reserved.

package request

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
)

/*
TestWrapWindowConflict maps the request-window exclusion violation onto
the overlap conflict, so a concurrent writer that slipped past the
advisory probe still surfaces as OVERLAPPING_REQUEST. Every other
database error keeps the shared translation.
*/
func TestWrapWindowConflict(t *testing.T) {
	overlap := wrapWindowConflict(&pgconn.PgError{Code: "23P01"}, "create_request")
	assert.True(t, apperr.IsCode(overlap, "OVERLAPPING_REQUEST"))

	duplicate := wrapWindowConflict(&pgconn.PgError{Code: "23505"}, "create_request")
	assert.True(t, apperr.IsCode(duplicate, "DUPLICATE"))

	missing := wrapWindowConflict(pgx.ErrNoRows, "update_request_status")
	assert.True(t, apperr.IsCode(missing, "NOT_FOUND"))

	assert.NoError(t, wrapWindowConflict(nil, "create_request"))
}
