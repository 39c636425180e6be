// Copyright (c) 2026 Vacaplan. All rights reserved.

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
)

/*
TestConstructors_StatusAndCode verifies the stable code and HTTP status
mapping of every constructor.
*/
func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperr.AppError
		wantCode   string
		wantStatus int
	}{
		{"not_found", apperr.NotFound("Team"), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("Missing token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"invalid_credential", apperr.InvalidCredential(), "INVALID_CREDENTIAL", http.StatusUnauthorized},
		{"refresh_replay", apperr.RefreshReplay(), "REFRESH_REPLAY_DETECTED", http.StatusUnauthorized},
		{"login_locked", apperr.LoginLocked(900), "LOGIN_LOCKED", http.StatusLocked},
		{"forbidden", apperr.Forbidden("Admin access required"), "FORBIDDEN", http.StatusForbidden},
		{"conflict", apperr.Conflict("Email already registered"), "CONFLICT", http.StatusConflict},
		{"conflict_subtype", apperr.ConflictCode("NOT_PENDING", "Request is no longer pending"), "NOT_PENDING", http.StatusConflict},
		{"validation", apperr.ValidationError("Validation failed"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"weak_password", apperr.WeakPassword("Minimum 12 characters"), "WEAK_PASSWORD", http.StatusBadRequest},
		{"date_in_past", apperr.DateInPast(), "DATE_IN_PAST", http.StatusBadRequest},
		{"no_active_period", apperr.NoActivePeriod(), "NO_ACTIVE_PERIOD", http.StatusBadRequest},
		{"invite_invalid", apperr.InviteInvalid(), "INVITE_INVALID", http.StatusBadRequest},
		{"rate_limited", apperr.RateLimited(60), "RATE_LIMITED", http.StatusTooManyRequests},
		{"internal", apperr.Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"timeout", apperr.Timeout(errors.New("deadline")), "TIMEOUT", http.StatusInternalServerError},
		{"hash_corrupt", apperr.StoredHashCorrupt(errors.New("bad phc")), "STORED_HASH_CORRUPT", http.StatusInternalServerError},
		{"audit_immutable", apperr.AuditImmutable(), "AUDIT_IMMUTABLE", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

/*
TestRetryAfter checks that lockout and throttling errors carry the header value.
*/
func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 900, apperr.LoginLocked(900).RetryAfter)
	assert.Equal(t, 60, apperr.RateLimited(60).RetryAfter)
	assert.Zero(t, apperr.NotFound("User").RetryAfter)
}

/*
TestInternal_HidesCause ensures the wrapped cause never reaches the client message.
*/
func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Message, "connection refused")
	assert.ErrorIs(t, err, cause)
}

/*
TestAs_TraversesWrapping verifies extraction through fmt.Errorf chains.
*/
func TestAs_TraversesWrapping(t *testing.T) {
	inner := apperr.ConflictCode("OVERLAPPING_REQUEST", "Dates overlap an existing request")
	wrapped := fmt.Errorf("create vacation request: %w", inner)

	require.True(t, apperr.IsAppError(wrapped))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "OVERLAPPING_REQUEST", ae.Code)

	assert.True(t, apperr.IsCode(wrapped, "OVERLAPPING_REQUEST"))
	assert.False(t, apperr.IsCode(wrapped, "NOT_PENDING"))
	assert.Nil(t, apperr.As(errors.New("plain")))
}
