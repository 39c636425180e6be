// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package apperr defines the centralized error handling framework for Vacaplan.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Stable codes: Clients branch on Code strings, never on message text.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Vacaplan API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "NOT_PENDING").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// RetryAfter, when positive, is surfaced as the Retry-After response header.
	RetryAfter int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Vacation request") // Returns "Vacation request not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError] for requests lacking valid authentication.
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidCredential creates a 401 [AppError] for failed login verification.
// The message is identical for unknown email and wrong password.
func InvalidCredential() *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIAL",
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// RefreshReplay creates a 401 [AppError] raised when a revoked refresh token
// is presented again. All sessions of the user are revoked when this fires.
func RefreshReplay() *AppError {
	return &AppError{
		Code:       "REFRESH_REPLAY_DETECTED",
		Message:    "Refresh token reuse detected; all sessions have been revoked",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// LoginLocked creates a 423 [AppError] for accounts under a lockout latch.
func LoginLocked(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "LOGIN_LOCKED",
		Message:    "Account temporarily locked due to repeated failed logins",
		HTTPStatus: http.StatusLocked,
		RetryAfter: retryAfterSeconds,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ConflictCode creates a 409 [AppError] with an explicit subtype code.
// Known subtypes: OVERLAPPING_REQUEST, NOT_PENDING, ALLOCATION_EXCEEDED, DUPLICATE.
func ConflictCode(code, msg string) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// WeakPassword creates a 400 [AppError] carrying the first failing policy rule.
func WeakPassword(rule string) *AppError {
	return &AppError{
		Code:       "WEAK_PASSWORD",
		Message:    rule,
		HTTPStatus: http.StatusBadRequest,
	}
}

// DateInPast creates a 400 [AppError] for vacation requests starting before today.
func DateInPast() *AppError {
	return &AppError{
		Code:       "DATE_IN_PAST",
		Message:    "Start date must be today or later",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NoActivePeriod creates a 400 [AppError] when no vacation period covers a date.
func NoActivePeriod() *AppError {
	return &AppError{
		Code:       "NO_ACTIVE_PERIOD",
		Message:    "No active vacation period covers the requested date",
		HTTPStatus: http.StatusBadRequest,
	}
}

// InviteInvalid creates a 400 [AppError] for expired, used, or unknown invites.
// The message never distinguishes the three cases.
func InviteInvalid() *AppError {
	return &AppError{
		Code:       "INVITE_INVALID",
		Message:    "Invite token is invalid or has expired",
		HTTPStatus: http.StatusBadRequest,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfterSeconds,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Timeout creates a 500 [AppError] for store operations that exceeded their deadline.
// The surrounding transaction has been rolled back when this is returned.
func Timeout(cause error) *AppError {
	return &AppError{
		Code:       "TIMEOUT",
		Message:    "The operation timed out",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// StoredHashCorrupt creates a 500 [AppError] for password records that cannot
// be parsed. This indicates data corruption, never user error.
func StoredHashCorrupt(cause error) *AppError {
	return &AppError{
		Code:       "STORED_HASH_CORRUPT",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// AuditImmutable creates a 500 [AppError] for attempted mutation of audit rows.
func AuditImmutable() *AppError {
	return &AppError{
		Code:       "AUDIT_IMMUTABLE",
		Message:    "Audit events cannot be modified",
		HTTPStatus: http.StatusConflict,
	}
}

// ServiceUnavailable creates a 503 [AppError] for failed readiness probes.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsCode reports whether err carries the given stable error code.
func IsCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
