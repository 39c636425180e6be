// Copyright (c) 2026 Vacaplan. All rights reserved.

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/ctxkey"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithClaims returns a new context with verified access-token claims attached.
func WithClaims(ctx context.Context, claims *sec.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClaims, claims)
}

// GetClaims retrieves the [*sec.AccessClaims] from the [context.Context].
// Returns nil for unauthenticated requests.
func GetClaims(ctx context.Context) *sec.AccessClaims {
	claims, ok := ctx.Value(ctxkey.KeyClaims).(*sec.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithPrincipal returns a new context with the resolved principal attached.
func WithPrincipal(ctx context.Context, principal *authz.Principal) context.Context {
	return context.WithValue(ctx, ctxkey.KeyPrincipal, principal)
}

// GetPrincipal retrieves the [*authz.Principal] from the [context.Context].
//
// The principal exists only downstream of the principal middleware; it
// carries the role and managed teams as re-read from the identity store
// for this request.
func GetPrincipal(ctx context.Context) *authz.Principal {
	principal, ok := ctx.Value(ctxkey.KeyPrincipal).(*authz.Principal)
	if !ok {
		return nil
	}
	return principal
}
