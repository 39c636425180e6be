// Copyright (c) 2026 Vacaplan. All rights reserved.

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/ctxutil"
	"github.com/vacaplan/vacaplan/internal/platform/middleware"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.AccessClaims
	err    error
}

func (s stubVerifier) VerifyToken(string) (*sec.AccessClaims, error) {
	return s.claims, s.err
}

type stubResolver struct {
	principal *authz.Principal
	err       error
}

func (s stubResolver) ResolvePrincipal(context.Context, string) (*authz.Principal, error) {
	return s.principal, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestSecurityHeaders verifies the hardening header set on every response.
*/
func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders()(okHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	header := recorder.Header()
	assert.Contains(t, header.Get("Strict-Transport-Security"), "max-age=")
	assert.Equal(t, "nosniff", header.Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", header.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", header.Get("Referrer-Policy"))
	assert.NotEmpty(t, header.Get("Content-Security-Policy"))
}

/*
TestRequestID checks generation and passthrough of the correlation ID.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))
	})

	t.Run("client_provided", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Request-ID", "abc-123")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "abc-123", seen)
	})
}

/*
TestAuthenticate covers anonymous passthrough, invalid tokens, and
principal injection.
*/
func TestAuthenticate(t *testing.T) {
	claims := &sec.AccessClaims{CompanyID: "co-1", Role: "user", TokenType: "access"}
	principal := &authz.Principal{UserID: "user-1", CompanyID: "co-1", Role: sec.RoleUser}

	t.Run("anonymous_passes_through", func(t *testing.T) {
		handler := middleware.Authenticate(stubVerifier{}, stubResolver{})(http.HandlerFunc(
			func(writer http.ResponseWriter, request *http.Request) {
				assert.Nil(t, ctxutil.GetPrincipal(request.Context()))
				writer.WriteHeader(http.StatusOK)
			}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("bad_format_rejected", func(t *testing.T) {
		handler := middleware.Authenticate(stubVerifier{}, stubResolver{})(okHandler())

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Token abc")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("invalid_token_rejected", func(t *testing.T) {
		handler := middleware.Authenticate(
			stubVerifier{err: sec.ErrTokenExpired},
			stubResolver{},
		)(okHandler())

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer stale")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid_token_injects_principal", func(t *testing.T) {
		handler := middleware.Authenticate(
			stubVerifier{claims: claims},
			stubResolver{principal: principal},
		)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			resolved := ctxutil.GetPrincipal(request.Context())
			require.NotNil(t, resolved)
			assert.Equal(t, "user-1", resolved.UserID)
			writer.WriteHeader(http.StatusOK)
		}))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer good")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

/*
TestRequireRole verifies the coarse role gate.
*/
func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		principal  *authz.Principal
		minimum    sec.UserRole
		wantStatus int
	}{
		{"anonymous", nil, sec.RoleUser, http.StatusUnauthorized},
		{"user_meets_user", &authz.Principal{Role: sec.RoleUser}, sec.RoleUser, http.StatusOK},
		{"user_below_manager", &authz.Principal{Role: sec.RoleUser}, sec.RoleManager, http.StatusForbidden},
		{"manager_meets_manager", &authz.Principal{Role: sec.RoleManager}, sec.RoleManager, http.StatusOK},
		{"admin_meets_all", &authz.Principal{Role: sec.RoleAdmin}, sec.RoleManager, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireRole(tt.minimum)(okHandler())

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				ctx := ctxutil.WithPrincipal(request.Context(), tt.principal)
				request = request.WithContext(ctx)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
