// Copyright (c) 2026 Vacaplan. All rights reserved.

package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/internal/platform/ctxutil"
	"github.com/vacaplan/vacaplan/internal/platform/middleware"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// Middleware applies the api-default budget to every request and stamps
// X-RateLimit-Remaining on the response.
//
// Authenticated requests are keyed by user id, anonymous ones by client
// IP. Endpoint-specific categories (login, refresh, export, ...) are
// charged inside their services on top of this outer budget.
func Middleware(gate *RateGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := middleware.RealIP(request)
			if principal := ctxutil.GetPrincipal(request.Context()); principal != nil {
				key = principal.UserID
			}

			decision, err := gate.CheckAndRecord(request.Context(), CategoryAPIDefault, key)
			if err != nil {
				// A failing limiter denies; open-on-error would void the budget.
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			writer.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				respond.Error(writer, request, apperr.RateLimited(int(decision.RetryAfter.Seconds())))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
