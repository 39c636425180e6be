// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/org/function"
	"github.com/vacaplan/vacaplan/internal/org/team"
	"github.com/vacaplan/vacaplan/internal/platform/config"
	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/internal/platform/metrics"
	"github.com/vacaplan/vacaplan/internal/platform/middleware"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/internal/users/auth"
	"github.com/vacaplan/vacaplan/internal/vacation/export"
	"github.com/vacaplan/vacaplan/internal/vacation/period"
	"github.com/vacaplan/vacaplan/internal/vacation/request"
	"github.com/vacaplan/vacaplan/pkg/query"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the session lifecycle (login, refresh, invites, resets).
	Auth *auth.Handler

	// Account handles user and invite administration.
	Account *account.Handler

	// Company handles tenant settings and the org structure reads.
	Company *company.Handler

	// Function manages job function records.
	Function *function.Handler

	// Team manages teams, memberships, and manager assignments.
	Team *team.Handler

	// Period manages vacation periods and allocations.
	Period *period.Handler

	// Vacation drives the request state machine and balance reads.
	Vacation *request.Handler

	// Export streams CSV and XLSX downloads.
	Export *export.Handler

	// Audit serves the administrative audit-log queries.
	Audit *audit.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(
	context context.Context,
	cfg *config.Config,
	log *slog.Logger,
	verifier middleware.TokenVerifier,
	resolver middleware.PrincipalResolver,
	gate *ratelimit.RateGate,
	m *metrics.Metrics,
	h Handlers,
) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(m.Middleware())
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Authenticate(verifier, resolver))
	r.Use(ratelimit.Middleware(gate))
	r.Use(middleware.CORS(cfg, query.StringSlice(cfg.ExtraOrigins)))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())

		api.Group(func(authenticated chi.Router) {
			authenticated.Use(middleware.RequireAuth)

			authenticated.Mount("/users", h.Account.Routes())
			authenticated.Mount("/admin/invites", h.Account.InviteRoutes())
			authenticated.Mount("/companies", h.Company.Routes())
			authenticated.Mount("/functions", h.Function.Routes())
			authenticated.Mount("/teams", h.Team.Routes())
			authenticated.Mount("/periods", h.Period.Routes())
			authenticated.Mount("/allocations", h.Period.AllocationRoutes())
			authenticated.Mount("/vacations", h.Vacation.Routes())
			authenticated.Mount("/exports", h.Export.Routes())
			authenticated.Mount("/audit-logs", h.Audit.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
