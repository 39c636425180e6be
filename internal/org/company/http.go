// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package company HTTP layer.

# Routing Strategy

  - Authenticated: Every endpoint requires a principal; reads are open
    to all roles within their own company.
  - Restricted: Updates are admin only, enforced in the service.

The handler also serves the company-scoped listings of functions and
teams, delegating to their services.
*/
package company

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacaplan/vacaplan/internal/org/function"
	"github.com/vacaplan/vacaplan/internal/org/team"
	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for tenant operations.
type Handler struct {
	service   *Service
	functions *function.Service
	teams     *team.Service
}

// NewHandler constructs a company [Handler].
func NewHandler(service *Service, functions *function.Service, teams *team.Service) *Handler {
	return &Handler{
		service:   service,
		functions: functions,
		teams:     teams,
	}
}

// Routes returns a [chi.Router] configured with company endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{id}", handler.getCompany)
	router.Put("/{id}", handler.updateCompany)
	router.Get("/{id}/functions", handler.listFunctions)
	router.Get("/{id}/teams", handler.listTeams)

	return router
}

// # Company Endpoints

/*
GET /api/v1/companies/{id}.

Description: Retrieves the caller's company with its policy settings.

Request:
  - id: string (Company UUID)

Response:
  - 200: Company: Success
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Missing or foreign company
*/
func (handler *Handler) getCompany(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetCompany(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
PUT /api/v1/companies/{id}.

Description: Updates company name, domain, and policy settings.

Request:
  - id: string (Company UUID)
  - body: Company (JSON)

Response:
  - 200: Company: Updated entity
  - 400: Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign company
*/
func (handler *Handler) updateCompany(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Company
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.ID = requestutil.ID(request, "id")

	updated, err := handler.service.UpdateCompany(request.Context(), principal, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// # Organizational Listings

/*
GET /api/v1/companies/{id}/functions.

Description: Lists the departments of the caller's company.

Response:
  - 200: []Function: Success
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Foreign company
*/
func (handler *Handler) listFunctions(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	functions, err := handler.functions.ListFunctions(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, functions)
}

/*
GET /api/v1/companies/{id}/teams.

Description: Lists the teams of the caller's company.

Response:
  - 200: []Team: Success
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Foreign company
*/
func (handler *Handler) listTeams(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teams, err := handler.teams.ListTeams(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, teams)
}
