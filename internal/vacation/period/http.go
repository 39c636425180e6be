// Copyright (c) 2026 Vacaplan. All rights reserved.

package period

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for periods and allocations.
type Handler struct {
	service *Service
}

// NewHandler constructs a calendar [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with period endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listPeriods)
	router.Post("/", handler.createPeriod)
	router.Get("/{id}", handler.getPeriod)
	router.Put("/{id}", handler.updatePeriod)
	router.Delete("/{id}", handler.deactivatePeriod)
	router.Get("/{id}/allocations", handler.listAllocations)

	return router
}

// AllocationRoutes returns a [chi.Router] with the admin allocation
// endpoints.
func (handler *Handler) AllocationRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createAllocation)
	router.Put("/{id}", handler.updateAllocation)

	return router
}

// # Period Endpoints

/*
GET /api/v1/periods.

Response:
  - 200: []Period: The caller's company periods, earliest first
*/
func (handler *Handler) listPeriods(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	periods, err := handler.service.ListPeriods(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, periods)
}

/*
POST /api/v1/periods.

Request (Body):
  - { "name": "string", "start_date": "YYYY-MM-DD",
    "end_date": "YYYY-MM-DD", "is_default": bool, "is_active": bool }

Response:
  - 201: Period: Created entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) createPeriod(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input PeriodInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreatePeriod(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
GET /api/v1/periods/{id}.

Response:
  - 200: Period: Success
  - 404: ErrNotFound: Missing or foreign period
*/
func (handler *Handler) getPeriod(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetPeriod(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
PUT /api/v1/periods/{id}.

Response:
  - 200: Period: Updated entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign period
*/
func (handler *Handler) updatePeriod(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input PeriodInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdatePeriod(request.Context(), principal, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/periods/{id}.

Response:
  - 204: No Content: Period retired from resolution
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign period
*/
func (handler *Handler) deactivatePeriod(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeactivatePeriod(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Allocation Endpoints

/*
GET /api/v1/periods/{id}/allocations.

Response:
  - 200: []Allocation: Scoped to the caller's visibility
  - 404: ErrNotFound: Missing or foreign period
*/
func (handler *Handler) listAllocations(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	allocations, err := handler.service.ListAllocations(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, allocations)
}

/*
POST /api/v1/allocations.

Request (Body):
  - { "user_id": "uuid", "period_id": "uuid", "total_days": int,
    "carried_over_days": int, "notes"?: "string" }

Response:
  - 201: Allocation: Created entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 409: DUPLICATE: The (user, period) pair already has an allocation
*/
func (handler *Handler) createAllocation(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input AllocationInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateAllocation(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PUT /api/v1/allocations/{id}.

Response:
  - 200: Allocation: Updated entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign allocation
*/
func (handler *Handler) updateAllocation(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input AllocationInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdateAllocation(request.Context(), principal, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
GET /api/v1/vacations/balance.

Request (Query):
  - user_id: Another user's balance (admin only)

Response:
  - 200: []Balance: One entry per allocation, newest period first
  - 403: ErrForbidden: user_id given without admin role
*/
func (handler *Handler) GetBalance(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	balances, err := handler.service.Balances(request.Context(), principal, request.URL.Query().Get("user_id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, balances)
}
