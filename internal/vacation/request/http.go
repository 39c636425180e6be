// Copyright (c) 2026 Vacaplan. All rights reserved.

package request

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
	"github.com/vacaplan/vacaplan/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for vacation requests. The balance
// endpoint is owned by the calendar package and mounted here so all
// vacation reads live under one prefix.
type Handler struct {
	service *Service
	balance http.HandlerFunc
}

// NewHandler constructs a request [Handler].
func NewHandler(service *Service, balance http.HandlerFunc) *Handler {
	return &Handler{service: service, balance: balance}
}

// Routes returns a [chi.Router] configured with vacation endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/balance", handler.balance)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.modify)
	router.Post("/{id}/submit", handler.submit)
	router.Post("/{id}/approve", handler.approve)
	router.Post("/{id}/reject", handler.reject)
	router.Post("/{id}/cancel", handler.cancel)

	return router
}

// # Endpoints

/*
GET /api/v1/vacations.

Request (Query):
  - user_id, team_id, status, type: Filters
  - from, to: Date bounds (YYYY-MM-DD)
  - page, limit: Pagination

Response:
  - 200: []Request: Scoped to the caller's visibility
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	filter := Filter{
		UserID: query.Get("user_id"),
		TeamID: query.Get("team_id"),
		Status: Status(query.Get("status")),
		Type:   Type(query.Get("type")),
	}
	if from, err := time.Parse("2006-01-02", query.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", query.Get("to")); err == nil {
		filter.To = &to
	}

	params := pagination.FromRequest(request)
	requests, total, err := handler.service.List(request.Context(), principal, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, requests, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/vacations.

Request (Body):
  - { "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD",
    "type": "annual|sick|personal|unpaid|other", "reason"?: "string",
    "team_id"?: "uuid", "draft"?: bool }

Response:
  - 201: Request: Created in pending (or draft) status
  - 400: DATE_IN_PAST | NO_ACTIVE_PERIOD | Validation
  - 409: OVERLAPPING_REQUEST: Range intersects an existing request
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
GET /api/v1/vacations/{id}.

Response:
  - 200: Request: Success
  - 404: ErrNotFound: Missing, foreign, or out-of-scope request
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.Get(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
PUT /api/v1/vacations/{id}.

Response:
  - 200: Request: Updated draft
  - 409: NOT_PENDING: The request left draft
*/
func (handler *Handler) modify(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Modify(request.Context(), principal, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
POST /api/v1/vacations/{id}/submit.

Response:
  - 200: Request: Now pending
  - 400: DATE_IN_PAST: The draft sat past its start date
  - 409: NOT_PENDING | OVERLAPPING_REQUEST
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	submitted, err := handler.service.Submit(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, submitted)
}

/*
POST /api/v1/vacations/{id}/approve.

Response:
  - 200: Request: Approved; allocation debited
  - 403: ErrForbidden: Not a manager of the owner's team, or self-approval
  - 409: NOT_PENDING | ALLOCATION_EXCEEDED
*/
func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	approved, err := handler.service.Approve(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, approved)
}

/*
POST /api/v1/vacations/{id}/reject.

Request (Body):
  - { "reason": "string" }

Response:
  - 200: Request: Rejected with reason
  - 409: NOT_PENDING: Already decided
*/
func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rejected, err := handler.service.Reject(request.Context(), principal, requestutil.ID(request, "id"), input.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rejected)
}

/*
POST /api/v1/vacations/{id}/cancel.

Response:
  - 200: Request: Cancelled (withdrawn when the owner cancels an
    approved request pre-start); approved days credited back
  - 409: NOT_PENDING | CONFLICT
*/
func (handler *Handler) cancel(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cancelled, err := handler.service.Cancel(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, cancelled)
}
