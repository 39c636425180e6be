// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package audit HTTP layer.

# Routing Strategy

  - Restricted: All endpoints require the admin role; visibility is
    limited to the caller's own company.
  - Read-only: Mutating verbs are registered only to fail loudly with
    AUDIT_IMMUTABLE instead of a generic 405.
*/
package audit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
	"github.com/vacaplan/vacaplan/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for audit trail queries.
type Handler struct {
	recorder *Recorder
}

// NewHandler constructs a new audit [Handler].
func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// Routes returns a [chi.Router] with the audit trail endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listEvents)
	router.Get("/{id}", handler.getEvent)

	// The trail is append-only; modification attempts get a stable code.
	router.Put("/{id}", handler.rejectMutation)
	router.Patch("/{id}", handler.rejectMutation)
	router.Delete("/{id}", handler.rejectMutation)

	return router
}

// # Audit Endpoints

/*
GET /api/v1/audit-logs.

Description: Retrieves a paginated page of the caller's company trail,
newest first. Admin only.

Request:
  - actor: string (Filter by actor UUID)
  - action: string (Filter by action code)
  - entity_type: string
  - entity_id: string
  - from, to: string (RFC 3339 window bounds)
  - limit: int
  - page: int

Response:
  - 200: []Event: Paginated trail page
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) listEvents(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		ActorID:    queryParams.Get("actor"),
		Action:     Action(queryParams.Get(FieldAction)),
		EntityType: queryParams.Get(FieldEntityType),
		EntityID:   queryParams.Get("entity_id"),
	}

	if from := queryParams.Get(FieldFrom); from != "" {
		parsed, parseErr := time.Parse(time.RFC3339, from)
		if parseErr != nil {
			respond.Error(writer, request, apperr.ValidationError("Invalid time window",
				apperr.FieldError{Field: FieldFrom, Message: "must be an RFC 3339 timestamp"}))
			return
		}
		filter.From = &parsed
	}

	if to := queryParams.Get(FieldTo); to != "" {
		parsed, parseErr := time.Parse(time.RFC3339, to)
		if parseErr != nil {
			respond.Error(writer, request, apperr.ValidationError("Invalid time window",
				apperr.FieldError{Field: FieldTo, Message: "must be an RFC 3339 timestamp"}))
			return
		}
		filter.To = &parsed
	}

	events, total, err := handler.recorder.Query(request.Context(), principal, filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, events, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/audit-logs/{id}.

Description: Retrieves a single audit event from the caller's company
trail. Admin only.

Request:
  - id: string (Event UUID)

Response:
  - 200: Event: Success
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Event missing or outside the caller's company
*/
func (handler *Handler) getEvent(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	event, err := handler.recorder.GetEvent(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, event)
}

// rejectMutation answers every write attempt against the trail.
func (handler *Handler) rejectMutation(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, apperr.AuditImmutable())
}
