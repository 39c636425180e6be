// Copyright (c) 2026 Vacaplan. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/pkg/convert"
	"github.com/vacaplan/vacaplan/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for user and invite operations.
type Handler struct {
	service *Service
}

// NewHandler constructs an account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with user endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", handler.getMe)
	router.Get("/", handler.listUsers)
	router.Get("/{id}", handler.getUser)
	router.Put("/{id}", handler.updateUser)
	router.Delete("/{id}", handler.deactivateUser)

	return router
}

// InviteRoutes returns a [chi.Router] with the admin invite endpoints.
func (handler *Handler) InviteRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createInvite)
	router.Get("/", handler.listInvites)
	router.Delete("/{id}", handler.revokeInvite)

	return router
}

// # User Endpoints

/*
GET /api/v1/users/me.

Response:
  - 200: User: The caller's own account
  - 401: ErrUnauthorized: Missing authentication
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	me, err := handler.service.GetMe(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, me)
}

/*
GET /api/v1/users.

Request (Query):
  - q: Matches name or email
  - role, function_id, team_id, is_active: Filters
  - page, limit: Pagination

Response:
  - 200: []User: Scoped to the caller's visibility
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	filter := Filter{
		Query:      query.Get("q"),
		Role:       sec.UserRole(query.Get("role")),
		FunctionID: query.Get("function_id"),
		TeamID:     query.Get("team_id"),
	}
	if raw := query.Get("is_active"); raw != "" {
		active := convert.ToBool(raw)
		filter.IsActive = &active
	}

	params := pagination.FromRequest(request)
	users, total, err := handler.service.ListUsers(request.Context(), principal, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/users/{id}.

Response:
  - 200: User: Success
  - 404: ErrNotFound: Missing, foreign, or out-of-scope user
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUser(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/users/{id}.

Request (Body):
  - { "first_name": "string", "last_name": "string", "role"?: "string",
    "function_id"?: "uuid", "is_active"?: bool }

Response:
  - 200: User: Updated entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Privileged field without admin role
  - 404: ErrNotFound: Missing or foreign user
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateUserInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdateUser(request.Context(), principal, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/users/{id}.

Response:
  - 204: No Content: User deactivated, sessions revoked
  - 403: ErrForbidden: Admin role required, or self-deactivation
  - 404: ErrNotFound: Missing or foreign user
*/
func (handler *Handler) deactivateUser(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeactivateUser(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Invite Endpoints

/*
POST /api/v1/admin/invites.

Request (Body):
  - { "email": "string", "role": "string", "function_id"?: "uuid",
    "team_ids"?: ["uuid"] }

Response:
  - 201: Invite: Created (the raw token travels only in the email)
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 409: DUPLICATE: Email already has an account
*/
func (handler *Handler) createInvite(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInviteInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	invite, err := handler.service.CreateInvite(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, invite)
}

/*
GET /api/v1/admin/invites.

Response:
  - 200: []Invite: Open and used invites, newest first
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) listInvites(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	invites, err := handler.service.ListInvites(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, invites)
}

/*
DELETE /api/v1/admin/invites/{id}.

Response:
  - 204: No Content: Invite revoked
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or already used invite
*/
func (handler *Handler) revokeInvite(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RevokeInvite(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
