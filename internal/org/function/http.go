// Copyright (c) 2026 Vacaplan. All rights reserved.

package function

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for department operations. The
// company-scoped listing lives on the company router; this router
// carries the admin CRUD surface.
type Handler struct {
	service *Service
}

// NewHandler constructs a function [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with function endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createFunction)
	router.Get("/{id}", handler.getFunction)
	router.Put("/{id}", handler.updateFunction)
	router.Delete("/{id}", handler.deleteFunction)

	return router
}

// # Function Endpoints

/*
POST /api/v1/functions.

Request (Body):
  - { "name": "string", "code": "string" }

Response:
  - 201: Function: Created entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 409: Conflict: Duplicate code within the company
*/
func (handler *Handler) createFunction(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Function
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateFunction(request.Context(), principal, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
GET /api/v1/functions/{id}.

Response:
  - 200: Function: Success
  - 404: ErrNotFound: Missing or foreign function
*/
func (handler *Handler) getFunction(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetFunction(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
PUT /api/v1/functions/{id}.

Response:
  - 200: Function: Updated entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign function
*/
func (handler *Handler) updateFunction(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Function
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.ID = requestutil.ID(request, "id")

	updated, err := handler.service.UpdateFunction(request.Context(), principal, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/functions/{id}.

Response:
  - 204: No Content: Success
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign function
*/
func (handler *Handler) deleteFunction(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteFunction(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
