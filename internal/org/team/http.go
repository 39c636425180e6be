// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package team HTTP layer.

# Routing Strategy

  - Authenticated: Reads are open to every role within the company.
  - Restricted: Team CRUD and manager assignment are admin only;
    membership changes additionally allow managers on their own teams.
    Enforcement lives in the service via the authorization kernel.
*/
package team

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacaplan/vacaplan/internal/platform/constants"
	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for team operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a team [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with team endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createTeam)

	router.Route("/{id}", func(subRouter chi.Router) {
		subRouter.Get("/", handler.getTeam)
		subRouter.Put("/", handler.updateTeam)
		subRouter.Delete("/", handler.deleteTeam)

		subRouter.Route("/members", func(members chi.Router) {
			members.Get("/", handler.listMembers)
			members.Post("/", handler.addMember)
			members.Delete("/{userID}", handler.removeMember)
		})

		subRouter.Route("/managers", func(managers chi.Router) {
			managers.Get("/", handler.listManagers)
			managers.Post("/", handler.assignManager)
			managers.Delete("/{managerID}", handler.unassignManager)
		})
	})

	return router
}

// # Team Endpoints

/*
GET /api/v1/teams/{id}.

Response:
  - 200: Team: Success
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Missing or foreign team
*/
func (handler *Handler) getTeam(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetTeam(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

/*
POST /api/v1/teams.

Description: Creates a team under a function of the caller's company.

Request (Body):
  - { "function_id": "string", "name": "string", "code": "string" }

Response:
  - 201: Team: Created entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 409: Conflict: Duplicate code within the function
*/
func (handler *Handler) createTeam(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Team
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateTeam(request.Context(), principal, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PUT /api/v1/teams/{id}.

Response:
  - 200: Team: Updated entity
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign team
*/
func (handler *Handler) updateTeam(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Team
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.ID = requestutil.ID(request, "id")

	updated, err := handler.service.UpdateTeam(request.Context(), principal, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/teams/{id}.

Response:
  - 204: No Content: Success
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Missing or foreign team
*/
func (handler *Handler) deleteTeam(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteTeam(request.Context(), principal, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Membership Endpoints

/*
GET /api/v1/teams/{id}/members.

Response:
  - 200: []Membership: Active roster
  - 404: ErrNotFound: Missing or foreign team
*/
func (handler *Handler) listMembers(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	members, err := handler.service.ListMembers(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, members)
}

/*
POST /api/v1/teams/{id}/members.

Description: Places a user on the team. Admins may touch any team in
their company, managers only teams they manage.

Request (Body):
  - { "user_id": "string", "is_primary": bool }

Response:
  - 201: Membership: Created affiliation
  - 403: ErrForbidden: Not admin or managing manager
  - 404: ErrNotFound: Missing or foreign team
  - 409: Conflict: Already an active member
*/
func (handler *Handler) addMember(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Membership
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.TeamID = requestutil.ID(request, "id")

	if err := handler.service.AddMember(request.Context(), principal, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, input)
}

/*
DELETE /api/v1/teams/{id}/members/{userID}.

Response:
  - 204: No Content: Success
  - 403: ErrForbidden: Not admin or managing manager
  - 404: ErrNotFound: No active membership
*/
func (handler *Handler) removeMember(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teamID := requestutil.ID(request, "id")
	userID := requestutil.ID(request, "userID")

	if err := handler.service.RemoveMember(request.Context(), principal, teamID, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Manager Endpoints

/*
GET /api/v1/teams/{id}/managers.

Response:
  - 200: []ManagerAssignment: Current assignments
  - 404: ErrNotFound: Missing or foreign team
*/
func (handler *Handler) listManagers(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	managers, err := handler.service.ListManagers(request.Context(), principal, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, managers)
}

/*
POST /api/v1/teams/{id}/managers.

Request (Body):
  - { "manager_id": "string" }

Response:
  - 201: Message: Success
  - 403: ErrForbidden: Admin role required
  - 409: Conflict: Assignment already exists
*/
func (handler *Handler) assignManager(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		ManagerID string `json:"manager_id"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	teamID := requestutil.ID(request, "id")
	if err := handler.service.AssignManager(request.Context(), principal, teamID, input.ManagerID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{constants.FieldMessage: "Manager assigned"})
}

/*
DELETE /api/v1/teams/{id}/managers/{managerID}.

Response:
  - 204: No Content: Success
  - 403: ErrForbidden: Admin role required
  - 404: ErrNotFound: Assignment not found
*/
func (handler *Handler) unassignManager(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teamID := requestutil.ID(request, "id")
	managerID := requestutil.ID(request, "managerID")

	if err := handler.service.UnassignManager(request.Context(), principal, teamID, managerID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
