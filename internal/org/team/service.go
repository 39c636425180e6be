// Copyright (c) 2026 Vacaplan. All rights reserved.

package team

import (
	"context"
	"log/slog"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business rules for teams and memberships.
type Service struct {
	repo     Repository
	kernel   *authz.Kernel
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a team [Service].
func NewService(repo Repository, kernel *authz.Kernel, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		kernel:   kernel,
		recorder: recorder,
		logger:   logger,
	}
}

// # Team Management

/*
ListTeams returns the teams of the caller's own company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - companyID: string (Must be the caller's company)

Returns:
  - []*Team: Company teams
  - error: ErrNotFound for foreign companies, retrieval failures
*/
func (service *Service) ListTeams(context context.Context, principal authz.Principal, companyID string) ([]*Team, error) {
	if err := service.kernel.CheckTenant(principal, companyID, string(authz.ResourceTeam)); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceTeam,
	}); err != nil {
		return nil, err
	}

	return service.repo.ListByCompany(context, companyID)
}

/*
GetTeam retrieves a single team in the caller's company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (Team UUID)

Returns:
  - *Team: Hydrated entity
  - error: ErrNotFound for missing or foreign teams
*/
func (service *Service) GetTeam(context context.Context, principal authz.Principal, id string) (*Team, error) {
	found, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.kernel.CheckTenant(principal, found.CompanyID, string(authz.ResourceTeam)); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceTeam,
	}); err != nil {
		return nil, err
	}

	return found, nil
}

/*
CreateTeam adds a team under a function of the caller's company. Admin
only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: *Team (FunctionID, Name, Code)

Returns:
  - *Team: Created entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) CreateTeam(context context.Context, principal authz.Principal, input *Team) (*Team, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbCreate,
		Resource: authz.ResourceTeam,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	validator.Required(FieldCode, input.Code).MaxLen(FieldCode, input.Code, 20)
	validator.Required("function_id", input.FunctionID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	input.ID = uuidv7.New()
	input.CompanyID = principal.CompanyID

	if err := service.repo.Create(context, input); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionTeamCreated,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &input.ID,
		After:      map[string]any{"name": input.Name, "code": input.Code, "function_id": input.FunctionID},
	})

	return input, nil
}

/*
UpdateTeam renames a team or changes its code. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: *Team (ID plus new field values)

Returns:
  - *Team: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdateTeam(context context.Context, principal authz.Principal, input *Team) (*Team, error) {
	current, err := service.repo.FindByID(context, input.ID)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbUpdate,
		Resource: authz.ResourceTeam,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	validator.Required(FieldCode, input.Code).MaxLen(FieldCode, input.Code, 20)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = input.Name
	updated.Code = input.Code

	if err := service.repo.Update(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionTeamUpdated,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &updated.ID,
		Before:     map[string]any{"name": current.Name, "code": current.Code},
		After:      map[string]any{"name": updated.Name, "code": updated.Code},
	})

	return &updated, nil
}

/*
DeleteTeam soft-deletes a team. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (Team UUID)

Returns:
  - error: Authorization or persistence failures
*/
func (service *Service) DeleteTeam(context context.Context, principal authz.Principal, id string) error {
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete,
		Resource: authz.ResourceTeam,
	}); err != nil {
		return err
	}

	if err := service.repo.SoftDelete(context, id); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionTeamDeleted,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &id,
		Before:     map[string]any{"name": current.Name, "code": current.Code},
	})

	return nil
}

// # Membership Controls

/*
ListMembers returns the active roster of a team in the caller's company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - teamID: string

Returns:
  - []*Membership: Active members
  - error: ErrNotFound for foreign teams, retrieval failures
*/
func (service *Service) ListMembers(context context.Context, principal authz.Principal, teamID string) ([]*Membership, error) {
	if _, err := service.GetTeam(context, principal, teamID); err != nil {
		return nil, err
	}
	return service.repo.ListMembers(context, teamID)
}

/*
AddMember places a user on a team. Admins may touch any team in their
company; managers only teams they manage.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - membership: *Membership (TeamID, UserID, IsPrimary)

Returns:
  - error: Authorization failures, DUPLICATE conflict when the user is
    already an active member
*/
func (service *Service) AddMember(context context.Context, principal authz.Principal, membership *Membership) error {
	current, err := service.repo.FindByID(context, membership.TeamID)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbUpdate,
		Resource:     authz.ResourceTeam,
		TargetTeamID: membership.TeamID,
	}); err != nil {
		return err
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, membership.UserID)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.AddMember(context, membership); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionTeamMemberAdded,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &membership.TeamID,
		After:      map[string]any{"user_id": membership.UserID, "is_primary": membership.IsPrimary},
	})

	return nil
}

/*
RemoveMember takes a user off a team, retaining the historical row.
Admins may touch any team in their company; managers only teams they
manage.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - teamID: string
  - userID: string

Returns:
  - error: Authorization failures, ErrNotFound when no active
    membership exists
*/
func (service *Service) RemoveMember(context context.Context, principal authz.Principal, teamID, userID string) error {
	current, err := service.repo.FindByID(context, teamID)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbUpdate,
		Resource:     authz.ResourceTeam,
		TargetTeamID: teamID,
	}); err != nil {
		return err
	}

	if err := service.repo.RemoveMember(context, teamID, userID); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionTeamMemberRemoved,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &teamID,
		Before:     map[string]any{"user_id": userID},
	})

	return nil
}

// # Manager Assignments

/*
ListManagers returns the managers assigned to a team in the caller's
company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - teamID: string

Returns:
  - []*ManagerAssignment: Current assignments
  - error: ErrNotFound for foreign teams, retrieval failures
*/
func (service *Service) ListManagers(context context.Context, principal authz.Principal, teamID string) ([]*ManagerAssignment, error) {
	if _, err := service.GetTeam(context, principal, teamID); err != nil {
		return nil, err
	}
	return service.repo.ListManagers(context, teamID)
}

/*
AssignManager grants a manager decision authority over a team. Admin
only; the grant widens approval scope, so it is audited.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - teamID: string
  - managerID: string

Returns:
  - error: Authorization failures, DUPLICATE conflict for existing
    assignments
*/
func (service *Service) AssignManager(context context.Context, principal authz.Principal, teamID, managerID string) error {
	current, err := service.repo.FindByID(context, teamID)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete, // Admin-only lattice position
		Resource: authz.ResourceTeam,
	}); err != nil {
		return err
	}

	assignment := &ManagerAssignment{
		TeamID:     teamID,
		ManagerID:  managerID,
		AssignedBy: principal.UserID,
	}
	if err := service.repo.AssignManager(context, assignment); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionManagerAssigned,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &teamID,
		After:      map[string]any{"manager_id": managerID},
	})

	service.logger.Info("manager_assigned",
		slog.String("team_id", teamID),
		slog.String("manager_id", managerID),
		slog.String("assigned_by", principal.UserID),
	)

	return nil
}

/*
UnassignManager removes a manager's authority over a team. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - teamID: string
  - managerID: string

Returns:
  - error: Authorization failures, ErrNotFound when the assignment does
    not exist
*/
func (service *Service) UnassignManager(context context.Context, principal authz.Principal, teamID, managerID string) error {
	current, err := service.repo.FindByID(context, teamID)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceTeam)); err != nil {
		return err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete, // Admin-only lattice position
		Resource: authz.ResourceTeam,
	}); err != nil {
		return err
	}

	if err := service.repo.UnassignManager(context, teamID, managerID); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionManagerUnassigned,
		EntityType: string(authz.ResourceTeam),
		EntityID:   &teamID,
		Before:     map[string]any{"manager_id": managerID},
	})

	return nil
}
