// Copyright (c) 2026 Vacaplan. All rights reserved.

package function

import (
	"context"
	"log/slog"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business rules for departments.
type Service struct {
	repo     Repository
	kernel   *authz.Kernel
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a function [Service].
func NewService(repo Repository, kernel *authz.Kernel, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		kernel:   kernel,
		recorder: recorder,
		logger:   logger,
	}
}

// # Department Management

/*
ListFunctions returns the departments of the caller's own company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - companyID: string (Must be the caller's company)

Returns:
  - []*Function: Company departments
  - error: ErrNotFound for foreign companies, retrieval failures
*/
func (service *Service) ListFunctions(context context.Context, principal authz.Principal, companyID string) ([]*Function, error) {
	if err := service.kernel.CheckTenant(principal, companyID, string(authz.ResourceFunction)); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceFunction,
	}); err != nil {
		return nil, err
	}

	return service.repo.ListByCompany(context, companyID)
}

/*
GetFunction retrieves a single department in the caller's company.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (Function UUID)

Returns:
  - *Function: Hydrated entity
  - error: ErrNotFound for missing or foreign functions
*/
func (service *Service) GetFunction(context context.Context, principal authz.Principal, id string) (*Function, error) {
	found, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.kernel.CheckTenant(principal, found.CompanyID, string(authz.ResourceFunction)); err != nil {
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceFunction,
	}); err != nil {
		return nil, err
	}

	return found, nil
}

/*
CreateFunction adds a department to the caller's company. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: *Function (Name and Code)

Returns:
  - *Function: Created entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) CreateFunction(context context.Context, principal authz.Principal, input *Function) (*Function, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbCreate,
		Resource: authz.ResourceFunction,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	validator.Required(FieldCode, input.Code).MaxLen(FieldCode, input.Code, 20)
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
		Action:     audit.ActionFunctionCreated,
		EntityType: string(authz.ResourceFunction),
		EntityID:   &input.ID,
		After:      map[string]any{"name": input.Name, "code": input.Code},
	})

	return input, nil
}

/*
UpdateFunction renames a department or changes its code. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: *Function (ID plus new field values)

Returns:
  - *Function: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdateFunction(context context.Context, principal authz.Principal, input *Function) (*Function, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbUpdate,
		Resource: authz.ResourceFunction,
	}); err != nil {
		return nil, err
	}

	current, err := service.repo.FindByID(context, input.ID)
	if err != nil {
		return nil, err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceFunction)); err != nil {
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
		Action:     audit.ActionFunctionUpdated,
		EntityType: string(authz.ResourceFunction),
		EntityID:   &updated.ID,
		Before:     map[string]any{"name": current.Name, "code": current.Code},
		After:      map[string]any{"name": updated.Name, "code": updated.Code},
	})

	return &updated, nil
}

/*
DeleteFunction soft-deletes a department. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (Function UUID)

Returns:
  - error: Authorization or persistence failures
*/
func (service *Service) DeleteFunction(context context.Context, principal authz.Principal, id string) error {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete,
		Resource: authz.ResourceFunction,
	}); err != nil {
		return err
	}

	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceFunction)); err != nil {
		return err
	}

	if err := service.repo.SoftDelete(context, id); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionFunctionDeleted,
		EntityType: string(authz.ResourceFunction),
		EntityID:   &id,
		Before:     map[string]any{"name": current.Name, "code": current.Code},
	})

	service.logger.Info("function_deleted",
		slog.String("function_id", id),
		slog.String("actor_id", principal.UserID),
	)

	return nil
}
