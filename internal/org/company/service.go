// Copyright (c) 2026 Vacaplan. All rights reserved.

package company

import (
	"context"
	"log/slog"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/pkg/slug"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business rules for tenants.
type Service struct {
	repo     Repository
	kernel   *authz.Kernel
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a company [Service].
func NewService(repo Repository, kernel *authz.Kernel, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		kernel:   kernel,
		recorder: recorder,
		logger:   logger,
	}
}

// # Company Management

/*
GetCompany retrieves the caller's company. Any role may read its own
tenant; a foreign id reads as not found.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (Company UUID)

Returns:
  - *Company: Hydrated entity
  - error: ErrNotFound for missing or foreign companies
*/
func (service *Service) GetCompany(context context.Context, principal authz.Principal, id string) (*Company, error) {
	if err := service.kernel.CheckTenant(principal, id, string(authz.ResourceCompany)); err != nil {
		service.auditCrossTenant(context, principal, id)
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceCompany,
	}); err != nil {
		return nil, err
	}

	return service.repo.FindByID(context, id)
}

/*
CreateCompany provisions a new tenant with default policy. Reached only
from the seed path, never from the HTTP surface.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Company: Created tenant
  - error: Validation or persistence failures
*/
func (service *Service) CreateCompany(context context.Context, name string) (*Company, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, name).MaxLen(FieldName, name, 200)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	created := &Company{
		ID:       uuidv7.New(),
		Name:     name,
		Slug:     slug.From(name),
		Settings: DefaultSettings(),
	}

	if err := service.repo.Create(context, created); err != nil {
		return nil, err
	}

	service.logger.Info("company_created",
		slog.String("company_id", created.ID),
		slog.String("slug", created.Slug),
	)

	return created, nil
}

/*
UpdateCompany modifies name, domain, and policy settings. Admin only;
the change is audited with before and after snapshots.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: *Company (ID plus the new field values)

Returns:
  - *Company: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdateCompany(context context.Context, principal authz.Principal, input *Company) (*Company, error) {
	if err := service.kernel.CheckTenant(principal, input.ID, string(authz.ResourceCompany)); err != nil {
		service.auditCrossTenant(context, principal, input.ID)
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbUpdate,
		Resource: authz.ResourceCompany,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	current, err := service.repo.FindByID(context, input.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = input.Name
	updated.Domain = input.Domain
	updated.Settings = input.Settings

	if err := service.repo.Update(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionCompanyUpdated,
		EntityType: string(authz.ResourceCompany),
		EntityID:   &updated.ID,
		Before:     map[string]any{"name": current.Name, "settings": current.Settings},
		After:      map[string]any{"name": updated.Name, "settings": updated.Settings},
	})

	return &updated, nil
}

func (service *Service) auditCrossTenant(context context.Context, principal authz.Principal, target string) {
	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionCrossTenantDenied,
		EntityType: string(authz.ResourceCompany),
		EntityID:   &target,
	})
}
