// Copyright (c) 2026 Vacaplan. All rights reserved.

package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/notify"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/platform/validate"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// inviteTTL is how long an issued invite can be accepted.
const inviteTTL = 7 * 24 * time.Hour

// # Service Layer

// Service orchestrates identity, placement, and invite operations.
type Service struct {
	repo      Repository
	companies company.Repository
	kernel    *authz.Kernel
	recorder  *audit.Recorder
	notifier  *notify.Service
	clock     clock.Clock
	logger    *slog.Logger
}

// NewService constructs an account [Service].
func NewService(
	repo Repository,
	companies company.Repository,
	kernel *authz.Kernel,
	recorder *audit.Recorder,
	notifier *notify.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		kernel:    kernel,
		recorder:  recorder,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
	}
}

// # Principal Resolution

/*
ResolvePrincipal rebuilds the live principal for an authenticated subject.

Description: Called by the authentication middleware on every request.
Role, company, and managed teams come from the identity store, not from
token claims, so a demotion or deactivation takes effect on the next
request rather than at token expiry.

Parameters:
  - context: context.Context
  - userID: string (Token subject)

Returns:
  - *authz.Principal: Live actor
  - error: ErrNotFound when the account is missing, deleted, or inactive
*/
func (service *Service) ResolvePrincipal(context context.Context, userID string) (*authz.Principal, error) {
	user, err := service.repo.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Account is not active")
	}

	managed, err := service.repo.ManagedTeamIDs(context, userID)
	if err != nil {
		return nil, err
	}

	return &authz.Principal{
		UserID:         user.ID,
		CompanyID:      user.CompanyID,
		Role:           user.Role,
		ManagedTeamIDs: managed,
	}, nil
}

// # User Management

/*
GetMe returns the caller's own account.

Parameters:
  - context: context.Context
  - principal: authz.Principal

Returns:
  - *User: The caller's account
  - error: Retrieval failures
*/
func (service *Service) GetMe(context context.Context, principal authz.Principal) (*User, error) {
	return service.repo.FindByID(context, principal.UserID)
}

/*
ListUsers returns the users visible to the caller.

Description: Visibility follows the role lattice. Admins see the whole
company, managers their managed teams plus themselves, plain users only
themselves. The scope emitted by the kernel is applied inside the query.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - filter: Filter
  - limit, offset: int

Returns:
  - []*User: Visible users
  - int: Total matching count
  - error: Authorization or retrieval failures
*/
func (service *Service) ListUsers(context context.Context, principal authz.Principal, filter Filter, limit, offset int) ([]*User, int, error) {
	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceUser,
	})
	if err != nil {
		return nil, 0, err
	}

	return service.repo.List(context, scope, filter, limit, offset)
}

/*
GetUser retrieves one user within the caller's visibility.

Description: The record is loaded first, then checked against the
caller's scope; an out-of-scope or foreign-tenant user reads as missing.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (User UUID)

Returns:
  - *User: Hydrated entity
  - error: ErrNotFound for missing, foreign, or out-of-scope users
*/
func (service *Service) GetUser(context context.Context, principal authz.Principal, id string) (*User, error) {
	user, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.kernel.CheckTenant(principal, user.CompanyID, string(authz.ResourceUser)); err != nil {
		service.auditCrossTenant(context, principal, string(authz.ResourceUser), id)
		return nil, err
	}

	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbRead,
		Resource: authz.ResourceUser,
	})
	if err != nil {
		return nil, err
	}

	if !scope.Unrestricted() && !service.inScope(context, scope, user) {
		// Out-of-scope reads as missing so rosters never leak.
		return nil, apperr.NotFound("User")
	}

	return user, nil
}

// inScope checks a loaded user against a restricted scope predicate.
func (service *Service) inScope(context context.Context, scope authz.Scope, user *User) bool {
	if scope.UserID != nil && *scope.UserID == user.ID {
		return true
	}
	if len(scope.TeamIDs) == 0 {
		return false
	}

	teamIDs, err := service.repo.TeamIDs(context, user.ID)
	if err != nil {
		return false
	}
	for _, teamID := range teamIDs {
		for _, scoped := range scope.TeamIDs {
			if teamID == scoped {
				return true
			}
		}
	}
	return false
}

// UpdateUserInput carries the mutable user fields. Role, placement, and
// active flag are nil unless the caller intends to change them.
type UpdateUserInput struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	FunctionID *string `json:"function_id"`
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
}

/*
UpdateUser modifies a user's profile and, for admins, role and placement.

Description: Users may edit their own name. Role, function, and active
flag changes are admin privileges; a non-admin sending them is rejected
rather than silently ignored.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - id: string (Target user UUID)
  - input: UpdateUserInput

Returns:
  - *User: Updated entity
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) UpdateUser(context context.Context, principal authz.Principal, id string, input UpdateUserInput) (*User, error) {
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceUser)); err != nil {
		service.auditCrossTenant(context, principal, string(authz.ResourceUser), id)
		return nil, err
	}

	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:         authz.VerbUpdate,
		Resource:     authz.ResourceUser,
		TargetUserID: id,
	}); err != nil {
		return nil, err
	}

	privileged := input.Role != nil || input.FunctionID != nil || input.IsActive != nil
	if privileged && !principal.IsAdmin() {
		return nil, apperr.Forbidden("Only admins may change role, function, or active status")
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).MaxLen(FieldFirstName, input.FirstName, 100)
	validator.Required(FieldLastName, input.LastName).MaxLen(FieldLastName, input.LastName, 100)
	if input.Role != nil {
		validator.OneOf(FieldRole, *input.Role,
			string(sec.RoleAdmin), string(sec.RoleManager), string(sec.RoleUser))
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	updated := *current
	updated.FirstName = input.FirstName
	updated.LastName = input.LastName
	if input.Role != nil {
		updated.Role = sec.UserRole(*input.Role)
	}
	if input.FunctionID != nil {
		updated.FunctionID = input.FunctionID
	}
	if input.IsActive != nil {
		updated.IsActive = *input.IsActive
	}

	if err := service.repo.Update(context, &updated); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionUserUpdated,
		EntityType: string(authz.ResourceUser),
		EntityID:   &id,
		Before:     userSnapshot(current),
		After:      userSnapshot(&updated),
	})

	return &updated, nil
}

/*
DeactivateUser soft-deletes a user and ends all their sessions. Admin
only.

Description: The deactivation, the refresh-token revocation, and the
audit row commit in one transaction. Self-deactivation is rejected so a
company cannot lose its last reachable admin by accident.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (Target user UUID)

Returns:
  - error: Authorization or persistence failures
*/
func (service *Service) DeactivateUser(context context.Context, principal authz.Principal, id string) error {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete,
		Resource: authz.ResourceUser,
	}); err != nil {
		return err
	}
	if id == principal.UserID {
		return apperr.Forbidden("You cannot deactivate your own account")
	}

	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}
	if err := service.kernel.CheckTenant(principal, current.CompanyID, string(authz.ResourceUser)); err != nil {
		service.auditCrossTenant(context, principal, string(authz.ResourceUser), id)
		return err
	}

	err = service.repo.SoftDeleteUser(context, id, func(tx pgx.Tx) error {
		return service.recorder.RecordTx(context, tx, &audit.Event{
			CompanyID:  principal.CompanyID,
			ActorID:    &principal.UserID,
			Action:     audit.ActionUserDeactivated,
			EntityType: string(authz.ResourceUser),
			EntityID:   &id,
			Before:     userSnapshot(current),
		})
	})
	if err != nil {
		return err
	}

	service.logger.Info("user_deactivated",
		slog.String("user_id", id),
		slog.String("actor_id", principal.UserID),
	)

	return nil
}

// # Invite Management

// CreateInviteInput carries the fields for issuing an invite.
type CreateInviteInput struct {
	Email      string   `json:"email"`
	Role       string   `json:"role"`
	FunctionID *string  `json:"function_id"`
	TeamIDs    []string `json:"team_ids"`
}

/*
CreateInvite issues a single-use invite and mails the raw token. Admin
only.

Description: Only the token's SHA-256 digest is persisted. The raw token
travels once, inside the invitation email, and is never returned by the
API.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - input: CreateInviteInput

Returns:
  - *Invite: Created invite (digest only)
  - error: Authorization, validation, or persistence failures
*/
func (service *Service) CreateInvite(context context.Context, principal authz.Principal, input CreateInviteInput) (*Invite, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbCreate,
		Resource: authz.ResourceInvite,
	}); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	validator.OneOf(FieldRole, input.Role,
		string(sec.RoleAdmin), string(sec.RoleManager), string(sec.RoleUser))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.ConflictCode("DUPLICATE", "A user with this email already exists")
	}

	raw, hash, err := sec.NewOpaqueToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	invite := &Invite{
		ID:         uuidv7.New(),
		CompanyID:  principal.CompanyID,
		FunctionID: input.FunctionID,
		TeamIDs:    input.TeamIDs,
		Email:      input.Email,
		Role:       sec.UserRole(input.Role),
		InvitedBy:  principal.UserID,
		TokenHash:  hash,
		ExpiresAt:  service.clock.Now().Add(inviteTTL),
	}

	if err := service.repo.CreateInvite(context, invite); err != nil {
		return nil, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionInviteCreated,
		EntityType: string(authz.ResourceInvite),
		EntityID:   &invite.ID,
		After:      map[string]any{"email": invite.Email, "role": invite.Role},
	})

	companyName := "your company"
	if found, err := service.companies.FindByID(context, principal.CompanyID); err == nil {
		companyName = found.Name
	}
	service.notifier.SendInvite(invite.Email, companyName, raw)

	return invite, nil
}

/*
ListInvites returns the company's invites, newest first. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)

Returns:
  - []*Invite: Open and used invites
  - error: Authorization or retrieval failures
*/
func (service *Service) ListInvites(context context.Context, principal authz.Principal) ([]*Invite, error) {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbList,
		Resource: authz.ResourceInvite,
	}); err != nil {
		return nil, err
	}

	return service.repo.ListInvites(context, principal.CompanyID)
}

/*
RevokeInvite deletes an unused invite. Admin only.

Parameters:
  - context: context.Context
  - principal: authz.Principal (Admin role required)
  - id: string (Invite UUID)

Returns:
  - error: Authorization failures, ErrNotFound if missing or used
*/
func (service *Service) RevokeInvite(context context.Context, principal authz.Principal, id string) error {
	if _, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbDelete,
		Resource: authz.ResourceInvite,
	}); err != nil {
		return err
	}

	if err := service.repo.DeleteInvite(context, principal.CompanyID, id); err != nil {
		return err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionInviteRevoked,
		EntityType: string(authz.ResourceInvite),
		EntityID:   &id,
	})

	return nil
}

// # Helpers

// userSnapshot projects the auditable fields of a user.
func userSnapshot(user *User) map[string]any {
	return map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"is_active":  user.IsActive,
	}
}

// auditCrossTenant records a denied foreign-tenant access under the
// actor's own company.
func (service *Service) auditCrossTenant(context context.Context, principal authz.Principal, entityType, entityID string) {
	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionCrossTenantDenied,
		EntityType: entityType,
		EntityID:   &entityID,
	})
}
