// Copyright (c) 2026 Vacaplan. All rights reserved.

package authz

import (
	"errors"
	"slices"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/pkg/pointer"
)

// Verb is the action class of an operation.
type Verb string

const (
	VerbList    Verb = "list"
	VerbRead    Verb = "read"
	VerbCreate  Verb = "create"
	VerbUpdate  Verb = "update"
	VerbDelete  Verb = "delete"
	VerbApprove Verb = "approve"
	VerbReject  Verb = "reject"
	VerbCancel  Verb = "cancel"
	VerbExport  Verb = "export"
)

// Resource is the entity class an operation targets.
type Resource string

const (
	ResourceUser            Resource = "user"
	ResourceCompany         Resource = "company"
	ResourceFunction        Resource = "function"
	ResourceTeam            Resource = "team"
	ResourceVacationRequest Resource = "vacation_request"
	ResourceVacationPeriod  Resource = "vacation_period"
	ResourceAllocation      Resource = "allocation"
	ResourceAuditEvent      Resource = "audit_event"
	ResourceInvite          Resource = "invite"
)

// Operation describes a single action a principal wants to perform.
//
// TargetUserID, when known, is the owner of the entity being acted on.
// TargetTeamID is set for team membership changes.
type Operation struct {
	Verb         Verb
	Resource     Resource
	TargetUserID string
	TargetTeamID string
}

// ErrCrossTenant marks a denial caused by a tenant mismatch. It travels as
// the Cause of a NOT_FOUND error so handlers return 404 while services can
// still detect the condition and write the audit row.
var ErrCrossTenant = errors.New("authz: cross-tenant access")

// CrossTenant builds the caller-facing error for a tenant mismatch.
// A 404 is returned instead of 403 so foreign-tenant existence never leaks.
func CrossTenant(resource string) error {
	ae := apperr.NotFound(resource)
	ae.Cause = ErrCrossTenant
	return ae
}

// IsCrossTenant reports whether err stems from a tenant mismatch.
func IsCrossTenant(err error) bool {
	return errors.Is(err, ErrCrossTenant)
}

// Kernel resolves (Principal, Operation) pairs into decisions and scopes.
//
// # Purity
//
// The Kernel holds no state. Given the same principal and operation, the
// decision is always the same; everything dynamic lives in the Principal,
// which the middleware rebuilds per request.
type Kernel struct{}

// NewKernel creates the permission oracle.
func NewKernel() *Kernel { return &Kernel{} }

// CheckTenant verifies an entity's company against the principal's tenant.
func (k *Kernel) CheckTenant(principal Principal, companyID, resource string) error {
	if companyID != principal.CompanyID {
		return CrossTenant(resource)
	}
	return nil
}

/*
Authorize decides whether the principal may perform the operation and, on
Allow, returns the scope predicate the fulfilling query must apply.

Parameters:
  - principal: the resolved actor (role and managed teams re-read per request).
  - operation: verb, resource, and optional target identifiers.

Returns:
  - Scope: the row filter for the fulfilling query. When both TeamIDs and
    UserID are set, rows matching either predicate are in scope.
  - error: a FORBIDDEN [apperr.AppError] on deny, nil on allow.
*/
func (k *Kernel) Authorize(principal Principal, operation Operation) (Scope, error) {
	tenant := Scope{CompanyID: principal.CompanyID}

	switch operation.Resource {
	case ResourceUser:
		return k.authorizeUser(principal, operation, tenant)
	case ResourceCompany, ResourceFunction, ResourceTeam:
		return k.authorizeOrg(principal, operation, tenant)
	case ResourceVacationRequest:
		return k.authorizeRequest(principal, operation, tenant)
	case ResourceVacationPeriod, ResourceAllocation:
		return k.authorizeCalendar(principal, operation, tenant)
	case ResourceAuditEvent:
		if principal.IsAdmin() && (operation.Verb == VerbList || operation.Verb == VerbRead) {
			// Audit stays company-scoped even for admins.
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("Admin access required")
	case ResourceInvite:
		if principal.IsAdmin() {
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("Admin access required")
	}

	return Scope{}, apperr.Forbidden("Unknown resource")
}

// authorizeUser implements the User row of the permission matrix.
func (k *Kernel) authorizeUser(principal Principal, operation Operation, tenant Scope) (Scope, error) {
	if principal.IsAdmin() {
		return tenant, nil
	}

	switch operation.Verb {
	case VerbList, VerbRead:
		if principal.IsManager() {
			// Managers see members of their managed teams plus themselves.
			tenant.TeamIDs = principal.ManagedTeamIDs
			tenant.UserID = pointer.To(principal.UserID)
			return tenant, nil
		}
		tenant.UserID = pointer.To(principal.UserID)
		return tenant, nil
	case VerbUpdate:
		if operation.TargetUserID == principal.UserID {
			tenant.UserID = pointer.To(principal.UserID)
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("You may only update your own profile")
	}

	return Scope{}, apperr.Forbidden("Admin access required")
}

// authorizeOrg implements the Company, Function, and Team rows.
func (k *Kernel) authorizeOrg(principal Principal, operation Operation, tenant Scope) (Scope, error) {
	if principal.IsAdmin() {
		return tenant, nil
	}

	switch operation.Verb {
	case VerbList, VerbRead:
		// Everyone may read their own company's org structure.
		return tenant, nil
	case VerbUpdate:
		// Managers may change membership of teams they manage.
		if operation.Resource == ResourceTeam && principal.IsManager() && principal.Manages(operation.TargetTeamID) {
			tenant.TeamIDs = []string{operation.TargetTeamID}
			return tenant, nil
		}
	}

	return Scope{}, apperr.Forbidden("Admin access required")
}

// authorizeRequest implements the VacationRequest row.
func (k *Kernel) authorizeRequest(principal Principal, operation Operation, tenant Scope) (Scope, error) {
	switch operation.Verb {
	case VerbList, VerbRead, VerbExport:
		if principal.IsAdmin() {
			return tenant, nil
		}
		if principal.IsManager() {
			tenant.TeamIDs = principal.ManagedTeamIDs
			tenant.UserID = pointer.To(principal.UserID)
			return tenant, nil
		}
		tenant.UserID = pointer.To(principal.UserID)
		return tenant, nil

	case VerbCreate, VerbUpdate:
		// Requests are created and modified only by their owner, any role.
		if operation.TargetUserID == "" || operation.TargetUserID == principal.UserID {
			tenant.UserID = pointer.To(principal.UserID)
			return tenant, nil
		}
		if principal.IsAdmin() {
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("You may only manage your own requests")

	case VerbApprove, VerbReject:
		// Self-approval is denied at every role, admin included.
		if operation.TargetUserID == principal.UserID {
			return Scope{}, apperr.Forbidden("You cannot decide your own request")
		}
		if principal.IsAdmin() {
			return tenant, nil
		}
		if principal.IsManager() {
			tenant.TeamIDs = principal.ManagedTeamIDs
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("Manager or admin access required")

	case VerbCancel:
		if operation.TargetUserID == principal.UserID {
			tenant.UserID = pointer.To(principal.UserID)
			return tenant, nil
		}
		if principal.IsAdmin() {
			return tenant, nil
		}
		if principal.IsManager() {
			tenant.TeamIDs = principal.ManagedTeamIDs
			return tenant, nil
		}
		return Scope{}, apperr.Forbidden("You may only cancel your own requests")
	}

	return Scope{}, apperr.Forbidden("Unknown operation")
}

// authorizeCalendar implements the VacationPeriod and Allocation rows.
func (k *Kernel) authorizeCalendar(principal Principal, operation Operation, tenant Scope) (Scope, error) {
	if principal.IsAdmin() {
		return tenant, nil
	}

	switch operation.Verb {
	case VerbList, VerbRead:
		if operation.Resource == ResourceAllocation && !principal.IsManager() {
			// Plain users see only their own allocations.
			tenant.UserID = pointer.To(principal.UserID)
		}
		return tenant, nil
	}

	return Scope{}, apperr.Forbidden("Admin access required")
}

/*
CanDecide verifies that a principal may approve or reject a specific
request once its owner and the owner's active teams are known.

Parameters:
  - principal: the prospective approver.
  - ownerID: the request owner.
  - ownerTeamIDs: the owner's active team memberships.

Returns:
  - error: a FORBIDDEN [apperr.AppError] when the principal is the owner,
    lacks the role, or manages none of the owner's teams.
*/
func (k *Kernel) CanDecide(principal Principal, ownerID string, ownerTeamIDs []string) error {
	if ownerID == principal.UserID {
		return apperr.Forbidden("You cannot decide your own request")
	}
	if principal.IsAdmin() {
		return nil
	}
	if !principal.IsManager() {
		return apperr.Forbidden("Manager or admin access required")
	}
	for _, teamID := range ownerTeamIDs {
		if slices.Contains(principal.ManagedTeamIDs, teamID) {
			return nil
		}
	}
	return apperr.Forbidden("You do not manage this user's team")
}

// RequireRole returns a FORBIDDEN error unless the principal meets the
// minimum role. Used for coarse route-level gates; fine-grained scoping
// still goes through Authorize.
func (k *Kernel) RequireRole(principal Principal, minimum sec.UserRole) error {
	if !principal.Role.AtLeast(minimum) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}
