// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package audit maintains the append-only trail of security and workflow
events.

Every state transition that matters to compliance lands here: logins and
lockouts, token rotation and replay detection, vacation request decisions,
allocation changes, and exports. Rows are written once and never updated
or deleted; the trail is the system of record for "who did what, when".

# Core Responsibility

  - Recording: Persists [Event] rows, inside the caller's transaction
    when the event belongs to a domain state change.
  - Retrieval: Scoped, filtered queries for administrators.

Events always carry the tenant they occurred in. Cross-tenant access
attempts are recorded under the actor's own company.
*/
package audit

import "time"

// # Action Codes

// Action identifies what happened. Codes are dot-scoped by subject and
// stable across releases; dashboards and retention policies key on them.
type Action string

const (
	ActionLoginSucceeded         Action = "login.succeeded"
	ActionLoginFailed            Action = "login.failed"
	ActionLoginLocked            Action = "login.locked"
	ActionTokenRefreshed         Action = "token.refreshed"
	ActionTokenReplayDetected    Action = "token.replay_detected"
	ActionLogout                 Action = "session.logout"
	ActionPasswordResetRequested Action = "password.reset_requested"
	ActionPasswordResetCompleted Action = "password.reset_completed"
	ActionPasswordChanged        Action = "password.changed"

	ActionUserCreated     Action = "user.created"
	ActionUserUpdated     Action = "user.updated"
	ActionUserDeactivated Action = "user.deactivated"
	ActionInviteCreated   Action = "invite.created"
	ActionInviteAccepted  Action = "invite.accepted"
	ActionInviteRevoked   Action = "invite.revoked"

	ActionRequestCreated   Action = "request.created"
	ActionRequestSubmitted Action = "request.submitted"
	ActionRequestApproved  Action = "request.approved"
	ActionRequestRejected  Action = "request.rejected"
	ActionRequestCancelled Action = "request.cancelled"
	ActionRequestWithdrawn Action = "request.withdrawn"
	ActionRequestModified  Action = "request.modified"

	ActionCompanyUpdated    Action = "company.updated"
	ActionFunctionCreated   Action = "function.created"
	ActionFunctionUpdated   Action = "function.updated"
	ActionFunctionDeleted   Action = "function.deleted"
	ActionTeamCreated       Action = "team.created"
	ActionTeamUpdated       Action = "team.updated"
	ActionTeamDeleted       Action = "team.deleted"
	ActionTeamMemberAdded   Action = "team.member_added"
	ActionTeamMemberRemoved Action = "team.member_removed"
	ActionManagerAssigned   Action = "team.manager_assigned"
	ActionManagerUnassigned Action = "team.manager_unassigned"

	ActionPeriodCreated     Action = "period.created"
	ActionPeriodUpdated     Action = "period.updated"
	ActionPeriodDeactivated Action = "period.deactivated"
	ActionAllocationCreated Action = "allocation.created"
	ActionAllocationUpdated Action = "allocation.updated"
	ActionExportGenerated   Action = "export.generated"

	ActionCrossTenantDenied Action = "access.cross_tenant_denied"
)

// # Core Entities

// Event is one immutable row of the audit trail.
//
// Before and After are JSON snapshots of the touched entity around the
// state change; either may be nil (creations have no Before, reads and
// denials have neither).
type Event struct {
	ID         string         `json:"id"` // UUIDv7
	CompanyID  string         `json:"company_id"`
	ActorID    *string        `json:"actor_id,omitempty"` // Nil for anonymous actions (failed logins)
	Action     Action         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id,omitempty"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// # Search & Filtering

// Filter narrows the trail for administrative queries. Zero values mean
// "no constraint"; CompanyID is always enforced by the service.
type Filter struct {
	ActorID    string     `json:"actor_id"`
	Action     Action     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
}

// # Field Identifiers

const (
	FieldAction     = "action"
	FieldEntityType = "entity_type"
	FieldFrom       = "from"
	FieldTo         = "to"
)
