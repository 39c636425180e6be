// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package request implements the vacation request state machine.

	         submit             approve
	[draft] ────────> [pending] ────────> [approved]
	   │                 │ │ reject
	   │                 │ └──────────> [rejected]
	   │                 │ cancel
	   │                 └────────────> [cancelled]
	   │ cancel
	   └──────────────────────────────> [cancelled]

	[approved] ──cancel by owner, pre-start──> [withdrawn]

Every transition runs in one transaction: the row is read under a write
lock, the pre-state is validated, and the post-state is written together
with the allocation adjustment and the audit row. A second approver
racing on the same pending request observes the changed status and fails
with NOT_PENDING.
*/
package request

import "time"

// # Status Machine

// Status is the lifecycle state of a vacation request.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusWithdrawn Status = "withdrawn"
)

// Terminal reports whether no further transition leaves the status.
// Approved is not terminal; it can still be cancelled or withdrawn.
func (status Status) Terminal() bool {
	switch status {
	case StatusRejected, StatusCancelled, StatusWithdrawn:
		return true
	}
	return false
}

// Type classifies the leave being requested.
type Type string

const (
	TypeAnnual   Type = "annual"
	TypeSick     Type = "sick"
	TypePersonal Type = "personal"
	TypeUnpaid   Type = "unpaid"
	TypeOther    Type = "other"
)

// Types lists the accepted request types for validation.
var Types = []string{
	string(TypeAnnual), string(TypeSick), string(TypePersonal),
	string(TypeUnpaid), string(TypeOther),
}

// # Core Entities

// Request is one vacation request. DaysCount and PeriodID are fixed at
// submission time; later period edits never reprice existing requests.
type Request struct {
	ID             string     `json:"id"` // UUIDv7
	CompanyID      string     `json:"company_id"`
	UserID         string     `json:"user_id"`
	TeamID         *string    `json:"team_id,omitempty"`
	PeriodID       string     `json:"period_id"`
	Type           Type       `json:"type"`
	Status         Status     `json:"status"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	DaysCount      int        `json:"days_count"`
	Reason         string     `json:"reason,omitempty"`
	ApproverID     *string    `json:"approver_id,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// # Search & Filtering

// Filter narrows request listings. Zero values mean "no constraint".
type Filter struct {
	UserID string
	TeamID string
	Status Status
	Type   Type
	From   *time.Time // requests ending on or after
	To     *time.Time // requests starting on or before
}

// # Field Identifiers

const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldType      = "type"
	FieldReason    = "reason"
)
