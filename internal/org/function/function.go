// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package function manages departments within a company.

A function groups teams under one organizational unit (Engineering,
Sales, People). Users carry a primary function; teams always belong to
exactly one.
*/
package function

import "time"

// # Core Entities

// Function represents a department within a company.
type Function struct {
	ID        string     `json:"id"` // UUIDv7
	CompanyID string     `json:"company_id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"` // Short code, unique within the company
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// # Field Identifiers

const (
	FieldName = "name"
	FieldCode = "code"
)
