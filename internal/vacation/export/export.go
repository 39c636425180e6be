// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package export projects vacation requests into flat rows for CSV and
XLSX downloads.

The projection intersects the caller's authorization scope with the
requested filters, streams matching rows forward-only from the store,
and serializes them without ever materializing the full set in the
database layer. Exports are budgeted under the export rate category and
land in the audit trail.
*/
package export

import (
	"strconv"
	"time"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
)

// # Output Formats

// Format selects the serialization of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps the query parameter onto a [Format], defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch raw {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	}
	return "", apperr.ValidationError("Unsupported export format", apperr.FieldError{
		Field: "format", Message: "Must be csv or xlsx",
	})
}

// # Projection

// Row is one flat export record. Fields are denormalized at query time
// so serializers never reach back into the store.
type Row struct {
	RequestID     string
	EmployeeName  string
	EmployeeEmail string
	TeamName      string
	StartDate     time.Time
	EndDate       time.Time
	DaysCount     int
	Type          string
	Status        string
	Reason        string
	ApproverName  string
	ApprovedAt    *time.Time
	CreatedAt     time.Time
}

// header lists the serialized columns, in order, for both formats.
var header = []string{
	"Request ID", "Employee", "Email", "Team", "Start Date", "End Date",
	"Days", "Type", "Status", "Reason", "Approver", "Approved At", "Created At",
}

// cells flattens the row into column-ordered strings.
func (row *Row) cells() []string {
	approvedAt := ""
	if row.ApprovedAt != nil {
		approvedAt = row.ApprovedAt.Format(time.RFC3339)
	}
	return []string{
		row.RequestID,
		row.EmployeeName,
		row.EmployeeEmail,
		row.TeamName,
		row.StartDate.Format("2006-01-02"),
		row.EndDate.Format("2006-01-02"),
		strconv.Itoa(row.DaysCount),
		row.Type,
		row.Status,
		row.Reason,
		row.ApproverName,
		approvedAt,
		row.CreatedAt.Format(time.RFC3339),
	}
}

// # Search & Filtering

// Filter narrows the export. Zero values mean "no constraint"; the
// caller's scope is intersected on top.
type Filter struct {
	UserID string
	TeamID string
	Status string
	From   *time.Time
	To     *time.Time
}
