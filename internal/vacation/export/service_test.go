// Copyright (c) 2026 Vacaplan. All rights reserved.

package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/vacation/export"
)

// memoryRepository replays fixed rows, honoring the scope's user filter.
type memoryRepository struct {
	rows []*export.Row
	// owner of each row, index-aligned, for scope filtering
	owners []string
}

func (repository *memoryRepository) StreamRows(_ context.Context, scope authz.Scope, _ export.Filter, yield func(*export.Row) error) error {
	for index, row := range repository.rows {
		if scope.UserID != nil && len(scope.TeamIDs) == 0 && *scope.UserID != repository.owners[index] {
			continue
		}
		if err := yield(row); err != nil {
			return err
		}
	}
	return nil
}

// stubGate allows until denied is set.
type stubGate struct {
	denied bool
	calls  int
}

func (gate *stubGate) CheckAndRecord(context.Context, ratelimit.Category, string) (ratelimit.Decision, error) {
	gate.calls++
	if gate.denied {
		return ratelimit.Decision{Allowed: false, RetryAfter: 3600 * time.Second}, nil
	}
	return ratelimit.Decision{Allowed: true, Remaining: 9}, nil
}

// auditRepository is a no-op audit store for service wiring.
type auditRepository struct{}

func (auditRepository) Insert(context.Context, *audit.Event) error           { return nil }
func (auditRepository) InsertTx(context.Context, pgx.Tx, *audit.Event) error { return nil }
func (auditRepository) FindByID(context.Context, string, string) (*audit.Event, error) {
	return nil, nil
}
func (auditRepository) List(context.Context, string, audit.Filter, int, int) ([]*audit.Event, int, error) {
	return nil, 0, nil
}

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func sampleRows() *memoryRepository {
	approvedAt := date("2026-05-20")
	return &memoryRepository{
		rows: []*export.Row{
			{
				RequestID: "req-1", EmployeeName: "Ada Lovelace", EmployeeEmail: "ada@acme.test",
				TeamName: "Engineering", StartDate: date("2026-06-10"), EndDate: date("2026-06-12"),
				DaysCount: 3, Type: "annual", Status: "approved", Reason: "summer break",
				ApproverName: "Grace Hopper", ApprovedAt: &approvedAt, CreatedAt: date("2026-05-15"),
			},
			{
				RequestID: "req-2", EmployeeName: "Alan Turing", EmployeeEmail: "alan@acme.test",
				TeamName: "Engineering", StartDate: date("2026-07-01"), EndDate: date("2026-07-03"),
				DaysCount: 3, Type: "sick", Status: "pending", CreatedAt: date("2026-06-20"),
			},
		},
		owners: []string{"user-1", "user-2"},
	}
}

func newService(repository *memoryRepository, gate *stubGate) *export.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kernel := authz.NewKernel()
	recorder := audit.NewRecorder(auditRepository{}, kernel, logger)
	return export.NewService(repository, kernel, gate, recorder, logger)
}

func admin() authz.Principal {
	return authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}
}

func member(id string) authz.Principal {
	return authz.Principal{UserID: id, CompanyID: "co-1", Role: sec.RoleUser}
}

/*
TestExportCSV checks the header and a full golden row, including the
empty approver columns of an undecided request.
*/
func TestExportCSV(t *testing.T) {
	service := newService(sampleRows(), &stubGate{})

	var buffer bytes.Buffer
	count, err := service.Export(context.Background(), admin(), export.Filter{}, export.FormatCSV, &buffer)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&buffer).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Request ID", "Employee", "Email", "Team", "Start Date", "End Date",
		"Days", "Type", "Status", "Reason", "Approver", "Approved At", "Created At",
	}, records[0])

	assert.Equal(t, []string{
		"req-1", "Ada Lovelace", "ada@acme.test", "Engineering",
		"2026-06-10", "2026-06-12", "3", "annual", "approved", "summer break",
		"Grace Hopper", "2026-05-20T00:00:00Z", "2026-05-15T00:00:00Z",
	}, records[1])

	assert.Equal(t, "", records[2][10], "undecided requests carry no approver")
	assert.Equal(t, "", records[2][11])
}

/*
TestExportXLSX writes a workbook and reads it back through excelize.
*/
func TestExportXLSX(t *testing.T) {
	service := newService(sampleRows(), &stubGate{})

	var buffer bytes.Buffer
	count, err := service.Export(context.Background(), admin(), export.Filter{}, export.FormatXLSX, &buffer)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	workbook, err := excelize.OpenReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	defer workbook.Close()

	title, err := workbook.GetCellValue("Vacations", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Request ID", title)

	employee, err := workbook.GetCellValue("Vacations", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", employee)
}

/*
TestExport_Scope collapses a plain user's export to their own rows.
*/
func TestExport_Scope(t *testing.T) {
	service := newService(sampleRows(), &stubGate{})

	var buffer bytes.Buffer
	count, err := service.Export(context.Background(), member("user-2"), export.Filter{}, export.FormatCSV, &buffer)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := csv.NewReader(&buffer).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "req-2", records[1][0])
}

/*
TestExport_RateLimited surfaces the export budget as 429 with a retry
hint.
*/
func TestExport_RateLimited(t *testing.T) {
	gate := &stubGate{denied: true}
	service := newService(sampleRows(), gate)

	var buffer bytes.Buffer
	_, err := service.Export(context.Background(), admin(), export.Filter{}, export.FormatCSV, &buffer)
	assert.True(t, apperr.IsCode(err, "RATE_LIMITED"))
	assert.Zero(t, buffer.Len(), "denied exports write nothing")
	assert.Equal(t, 1, gate.calls)
}

/*
TestParseFormat accepts csv, xlsx, and empty, and rejects the rest.
*/
func TestParseFormat(t *testing.T) {
	format, err := export.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, format)

	format, err = export.ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, format)

	_, err = export.ParseFormat("pdf")
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}
