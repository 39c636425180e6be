// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"context"
	"io"
	"log/slog"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
)

// RateGuard budgets export requests per principal.
type RateGuard interface {
	CheckAndRecord(ctx context.Context, category ratelimit.Category, key string) (ratelimit.Decision, error)
}

var _ RateGuard = (*ratelimit.RateGate)(nil)

// # Service Layer

// Service orchestrates scoped vacation exports.
type Service struct {
	repo     Repository
	kernel   *authz.Kernel
	gate     RateGuard
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService constructs an export [Service].
func NewService(repo Repository, kernel *authz.Kernel, gate RateGuard, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		kernel:   kernel,
		gate:     gate,
		recorder: recorder,
		logger:   logger,
	}
}

/*
Export streams the caller-visible requests into writer in the given
format.

Description: The export budget is consumed first; a failing limiter
counts as a denial, never as an allowance. The scope predicate then
narrows the projection exactly like request listings: plain users get
their own rows, managers their teams', admins the company. Each export
lands in the audit trail with its filter and row count.

Parameters:
  - context: context.Context
  - principal: authz.Principal
  - filter: Filter
  - format: Format
  - writer: io.Writer

Returns:
  - int: Rows written, header excluded
  - error: RATE_LIMITED, authorization, retrieval, or encoding failures
*/
func (service *Service) Export(context context.Context, principal authz.Principal, filter Filter, format Format, writer io.Writer) (int, error) {
	decision, err := service.gate.CheckAndRecord(context, ratelimit.CategoryExport, principal.UserID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if !decision.Allowed {
		return 0, apperr.RateLimited(int(decision.RetryAfter.Seconds()) + 1)
	}

	scope, err := service.kernel.Authorize(principal, authz.Operation{
		Verb:     authz.VerbExport,
		Resource: authz.ResourceVacationRequest,
	})
	if err != nil {
		return 0, err
	}

	stream := func(yield func(*Row) error) error {
		return service.repo.StreamRows(context, scope, filter, yield)
	}

	var count int
	switch format {
	case FormatXLSX:
		count, err = writeXLSX(writer, stream)
	default:
		count, err = writeCSV(writer, stream)
	}
	if err != nil {
		return count, err
	}

	_ = service.recorder.Record(context, &audit.Event{
		CompanyID:  principal.CompanyID,
		ActorID:    &principal.UserID,
		Action:     audit.ActionExportGenerated,
		EntityType: string(authz.ResourceVacationRequest),
		After: map[string]any{
			"format":    string(format),
			"row_count": count,
			"user_id":   filter.UserID,
			"team_id":   filter.TeamID,
			"status":    filter.Status,
		},
	})

	service.logger.Info("export_generated",
		slog.String("user_id", principal.UserID),
		slog.String("format", string(format)),
		slog.Int("rows", count),
	)

	return count, nil
}
