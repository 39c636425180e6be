// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vacaplan/vacaplan/internal/platform/request"
	"github.com/vacaplan/vacaplan/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for exports.
type Handler struct {
	service *Service
}

// NewHandler constructs an export [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with export endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/vacations", handler.exportVacations)

	return router
}

/*
GET /api/v1/exports/vacations.

Request (Query):
  - format: csv (default) or xlsx
  - user_id, team_id, status: Filters
  - from, to: Date bounds (YYYY-MM-DD)

Response:
  - 200: File download, Content-Disposition attachment
  - 400: Validation: Unsupported format
  - 429: RATE_LIMITED: Export budget exhausted
*/
func (handler *Handler) exportVacations(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	format, err := ParseFormat(query.Get("format"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		UserID: query.Get("user_id"),
		TeamID: query.Get("team_id"),
		Status: query.Get("status"),
	}
	if from, err := time.Parse("2006-01-02", query.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", query.Get("to")); err == nil {
		filter.To = &to
	}

	// The file is assembled before any byte reaches the client so
	// failures can still produce a proper error response.
	var buffer bytes.Buffer
	if _, err := handler.service.Export(request.Context(), principal, filter, format, &buffer); err != nil {
		respond.Error(writer, request, err)
		return
	}

	filename := fmt.Sprintf("vacations-%s.%s", time.Now().UTC().Format("20060102"), format)
	contentType := "text/csv; charset=utf-8"
	if format == FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(buffer.Bytes())
}
