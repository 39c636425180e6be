// Copyright (c) 2026 Vacaplan. All rights reserved.

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vacaplan/vacaplan/pkg/pagination"
)

/*
TestFromRequest exercises parsing and clamping of the page and limit
query parameters.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", url: "/users", wantPage: 1, wantLimit: 20},
		{name: "explicit", url: "/users?page=3&limit=50", wantPage: 3, wantLimit: 50},
		{name: "zero_page_clamped", url: "/users?page=0", wantPage: 1, wantLimit: 20},
		{name: "negative_limit_clamped", url: "/users?limit=-5", wantPage: 1, wantLimit: 20},
		{name: "excessive_limit_clamped", url: "/users?limit=5000", wantPage: 1, wantLimit: 20},
		{name: "garbage_ignored", url: "/users?page=abc&limit=xyz", wantPage: 1, wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", tt.url, nil)
			params := pagination.FromRequest(request)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

/*
TestOffset derives SQL offsets from page and limit.
*/
func TestOffset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, 0, pagination.Params{Page: 0, Limit: 20}.Offset())
}

/*
TestNewMeta rounds total pages up and tolerates a zero limit.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 41, meta.Total)

	assert.Equal(t, 0, pagination.NewMeta(1, 0, 10).TotalPages)
}
