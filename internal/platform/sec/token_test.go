// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

/*
TestNewOpaqueToken checks entropy size, URL-safe encoding, and the
hash-lookup round trip.
*/
func TestNewOpaqueToken(t *testing.T) {
	raw, hash, err := sec.NewOpaqueToken()
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	// Presenting the raw token reproduces the stored hash.
	assert.Equal(t, hash, sec.HashOpaqueToken(raw))

	// SHA-256 hex digest
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, raw)
}

/*
TestNewOpaqueToken_Unique verifies two issuances never collide.
*/
func TestNewOpaqueToken_Unique(t *testing.T) {
	rawA, hashA, err := sec.NewOpaqueToken()
	require.NoError(t, err)
	rawB, hashB, err := sec.NewOpaqueToken()
	require.NoError(t, err)

	assert.NotEqual(t, rawA, rawB)
	assert.NotEqual(t, hashA, hashB)
}
