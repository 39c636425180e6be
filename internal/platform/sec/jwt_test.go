// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTokenService(clk clock.Clock) *sec.TokenService {
	return sec.NewTokenService(testSigningKey, "vacaplan.test", 15*time.Minute, clk)
}

/*
TestTokenService_RoundTrip verifies that signing and verifying preserves
all claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	service := newTokenService(clk)

	token, err := service.GenerateAccessToken("user-1", "company-1", sec.RoleManager)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "company-1", claims.CompanyID)
	assert.Equal(t, string(sec.RoleManager), claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clk.Now().Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, clk.Now().Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenService_UniqueJTI checks that every issued token carries a fresh jti.
*/
func TestTokenService_UniqueJTI(t *testing.T) {
	service := newTokenService(clock.System{})

	first, err := service.GenerateAccessToken("user-1", "company-1", sec.RoleUser)
	require.NoError(t, err)
	second, err := service.GenerateAccessToken("user-1", "company-1", sec.RoleUser)
	require.NoError(t, err)

	claimsA, err := service.VerifyToken(first)
	require.NoError(t, err)
	claimsB, err := service.VerifyToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, claimsA.ID, claimsB.ID)
}

/*
TestTokenService_Expired verifies expiry classification once the clock
passes the deadline.
*/
func TestTokenService_Expired(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	service := newTokenService(clk)

	token, err := service.GenerateAccessToken("user-1", "company-1", sec.RoleUser)
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestTokenService_BadSignature verifies rejection of tokens signed with a
different key.
*/
func TestTokenService_BadSignature(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	service := newTokenService(clk)

	foreign := sec.NewTokenService([]byte("another-signing-key-of-32-bytes!"), "vacaplan.test", 15*time.Minute, clk)
	token, err := foreign.GenerateAccessToken("user-1", "company-1", sec.RoleUser)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenBadSignature)
}

/*
TestTokenService_Malformed verifies garbage input classification.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newTokenService(clock.System{})

	_, err := service.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)
}
