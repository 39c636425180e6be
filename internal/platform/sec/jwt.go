// Copyright (c) 2026 Vacaplan. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token signing,
// opaque-token generation) from the domain logic. It is injected into the
// application layer via small interfaces so services never touch key material.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// Typed verification failures. Callers map all four to a 401; the distinction
// exists for logging and tests.
var (
	ErrTokenExpired      = errors.New("sec: token expired")
	ErrTokenBadSignature = errors.New("sec: token signature invalid")
	ErrTokenWrongType    = errors.New("sec: token type mismatch")
	ErrTokenMalformed    = errors.New("sec: token malformed")
)

// AccessClaims is the payload embedded inside a bearer access token.
//
// # Trust model
//
// The role claim is a snapshot taken at issuance and is used only as a hint.
// Authorization always re-reads the current role from the identity store, so
// a demoted manager's live token authorizes at the reduced level.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Custom claims are abbreviated to keep the token payload small.
	CompanyID string `json:"cid"`
	Role      string `json:"rol"`
	TokenType string `json:"typ"`
}

// TokenService signs and verifies bearer access tokens using HS256.
//
// The signing key is symmetric and process-wide; it is provided once at
// startup and never logged.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      clock.Clock
}

// NewTokenService creates a TokenService. The key must be at least 32 bytes;
// configuration loading enforces this before the service is constructed.
func NewTokenService(signingKey []byte, issuer string, ttl time.Duration, clk clock.Clock) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		ttl:        ttl,
		clock:      clk,
	}
}

// GenerateAccessToken creates a signed access token for a user.
// The returned jti is unique per token and allows targeted revocation checks.
func (service *TokenService) GenerateAccessToken(userID, companyID string, role UserRole) (string, error) {
	currentTime := service.clock.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			ID:        uuidv7.New(),
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.ttl)),
		},
		CompanyID: companyID,
		Role:      string(role),
		TokenType: "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of an access token string.
//
// Failures are classified as [ErrTokenExpired], [ErrTokenBadSignature],
// [ErrTokenWrongType], or [ErrTokenMalformed].
func (service *TokenService) VerifyToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AccessClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return service.signingKey, nil
		},
		jwt.WithTimeFunc(service.clock.Now),
		jwt.WithIssuer(service.issuer),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.TokenType != "access" {
		return nil, ErrTokenWrongType
	}

	return claims, nil
}
