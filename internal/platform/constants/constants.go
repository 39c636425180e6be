// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, token lifetimes, and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Authentication: token lifetimes, cookie configuration, lockout windows.
  - Rate Limiting: in-process IP limiter defaults.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "vacaplan-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// Password hashing alone can take half a second, so this stays generous.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting (in-process outer guard; fine-grained limits live in ratelimit)

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "vacaplan.app"

	// AccessTokenTTL is the lifetime of a bearer access token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the default lifetime of a refresh token.
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RememberMeRefreshTTL replaces RefreshTokenTTL when remember_me is set at login.
	RememberMeRefreshTTL = 30 * 24 * time.Hour

	// InviteTokenTTL is the validity window of an invite token.
	InviteTokenTTL = 7 * 24 * time.Hour

	// PasswordResetTokenTTL is the validity window of a password-reset token.
	PasswordResetTokenTTL = 1 * time.Hour

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # Account Lockout

const (
	// LockoutMaxFailures is the number of consecutive failed logins that arms the latch.
	LockoutMaxFailures = 5

	// LockoutWindow is the observation window for counting failures.
	LockoutWindow = 15 * time.Minute

	// LockoutDuration is how long the latch stays armed once set.
	LockoutDuration = 15 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID          = "X-Request-ID"
	HeaderXRealIP             = "X-Real-IP"
	HeaderXForwardedFor       = "X-Forwarded-For"
	HeaderOrigin              = "Origin"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter          = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixRate       = "rate:"
	RedisPrefixLoginFails = "lockout:fails:"
	RedisPrefixLoginLatch = "lockout:latch:"
)
