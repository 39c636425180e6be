// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package ratelimit implements category-based sliding-window throttling and
the account lockout latch.

Counters live in Redis sorted sets so every API replica shares one view of
a client's budget. Each (category, key) pair owns a ZSET whose members are
request markers scored by nanosecond timestamp; trimming the set to the
window start yields the current count.

The lockout latch is a separate TTL key armed after repeated failed login
verifications. While armed, login returns LOGIN_LOCKED regardless of
credential validity so attackers learn nothing from a lucky guess.
*/
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

// Category is the endpoint class a request is budgeted under.
type Category string

const (
	CategoryLogin                Category = "login"
	CategoryPasswordResetRequest Category = "password-reset-request"
	CategoryPasswordResetConfirm Category = "password-reset-confirm"
	CategoryRefresh              Category = "refresh"
	CategoryVacationWrite        Category = "vacation-write"
	CategoryVacationRead         Category = "vacation-read"
	CategoryExport               Category = "export"
	CategoryAPIDefault           Category = "api-default"
)

// Limit is the budget of a category: at most Max events per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// DefaultLimits returns the built-in budget table. Configuration may
// override individual entries at startup.
func DefaultLimits() map[Category]Limit {
	return map[Category]Limit{
		CategoryLogin:                {Max: 5, Window: 60 * time.Second},
		CategoryPasswordResetRequest: {Max: 3, Window: time.Hour},
		CategoryPasswordResetConfirm: {Max: 10, Window: time.Hour},
		CategoryRefresh:              {Max: 30, Window: 60 * time.Second},
		CategoryVacationWrite:        {Max: 60, Window: time.Hour},
		CategoryVacationRead:         {Max: 200, Window: time.Hour},
		CategoryExport:               {Max: 10, Window: 24 * time.Hour},
		CategoryAPIDefault:           {Max: 1000, Window: time.Hour},
	}
}

// Decision is the outcome of a budget check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// RateGate enforces sliding-window budgets and the lockout latch.
//
// # Concurrency
//
// All state lives in Redis; the gate itself is stateless and safe for
// concurrent use. Window checks use an add-then-count pipeline so two
// racing requests can never both slip under the limit.
type RateGate struct {
	client *redis.Client
	clock  clock.Clock
	limits map[Category]Limit
}

// NewRateGate creates a gate. Overrides replace individual default limits;
// pass nil to keep the built-in table.
func NewRateGate(client *redis.Client, clk clock.Clock, overrides map[Category]Limit) *RateGate {
	limits := DefaultLimits()
	for category, limit := range overrides {
		limits[category] = limit
	}
	return &RateGate{client: client, clock: clk, limits: limits}
}

/*
CheckAndRecord consumes one unit of the (category, key) budget.

The request marker is added first and removed again on denial, which makes
the check atomic under concurrent access: of N racing callers at most
Max ever observe an in-window count within the limit.

Parameters:
  - context: context.Context for the Redis round trips.
  - category: the endpoint class being budgeted.
  - key: the principal identifier (user id, email, or client IP).

Returns:
  - Decision: Allowed plus Remaining on success, RetryAfter on denial.
  - error: Redis transport failures only; a failing limiter never
    silently allows traffic, callers must treat an error as a denial.
*/
func (gate *RateGate) CheckAndRecord(ctx context.Context, category Category, key string) (Decision, error) {
	limit, ok := gate.limits[category]
	if !ok {
		limit = gate.limits[CategoryAPIDefault]
	}

	now := gate.clock.Now()
	windowStart := now.Add(-limit.Window)
	zkey := constants.RedisPrefixRate + string(category) + ":" + key
	member := uuidv7.New()

	pipe := gate.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, zkey, "-inf", fmt.Sprintf("%d", windowStart.UnixNano()))
	pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, zkey)
	pipe.Expire(ctx, zkey, limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: window check failed: %w", err)
	}

	count := int(countCmd.Val())
	if count <= limit.Max {
		return Decision{Allowed: true, Remaining: limit.Max - count}, nil
	}

	// Over budget: withdraw our marker and compute when the oldest
	// surviving entry leaves the window.
	gate.client.ZRem(ctx, zkey, member)

	retryAfter := limit.Window
	if oldest, err := gate.client.ZRangeWithScores(ctx, zkey, 0, 0).Result(); err == nil && len(oldest) > 0 {
		oldestAt := time.Unix(0, int64(oldest[0].Score))
		if until := oldestAt.Add(limit.Window).Sub(now); until > 0 {
			retryAfter = until
		}
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// # Account Lockout Latch

/*
RecordLoginFailure counts a failed login verification for an email.

The failure counter lives under a 15 minute TTL; the fifth failure inside
the window arms the latch for 15 minutes.

Returns:
  - bool: true when this failure armed the latch.
  - error: Redis transport failures.
*/
func (gate *RateGate) RecordLoginFailure(ctx context.Context, email string) (bool, error) {
	failsKey := constants.RedisPrefixLoginFails + email

	pipe := gate.client.TxPipeline()
	countCmd := pipe.Incr(ctx, failsKey)
	pipe.Expire(ctx, failsKey, constants.LockoutWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: failure count failed: %w", err)
	}

	if countCmd.Val() < int64(constants.LockoutMaxFailures) {
		return false, nil
	}

	latchKey := constants.RedisPrefixLoginLatch + email
	if err := gate.client.Set(ctx, latchKey, "1", constants.LockoutDuration).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: latch arm failed: %w", err)
	}
	return true, nil
}

/*
CheckLockout reports whether an email is currently latched.

Returns:
  - bool: true while the latch is armed.
  - time.Duration: remaining latch time, for the Retry-After header.
  - error: Redis transport failures.
*/
func (gate *RateGate) CheckLockout(ctx context.Context, email string) (bool, time.Duration, error) {
	latchKey := constants.RedisPrefixLoginLatch + email

	ttl, err := gate.client.TTL(ctx, latchKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: latch check failed: %w", err)
	}

	// TTL returns negative values for missing or non-expiring keys.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

// RecordLoginSuccess clears the failure counter after a successful login.
// The latch, if already armed, stays armed until expiry or reset.
func (gate *RateGate) RecordLoginSuccess(ctx context.Context, email string) error {
	if err := gate.client.Del(ctx, constants.RedisPrefixLoginFails+email).Err(); err != nil {
		return fmt.Errorf("ratelimit: failure reset failed: %w", err)
	}
	return nil
}

// ClearLockout disarms the latch and failure counter. Called when the
// account owner completes an out-of-band password reset.
func (gate *RateGate) ClearLockout(ctx context.Context, email string) error {
	err := gate.client.Del(ctx,
		constants.RedisPrefixLoginFails+email,
		constants.RedisPrefixLoginLatch+email,
	).Err()
	if err != nil {
		return fmt.Errorf("ratelimit: lockout clear failed: %w", err)
	}
	return nil
}
