// Copyright (c) 2026 Vacaplan. All rights reserved.

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
)

func newGate(t *testing.T) (*ratelimit.RateGate, *clock.Fake, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	return ratelimit.NewRateGate(client, clk, nil), clk, server
}

/*
TestCheckAndRecord_Window exercises the login budget: five allowed, the
sixth denied with a retry hint, and a fresh budget once the window passes.
*/
func TestCheckAndRecord_Window(t *testing.T) {
	gate, clk, _ := newGate(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := gate.CheckAndRecord(ctx, ratelimit.CategoryLogin, "1.2.3.4:alice@co.example")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "attempt %d should be allowed", i+1)
		assert.Equal(t, 4-i, decision.Remaining)
	}

	decision, err := gate.CheckAndRecord(ctx, ratelimit.CategoryLogin, "1.2.3.4:alice@co.example")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, 60*time.Second)

	// A different key is an independent budget.
	other, err := gate.CheckAndRecord(ctx, ratelimit.CategoryLogin, "5.6.7.8:bob@co.example")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	// Window rollover frees the budget again.
	clk.Advance(61 * time.Second)
	decision, err = gate.CheckAndRecord(ctx, ratelimit.CategoryLogin, "1.2.3.4:alice@co.example")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)
}

/*
TestCheckAndRecord_UnknownCategory falls back to the api-default budget.
*/
func TestCheckAndRecord_UnknownCategory(t *testing.T) {
	gate, _, _ := newGate(t)

	decision, err := gate.CheckAndRecord(context.Background(), ratelimit.Category("mystery"), "user-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 999, decision.Remaining)
}

/*
TestCheckAndRecord_Overrides verifies configured limits replace defaults.
*/
func TestCheckAndRecord_Overrides(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	gate := ratelimit.NewRateGate(client, clk, map[ratelimit.Category]ratelimit.Limit{
		ratelimit.CategoryExport: {Max: 1, Window: time.Minute},
	})

	ctx := context.Background()
	first, err := gate.CheckAndRecord(ctx, ratelimit.CategoryExport, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := gate.CheckAndRecord(ctx, ratelimit.CategoryExport, "user-1")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
}

/*
TestLockout_Latch verifies the fifth failure arms the latch and that the
latch holds regardless of later outcomes until cleared or expired.
*/
func TestLockout_Latch(t *testing.T) {
	gate, _, server := newGate(t)
	ctx := context.Background()
	email := "mallory@co.example"

	for i := 0; i < 4; i++ {
		armed, err := gate.RecordLoginFailure(ctx, email)
		require.NoError(t, err)
		assert.False(t, armed, "failure %d must not arm the latch", i+1)
	}

	armed, err := gate.RecordLoginFailure(ctx, email)
	require.NoError(t, err)
	assert.True(t, armed)

	locked, retryAfter, err := gate.CheckLockout(ctx, email)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Greater(t, retryAfter, 14*time.Minute)

	// Latch expiry unlocks.
	server.FastForward(16 * time.Minute)
	locked, _, err = gate.CheckLockout(ctx, email)
	require.NoError(t, err)
	assert.False(t, locked)
}

/*
TestLockout_SuccessResetsCounter checks that a successful login inside the
window restarts the consecutive-failure count.
*/
func TestLockout_SuccessResetsCounter(t *testing.T) {
	gate, _, _ := newGate(t)
	ctx := context.Background()
	email := "alice@co.example"

	for i := 0; i < 4; i++ {
		_, err := gate.RecordLoginFailure(ctx, email)
		require.NoError(t, err)
	}
	require.NoError(t, gate.RecordLoginSuccess(ctx, email))

	// The next failure is number one again, not number five.
	armed, err := gate.RecordLoginFailure(ctx, email)
	require.NoError(t, err)
	assert.False(t, armed)
}

/*
TestLockout_Clear verifies an out-of-band reset disarms an armed latch.
*/
func TestLockout_Clear(t *testing.T) {
	gate, _, _ := newGate(t)
	ctx := context.Background()
	email := "mallory@co.example"

	for i := 0; i < 5; i++ {
		_, err := gate.RecordLoginFailure(ctx, email)
		require.NoError(t, err)
	}

	locked, _, err := gate.CheckLockout(ctx, email)
	require.NoError(t, err)
	require.True(t, locked)

	require.NoError(t, gate.ClearLockout(ctx, email))

	locked, _, err = gate.CheckLockout(ctx, email)
	require.NoError(t, err)
	assert.False(t, locked)
}
