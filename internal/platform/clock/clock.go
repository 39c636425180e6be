// Copyright (c) 2026 Vacaplan. All rights reserved.

// Package clock abstracts wall-clock access so that time-dependent logic
// (token expiry, lockout windows, business-day math) is testable.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Services receive a Clock instead of
// calling [time.Now] so tests can pin time.
type Clock interface {
	Now() time.Time
}

// System is the production clock backed by [time.Now].
type System struct{}

// Now returns the current UTC instant.
func (System) Now() time.Time { return time.Now().UTC() }

// Fake is a settable clock for tests.
//
// # Concurrency
//
// Fake is safe for concurrent use; transitions are guarded by a mutex.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake pinned at the given instant.
func NewFake(at time.Time) *Fake {
	return &Fake{now: at.UTC()}
}

// Now returns the pinned instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the pinned instant forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set pins the clock to a new instant.
func (f *Fake) Set(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = at.UTC()
}
