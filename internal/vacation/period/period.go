// Copyright (c) 2026 Vacaplan. All rights reserved.

/*
Package period manages the vacation calendar: periods, per-user
allocations, business-day math, and balance projection.

A period is a company-configurable accounting year, commonly April 1 to
March 31. Allocations grant each user a day budget inside one period;
usage is debited only by request transitions, never directly. Balance
queries are pure projections over allocations and pending requests.
*/
package period

import (
	"fmt"
	"sort"
	"time"

	"github.com/vacaplan/vacaplan/pkg/slice"
)

// # Core Entities

// Period is one vacation accounting year of a company.
type Period struct {
	ID        string    `json:"id"` // UUIDv7
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the date falls inside the period, inclusive
// on both ends. Comparison is by calendar day.
func (period *Period) Contains(date time.Time) bool {
	day := truncateDay(date)
	return !day.Before(truncateDay(period.StartDate)) && !day.After(truncateDay(period.EndDate))
}

// Allocation is a user's day budget inside one period.
type Allocation struct {
	ID              string    `json:"id"` // UUIDv7
	UserID          string    `json:"user_id"`
	PeriodID        string    `json:"period_id"`
	TotalDays       int       `json:"total_days"`
	CarriedOverDays int       `json:"carried_over_days"`
	DaysUsed        int       `json:"days_used"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TotalAvailable is the allocation's full budget including carry-over.
func (allocation *Allocation) TotalAvailable() int {
	return allocation.TotalDays + allocation.CarriedOverDays
}

// Remaining is the budget left after approved usage.
func (allocation *Allocation) Remaining() int {
	return allocation.TotalAvailable() - allocation.DaysUsed
}

// Balance is the read-only projection returned to clients. PendingDays
// counts days in not-yet-decided requests; they are not debited.
type Balance struct {
	PeriodID        string `json:"period_id"`
	PeriodName      string `json:"period_name"`
	UserID          string `json:"user_id"`
	TotalDays       int    `json:"total_days"`
	CarriedOverDays int    `json:"carried_over_days"`
	DaysUsed        int    `json:"days_used"`
	PendingDays     int    `json:"pending_days"`
	Remaining       int    `json:"remaining"`
}

// # Business-Day Math

/*
BusinessDays counts the Monday-through-Friday days in [start, end],
inclusive on both ends.

Description: The canonical days_count of a request. Holiday calendars
are informational only; they never reduce this count.

Parameters:
  - start, end: time.Time (Calendar dates; end before start yields 0)

Returns:
  - int: Weekday count
*/
func BusinessDays(start, end time.Time) int {
	first := truncateDay(start)
	last := truncateDay(end)
	if last.Before(first) {
		return 0
	}

	count := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// truncateDay drops the time-of-day component.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// # Period Resolution

// pickPeriod selects the covering period for a date from candidates.
// Ties between overlapping periods resolve deterministically: default
// first, then earliest start, then smallest name.
func pickPeriod(candidates []*Period, date time.Time) *Period {
	matched := slice.Filter(candidates, func(candidate *Period) bool {
		return candidate.IsActive && candidate.Contains(date)
	})
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].IsDefault != matched[j].IsDefault {
			return matched[i].IsDefault
		}
		if !matched[i].StartDate.Equal(matched[j].StartDate) {
			return matched[i].StartDate.Before(matched[j].StartDate)
		}
		return matched[i].Name < matched[j].Name
	})

	return matched[0]
}

// defaultBounds computes the April-to-March accounting year containing
// the date.
func defaultBounds(date time.Time) (start, end time.Time, name string) {
	year := date.Year()
	if date.Month() < time.April {
		year--
	}
	start = time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	return start, end, fmt.Sprintf("%d-%d", year, year+1)
}

// # Field Identifiers

const (
	FieldName      = "name"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldTotalDays = "total_days"
	FieldUserID    = "user_id"
	FieldPeriodID  = "period_id"
)
