/*
Package inventory provides the capacity allocation core.

PURPOSE:
  This package contains the types and the transactional decision function
  that govern how sellable inventory (tour departures, room categories) is
  consumed day by day. A sellable unit carries a nominal daily capacity and
  an overbook policy; every admission decision is recorded as an immutable
  Allocation so the question "why was this booking allowed?" always has an
  answer in the data.

KEY CONCEPTS IN THIS FILE (types.go):
  - SellableUnit: catalog-owned definition of what is being sold
  - DailyCapacityCounter: the durable per-(unit, day) consumption counter
  - Allocation: the audit record of one allocator decision
  - Date: a calendar day, the unit of capacity bookkeeping

DESIGN PRINCIPLES:
  1. Counters are the only mutable state; everything else is append-only
  2. Rejections are recorded, not discarded
  3. Overbooking is opt-in per unit and visible on both the counter and
     the allocation that caused it

SEE ALSO:
  - allocator.go: the Allocate/Release critical section
  - store.go: persistence contract
  - errors.go: sentinel and structured errors
*/
package inventory

import (
	"context"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UnitID string
type AllocationID string

// =============================================================================
// DATE - Calendar day used as counter key
// =============================================================================

// Date is a calendar day in YYYY-MM-DD form. Capacity is tracked per day,
// so the day string itself is the storage and lock key.
type Date string

const dateLayout = "2006-01-02"

// ParseDate validates s as a real calendar date.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", &InvalidDateError{Input: s}
	}
	return Date(s), nil
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
}

// DateOf truncates t to its calendar day (UTC).
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Time returns the day at midnight UTC.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// Month returns the YYYY-MM business month the day falls in.
func (d Date) Month() string {
	if len(d) < 7 {
		return ""
	}
	return string(d[:7])
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(d.Time().AddDate(0, 0, 1))
}

// After reports whether d is a later day than other.
func (d Date) After(other Date) bool {
	return string(d) > string(other)
}

// =============================================================================
// SELLABLE UNIT - Catalog-owned inventory definition
// =============================================================================

// CapacityMode describes what the daily counter counts.
type CapacityMode string

const (
	// ModePax counts capacity in person-units.
	ModePax CapacityMode = "pax"
	// ModeUnits counts capacity in whole sellable units (e.g. rooms).
	ModeUnits CapacityMode = "units"
)

// SellableUnit is the smallest inventory-bearing product configuration.
// The catalog owns these records; the allocator only reads them.
type SellableUnit struct {
	ID              UnitID
	Name            string
	Mode            CapacityMode
	MaxPerDay       int
	OverbookAllowed bool
}

// =============================================================================
// DAILY CAPACITY COUNTER - The shared mutable resource
// =============================================================================

// DailyCapacityCounter tracks consumption for one unit on one day.
// Created lazily on first allocation attempt, never deleted: the row is
// the historical record of what was sold.
//
// Consumed only increases through a granted Allocation and only decreases
// through an explicit Release. Overbooked flips to true the first time
// Consumed exceeds MaxPerDay and stays true for the day even if capacity
// is later released.
type DailyCapacityCounter struct {
	UnitID     UnitID
	Date       Date
	Consumed   int
	Overbooked bool

	// Version supports optimistic concurrency in the store. A write must
	// carry the version it read; the store rejects stale writes.
	Version int64
}

// =============================================================================
// ALLOCATION - Immutable record of one allocator decision
// =============================================================================

// DecisionReason explains an allocator outcome.
type DecisionReason string

const (
	ReasonOK                DecisionReason = "ok"
	ReasonCapacityFull      DecisionReason = "capacity_full"
	ReasonOverbookedGranted DecisionReason = "overbooked_granted"
)

// Allocation is the result of one Allocate call. Rejections are persisted
// too: they are audit and analytics data, not failures to be discarded.
type Allocation struct {
	ID           AllocationID
	UnitID       UnitID
	Date         Date
	RequestedQty int
	Granted      bool
	// Overbook is true when the grant was only possible because the unit
	// permits overbooking.
	Overbook  bool
	Reason    DecisionReason
	Released  bool
	CreatedAt time.Time
}

// =============================================================================
// AVAILABILITY PROJECTION - Read-only view for capacity queries
// =============================================================================

// AvailabilityStatus is the label shown to booking UIs.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "available"
	// StatusFull is reported once nominal capacity is exhausted, including
	// when the day is overbooked.
	StatusFull AvailabilityStatus = "full"
)

// DayAvailability is the read-only projection of one counter.
type DayAvailability struct {
	UnitID     UnitID
	Date       Date
	Consumed   int
	MaxPerDay  int
	Overbooked bool
	Status     AvailabilityStatus
}

// =============================================================================
// EXTERNAL COLLABORATORS
// =============================================================================

// Catalog resolves sellable units. Owned by the surrounding product
// catalog; the allocator treats a missing unit as a hard precondition
// failure, never as a capacity rejection.
type Catalog interface {
	// GetUnit returns the unit, or nil if it does not exist.
	GetUnit(ctx context.Context, id UnitID) (*SellableUnit, error)
}

// StopSellRule is an unconditional block on selling a unit for a date
// range, regardless of remaining capacity.
type StopSellRule struct {
	ID     string
	UnitID UnitID
	From   Date
	To     Date
	Reason string
}

// Covers reports whether the rule blocks the given day.
func (r StopSellRule) Covers(d Date) bool {
	return !r.From.After(d) && !d.After(r.To)
}

// StopSellChecker is the veto collaborator consulted before allocation.
type StopSellChecker interface {
	// ActiveRule returns the rule blocking unit/date, or nil if selling
	// is open.
	ActiveRule(ctx context.Context, unitID UnitID, date Date) (*StopSellRule, error)
}
