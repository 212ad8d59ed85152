/*
errors.go - Centralized error types for the capacity core

ERROR CATEGORIES:
  1. Expected business rejections - capacity full, stop-sell active.
     Structured results the caller must branch on, always carrying enough
     context (consumed / max) to render a useful message.
  2. Precondition violations - unknown unit, bad quantity, bad date.
     Client errors, never retried.
  3. Storage conflicts - optimistic lock failures. Retried a bounded
     number of times by the allocator, then surfaced.

USAGE:
  if errors.Is(err, inventory.ErrCapacityNotAvailable) { ... }
  var capErr *inventory.CapacityError
  if errors.As(err, &capErr) { render(capErr.Consumed, capErr.MaxPerDay) }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCapacityNotAvailable is the normal, expected rejection when a
	// request does not fit the remaining capacity and the unit does not
	// permit overbooking.
	ErrCapacityNotAvailable = errors.New("capacity not available")

	// ErrStopSellActive is returned when an unconditional stop-sell rule
	// vetoes the unit/date before capacity is even considered.
	ErrStopSellActive = errors.New("stop-sell active")

	// ErrUnitNotFound is returned when the catalog cannot resolve the unit.
	// This is a hard precondition failure, not a capacity rejection.
	ErrUnitNotFound = errors.New("sellable unit not found")

	// ErrInvalidQuantity is returned for requested quantities below 1.
	ErrInvalidQuantity = errors.New("requested quantity must be at least 1")

	// ErrAllocationNotFound is returned when a referenced allocation does
	// not exist.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrInvalidAllocationState is returned when an operation requires a
	// granted, unreleased allocation and gets something else.
	ErrInvalidAllocationState = errors.New("invalid allocation state")

	// ErrAlreadyReleased is returned on a second release of the same
	// allocation.
	ErrAlreadyReleased = errors.New("allocation already released")

	// ErrConcurrentModification is returned when the store's version check
	// detects a conflicting counter write. Safe to retry.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry context for the caller
// =============================================================================

// CapacityError reports a capacity rejection with the numbers the caller
// needs to explain it.
type CapacityError struct {
	UnitID    UnitID
	Date      Date
	Requested int
	Consumed  int
	MaxPerDay int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity not available: unit %s on %s, requested %d with %d/%d consumed",
		e.UnitID, e.Date, e.Requested, e.Consumed, e.MaxPerDay)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityNotAvailable }

// StopSellError reports the rule that vetoed an allocation.
type StopSellError struct {
	Rule StopSellRule
}

func (e *StopSellError) Error() string {
	return fmt.Sprintf("stop-sell active for unit %s (%s to %s): %s",
		e.Rule.UnitID, e.Rule.From, e.Rule.To, e.Rule.Reason)
}

func (e *StopSellError) Unwrap() error { return ErrStopSellActive }

// InvalidDateError reports a string that is not a real calendar date.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid calendar date: %q", e.Input)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input
// or a normal business rejection.
func IsClientError(err error) bool {
	var dateErr *InvalidDateError
	return errors.Is(err, ErrCapacityNotAvailable) ||
		errors.Is(err, ErrStopSellActive) ||
		errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrInvalidAllocationState) ||
		errors.Is(err, ErrAlreadyReleased) ||
		errors.As(err, &dateErr)
}
