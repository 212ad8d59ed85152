package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAllocationState is returned when emitting against an
	// allocation that was rejected or already released.
	ErrInvalidAllocationState = errors.New("allocation not in emittable state")

	// ErrInvalidCommission is returned when the commission is negative or
	// exceeds the gross amount.
	ErrInvalidCommission = errors.New("invalid commission")

	// ErrDuplicateEntry is returned when an allocation already has a
	// ledger entry. One booking, one entry; corrections are offsets.
	ErrDuplicateEntry = errors.New("ledger entry already exists for allocation")

	// ErrEntryNotFound is returned when a referenced entry does not exist.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrInvalidCurrency is returned for an empty currency code.
	ErrInvalidCurrency = errors.New("currency is required")
)

// CommissionError carries the offending amounts for a commission outside
// [0, gross].
type CommissionError struct {
	Gross      decimal.Decimal
	Commission decimal.Decimal
}

func (e *CommissionError) Error() string {
	return fmt.Sprintf("invalid commission %s against gross %s",
		e.Commission.String(), e.Gross.String())
}

func (e *CommissionError) Unwrap() error { return ErrInvalidCommission }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAllocationState) ||
		errors.Is(err, ErrInvalidCommission) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrInvalidCurrency)
}
