package settlement

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSettlementLocked is returned when a confirm or dispute hits a
	// summary that is already closed or disputed. Local validation, never
	// retried.
	ErrSettlementLocked = errors.New("settlement locked")

	// ErrSummaryNotFound is returned when no summary exists for the key.
	ErrSummaryNotFound = errors.New("settlement summary not found")

	// ErrEmptyDisputeReason is returned when a dispute carries no reason.
	ErrEmptyDisputeReason = errors.New("dispute reason is required")

	// ErrInvalidRole is returned for a confirming party other than agency
	// or hotel.
	ErrInvalidRole = errors.New("invalid settlement role")

	// ErrConcurrentModification is returned when the store's version check
	// detects a conflicting summary write.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// LockedError reports the status that blocked a transition so the caller
// can say why the buttons are disabled.
type LockedError struct {
	Status Status
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("settlement locked in status %s", e.Status)
}

func (e *LockedError) Unwrap() error { return ErrSettlementLocked }

// IsClientError returns true if the error is due to invalid caller input
// or a guarded transition.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSettlementLocked) ||
		errors.Is(err, ErrSummaryNotFound) ||
		errors.Is(err, ErrEmptyDisputeReason) ||
		errors.Is(err, ErrInvalidRole)
}
