/*
Package settlement rolls ledger entries up into monthly agency summaries
and walks each summary through a two-party confirmation lifecycle.

A Summary is a cache, never a source of truth: its totals are recomputed
from the matching ledger entries whenever the aggregator runs, and the
recomputation is idempotent. What the summary does own is its lifecycle
status - open, one-sided confirmation, closed, or disputed - which only
explicit state transitions may change. Money is not considered settled
until both the agency and the hotel have confirmed.
*/
package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tourvia/booking-core/ledger"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

// Status is the settlement lifecycle state.
type Status string

const (
	StatusOpen              Status = "open"
	StatusConfirmedByAgency Status = "confirmed_by_agency"
	StatusConfirmedByHotel  Status = "confirmed_by_hotel"
	StatusClosed            Status = "closed"
	StatusDisputed          Status = "disputed"
)

// Role identifies which party is acting on a summary.
type Role string

const (
	RoleAgency Role = "agency"
	RoleHotel  Role = "hotel"
)

// ValidRole reports whether r is a known confirming party.
func ValidRole(r Role) bool {
	return r == RoleAgency || r == RoleHotel
}

// =============================================================================
// SUMMARY - Cached monthly rollup plus lifecycle state
// =============================================================================

// Summary is one (agency, month, currency) settlement bucket.
type Summary struct {
	Key ledger.Key

	// Totals are derived by summing matching ledger entries. They are a
	// cache: Recompute overwrites them and must never be trusted over the
	// ledger itself.
	Gross      decimal.Decimal
	Commission decimal.Decimal
	Net        decimal.Decimal
	EntryCount int

	Status Status
	// DisputeReason is set only while Status is disputed.
	DisputeReason string

	// Version supports optimistic concurrency on state transitions.
	Version   int64
	UpdatedAt time.Time
}

// Locked reports whether the summary rejects further confirm/dispute
// actions.
func (s Summary) Locked() bool {
	return s.Status == StatusClosed || s.Status == StatusDisputed
}
