/*
Package ledger records the financial outcome of completed bookings.

PURPOSE:
  One Entry per confirmed booking, carrying the monetary breakdown
  (gross, commission, net) and a back-reference to the allocation that
  admitted it. Entries are the source of truth for settlement: monthly
  agency/supplier totals are always recomputed from them, never
  maintained incrementally.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted. Corrections are
     offsetting entries referencing the original.
  2. net = gross - commission, enforced at construction. Net is computed,
     never accepted from the caller.
  3. EntryMonth is derived once, at emit time, from the emitter's anchor
     policy. A later policy change affects only future entries.

PRECISION:
  Uses decimal.Decimal throughout; money never touches a float.
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tourvia/booking-core/inventory"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type BookingID string
type AgencyID string
type SupplierID string

// =============================================================================
// MONTH ANCHOR - Which date buckets an entry into a settlement month
// =============================================================================

// MonthAnchor selects the date that determines an entry's business month.
type MonthAnchor string

const (
	// AnchorBookingDate buckets entries by booking-creation date. This is
	// the default: commission is owed for the month the sale was made.
	AnchorBookingDate MonthAnchor = "booking_date"
	// AnchorServiceDate buckets entries by check-in / departure date.
	AnchorServiceDate MonthAnchor = "service_date"
)

// =============================================================================
// ENTRY - Immutable financial record of one booking
// =============================================================================

type Entry struct {
	ID           EntryID
	BookingID    BookingID
	AgencyID     AgencyID
	SupplierID   SupplierID
	AllocationID inventory.AllocationID

	Gross      decimal.Decimal
	Commission decimal.Decimal
	// Net is always Gross minus Commission.
	Net      decimal.Decimal
	Currency string

	BookingDate inventory.Date
	ServiceDate inventory.Date
	// EntryMonth is the YYYY-MM business period this entry settles in.
	// Fixed at emit time; immutable even if the anchor policy changes.
	EntryMonth string

	// OffsetOf references the entry this one negates, empty for normal
	// entries.
	OffsetOf EntryID
	Reason   string

	CreatedAt time.Time
}

// IsOffset reports whether the entry is a correction negating another.
func (e Entry) IsOffset() bool { return e.OffsetOf != "" }
