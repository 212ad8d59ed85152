/*
emitter.go - Constructs and appends ledger entries

The emitter is the only writer of the ledger. It enforces the money
invariants at construction, checks that the referenced allocation is in an
emittable state, and stamps the entry's business month from its anchor
policy. Writing an entry never touches settlement summaries: aggregation
is a separate idempotent step so entries can be backfilled and aggregation
re-run safely.
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tourvia/booking-core/inventory"
)

// AllocationReader is the slice of the inventory store the emitter needs
// to validate preconditions.
type AllocationReader interface {
	GetAllocation(ctx context.Context, id inventory.AllocationID) (*inventory.Allocation, error)
}

// Emitter writes ledger entries.
type Emitter struct {
	store       Store
	allocations AllocationReader
	anchor      MonthAnchor
	now         func() time.Time
}

// NewEmitter builds an emitter with the given month-anchor policy.
// AnchorBookingDate is the conventional choice; pass AnchorServiceDate to
// settle by check-in month instead.
func NewEmitter(store Store, allocations AllocationReader, anchor MonthAnchor) *Emitter {
	if anchor == "" {
		anchor = AnchorBookingDate
	}
	return &Emitter{store: store, allocations: allocations, anchor: anchor, now: time.Now}
}

// EmitInput carries everything needed to record one booking's money.
type EmitInput struct {
	BookingID    BookingID
	AllocationID inventory.AllocationID
	AgencyID     AgencyID
	SupplierID   SupplierID
	Gross        decimal.Decimal
	Commission   decimal.Decimal
	Currency     string
	BookingDate  inventory.Date
	ServiceDate  inventory.Date
}

// Emit validates the input and appends the entry.
func (e *Emitter) Emit(ctx context.Context, in EmitInput) (Entry, error) {
	if in.Currency == "" {
		return Entry{}, ErrInvalidCurrency
	}
	if in.Commission.IsNegative() || in.Commission.GreaterThan(in.Gross) {
		return Entry{}, &CommissionError{Gross: in.Gross, Commission: in.Commission}
	}

	alloc, err := e.allocations.GetAllocation(ctx, in.AllocationID)
	if err != nil {
		return Entry{}, fmt.Errorf("load allocation: %w", err)
	}
	if alloc == nil || !alloc.Granted || alloc.Released {
		return Entry{}, ErrInvalidAllocationState
	}

	entry := Entry{
		ID:           EntryID(uuid.NewString()),
		BookingID:    in.BookingID,
		AgencyID:     in.AgencyID,
		SupplierID:   in.SupplierID,
		AllocationID: in.AllocationID,
		Gross:        in.Gross,
		Commission:   in.Commission,
		Net:          in.Gross.Sub(in.Commission),
		Currency:     in.Currency,
		BookingDate:  in.BookingDate,
		ServiceDate:  in.ServiceDate,
		EntryMonth:   e.entryMonth(in),
		CreatedAt:    e.now().UTC(),
	}

	if err := e.store.Append(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// EmitOffset writes a negating entry for a previously emitted one, in the
// same business month so an already-reviewed period reconciles to the
// corrected totals instead of leaking into a later one.
func (e *Emitter) EmitOffset(ctx context.Context, id EntryID, reason string) (Entry, error) {
	orig, err := e.store.GetByID(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("load entry: %w", err)
	}
	if orig == nil {
		return Entry{}, ErrEntryNotFound
	}

	offset := Entry{
		ID:           EntryID(uuid.NewString()),
		BookingID:    orig.BookingID,
		AgencyID:     orig.AgencyID,
		SupplierID:   orig.SupplierID,
		AllocationID: orig.AllocationID,
		Gross:        orig.Gross.Neg(),
		Commission:   orig.Commission.Neg(),
		Net:          orig.Net.Neg(),
		Currency:     orig.Currency,
		BookingDate:  orig.BookingDate,
		ServiceDate:  orig.ServiceDate,
		EntryMonth:   orig.EntryMonth,
		OffsetOf:     orig.ID,
		Reason:       reason,
		CreatedAt:    e.now().UTC(),
	}

	if err := e.store.Append(ctx, offset); err != nil {
		return Entry{}, err
	}
	return offset, nil
}

func (e *Emitter) entryMonth(in EmitInput) string {
	if e.anchor == AnchorServiceDate && in.ServiceDate != "" {
		return in.ServiceDate.Month()
	}
	return in.BookingDate.Month()
}
