/*
Package booking composes the inbound booking-creation boundary.

A booking request runs three steps in order: the stop-sell veto, the
capacity allocation, and the ledger emit. Stop-sell is a veto layered in
front of capacity, not a replacement for it - a blocked unit is rejected
even when capacity would allow the sale. Cancellation is the symmetric
path: release the capacity, then offset the money.
*/
package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tourvia/booking-core/inventory"
	"github.com/tourvia/booking-core/ledger"
)

// Service ties the allocator and the ledger emitter together behind one
// call per boundary operation.
type Service struct {
	allocator *inventory.Allocator
	emitter   *ledger.Emitter
	stopSell  inventory.StopSellChecker
	entries   ledger.Store
}

func NewService(allocator *inventory.Allocator, emitter *ledger.Emitter, stopSell inventory.StopSellChecker, entries ledger.Store) *Service {
	return &Service{
		allocator: allocator,
		emitter:   emitter,
		stopSell:  stopSell,
		entries:   entries,
	}
}

// CreateBookingInput is the full inbound payload: inventory coordinates
// plus the pricing fields the ledger needs.
type CreateBookingInput struct {
	UnitID       inventory.UnitID
	Date         inventory.Date
	RequestedQty int

	AgencyID   ledger.AgencyID
	SupplierID ledger.SupplierID
	Gross      decimal.Decimal
	Commission decimal.Decimal
	Currency   string
	// ServiceDate defaults to the allocation date when empty.
	ServiceDate inventory.Date
}

// BookingResult carries the created records. On a capacity rejection the
// persisted rejected allocation is still returned alongside the error so
// callers can show the audit trail.
type BookingResult struct {
	BookingID  ledger.BookingID
	Allocation inventory.Allocation
	Entry      ledger.Entry
}

// CreateBooking runs veto -> allocate -> emit.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (BookingResult, error) {
	if s.stopSell != nil {
		rule, err := s.stopSell.ActiveRule(ctx, in.UnitID, in.Date)
		if err != nil {
			return BookingResult{}, fmt.Errorf("stop-sell check: %w", err)
		}
		if rule != nil {
			return BookingResult{}, &inventory.StopSellError{Rule: *rule}
		}
	}

	alloc, err := s.allocator.Allocate(ctx, in.UnitID, in.Date, in.RequestedQty)
	if err != nil {
		return BookingResult{Allocation: alloc}, err
	}

	serviceDate := in.ServiceDate
	if serviceDate == "" {
		serviceDate = in.Date
	}

	bookingID := ledger.BookingID(uuid.NewString())
	entry, err := s.emitter.Emit(ctx, ledger.EmitInput{
		BookingID:    bookingID,
		AllocationID: alloc.ID,
		AgencyID:     in.AgencyID,
		SupplierID:   in.SupplierID,
		Gross:        in.Gross,
		Commission:   in.Commission,
		Currency:     in.Currency,
		BookingDate:  inventory.DateOf(alloc.CreatedAt),
		ServiceDate:  serviceDate,
	})
	if err != nil {
		// Money validation failed after capacity was taken: give the
		// capacity back so no partial state stays visible.
		if _, relErr := s.allocator.Release(ctx, alloc.ID); relErr != nil {
			return BookingResult{Allocation: alloc}, fmt.Errorf("emit failed (%w) and release failed: %v", err, relErr)
		}
		return BookingResult{Allocation: alloc}, err
	}

	return BookingResult{BookingID: bookingID, Allocation: alloc, Entry: entry}, nil
}

// CancelBooking releases the allocation and, when a ledger entry was
// emitted for it, writes the offsetting entry.
func (s *Service) CancelBooking(ctx context.Context, id inventory.AllocationID, reason string) (BookingResult, error) {
	alloc, err := s.allocator.Release(ctx, id)
	if err != nil {
		return BookingResult{}, err
	}

	result := BookingResult{Allocation: alloc}

	entry, err := s.entries.GetByAllocation(ctx, id)
	if err != nil {
		return result, fmt.Errorf("load entry: %w", err)
	}
	if entry != nil {
		offset, err := s.emitter.EmitOffset(ctx, entry.ID, reason)
		if err != nil {
			return result, err
		}
		result.BookingID = entry.BookingID
		result.Entry = offset
	}
	return result, nil
}
