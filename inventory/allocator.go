/*
allocator.go - The transactional capacity decision function

PURPOSE:
  Allocate is the single critical section of the system. Given a unit, a
  day, and a requested quantity it either reserves the quantity or rejects
  the request, respecting the unit's overbook policy. The read-compute-write
  against the daily counter is linearized per (unit, date) key: no two
  callers can observe the same consumed value and both proceed to write.

DECISION TABLE:
  consumed + qty <= max            -> grant, reason ok
  over max, overbook allowed       -> grant, reason overbooked_granted,
                                      counter marked overbooked
  over max, overbook not allowed   -> reject, reason capacity_full,
                                      counter untouched

  The allocation record is persisted for every outcome, rejections
  included.

CONCURRENCY:
  A per-key mutex covers the in-process critical section. The store's
  version check on counter writes covers out-of-process writers; a stale
  write is retried a bounded number of times, which is safe because the
  whole section is a pure compare-and-write with no partial state.

TIE-BREAK:
  Whichever caller commits first wins the remaining capacity. The second
  is evaluated against the updated counter. No priority beyond commit
  order.
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxCounterRetries bounds retries on ErrConcurrentModification from the
// store. With the per-key mutex in front, retries only fire when another
// process shares the database.
const maxCounterRetries = 3

// maxWindowDays caps an availability projection at a leap year. Larger
// ranges are a client mistake, not a legitimate query.
const maxWindowDays = 366

// Allocator owns the capacity critical section.
type Allocator struct {
	catalog Catalog
	store   Store
	locks   *keyLock
	now     func() time.Time
}

// NewAllocator wires an allocator against a catalog and a store.
func NewAllocator(catalog Catalog, store Store) *Allocator {
	return &Allocator{
		catalog: catalog,
		store:   store,
		locks:   newKeyLock(),
		now:     time.Now,
	}
}

// Allocate reserves qty for unit/date or rejects the request.
//
// A rejection returns the persisted (granted=false) allocation together
// with a *CapacityError; callers branch on errors.Is(err,
// ErrCapacityNotAvailable) rather than treating it as a failure.
func (a *Allocator) Allocate(ctx context.Context, unitID UnitID, date Date, qty int) (Allocation, error) {
	if qty < 1 {
		return Allocation{}, ErrInvalidQuantity
	}
	if _, err := ParseDate(string(date)); err != nil {
		return Allocation{}, err
	}

	unit, err := a.catalog.GetUnit(ctx, unitID)
	if err != nil {
		return Allocation{}, fmt.Errorf("catalog lookup: %w", err)
	}
	if unit == nil {
		return Allocation{}, ErrUnitNotFound
	}

	mu := a.locks.lock(unitID, date)
	defer mu.Unlock()

	var alloc Allocation
	var rejection *CapacityError

	for attempt := 0; ; attempt++ {
		counter, err := a.store.GetCounter(ctx, unitID, date)
		if err != nil {
			return Allocation{}, fmt.Errorf("load counter: %w", err)
		}
		if counter == nil {
			counter = &DailyCapacityCounter{UnitID: unitID, Date: date}
		}

		alloc = Allocation{
			ID:           AllocationID(uuid.NewString()),
			UnitID:       unitID,
			Date:         date,
			RequestedQty: qty,
			CreatedAt:    a.now().UTC(),
		}
		rejection = nil

		wouldBe := counter.Consumed + qty
		switch {
		case wouldBe <= unit.MaxPerDay:
			alloc.Granted = true
			alloc.Reason = ReasonOK
			counter.Consumed = wouldBe
		case unit.OverbookAllowed:
			alloc.Granted = true
			alloc.Overbook = true
			alloc.Reason = ReasonOverbookedGranted
			counter.Consumed = wouldBe
			counter.Overbooked = true
		default:
			alloc.Granted = false
			alloc.Reason = ReasonCapacityFull
			rejection = &CapacityError{
				UnitID:    unitID,
				Date:      date,
				Requested: qty,
				Consumed:  counter.Consumed,
				MaxPerDay: unit.MaxPerDay,
			}
		}

		if alloc.Granted {
			if err := a.store.PutCounter(ctx, *counter); err != nil {
				if IsRetryable(err) && attempt < maxCounterRetries {
					continue
				}
				return Allocation{}, fmt.Errorf("write counter: %w", err)
			}
		}
		break
	}

	// Rejections are kept for audit and analytics, not discarded.
	if err := a.store.SaveAllocation(ctx, alloc); err != nil {
		return Allocation{}, fmt.Errorf("save allocation: %w", err)
	}

	if rejection != nil {
		return alloc, rejection
	}
	return alloc, nil
}

// Release returns a granted allocation's quantity to the day's counter.
//
// The counter's Overbooked flag is sticky: a day that was oversold stays
// flagged for audit even after a release brings consumption back under
// the limit.
func (a *Allocator) Release(ctx context.Context, id AllocationID) (Allocation, error) {
	alloc, err := a.store.GetAllocation(ctx, id)
	if err != nil {
		return Allocation{}, fmt.Errorf("load allocation: %w", err)
	}
	if alloc == nil {
		return Allocation{}, ErrAllocationNotFound
	}
	if !alloc.Granted {
		return Allocation{}, ErrInvalidAllocationState
	}
	if alloc.Released {
		return Allocation{}, ErrAlreadyReleased
	}

	mu := a.locks.lock(alloc.UnitID, alloc.Date)
	defer mu.Unlock()

	// The once-only flip is the idempotency guard and must commit before
	// the counter moves: two overlapping releases that both read
	// Released=false above are serialized here, and the loser stops short
	// of a second decrement.
	if err := a.store.MarkReleased(ctx, id); err != nil {
		return Allocation{}, err
	}

	for attempt := 0; ; attempt++ {
		counter, err := a.store.GetCounter(ctx, alloc.UnitID, alloc.Date)
		if err != nil {
			return Allocation{}, fmt.Errorf("load counter: %w", err)
		}
		if counter == nil {
			// A granted allocation always created its counter.
			return Allocation{}, fmt.Errorf("counter missing for %s/%s", alloc.UnitID, alloc.Date)
		}

		counter.Consumed -= alloc.RequestedQty
		if counter.Consumed < 0 {
			counter.Consumed = 0
		}

		if err := a.store.PutCounter(ctx, *counter); err != nil {
			if IsRetryable(err) && attempt < maxCounterRetries {
				continue
			}
			return Allocation{}, fmt.Errorf("write counter: %w", err)
		}
		break
	}

	alloc.Released = true
	return *alloc, nil
}

// Window projects availability for a unit across [from, to], one entry
// per day. Days that were never allocated against report zero consumption.
func (a *Allocator) Window(ctx context.Context, unitID UnitID, from, to Date) ([]DayAvailability, error) {
	if from.After(to) {
		return nil, &InvalidDateError{Input: string(from) + ".." + string(to)}
	}
	if days := int(to.Time().Sub(from.Time()).Hours()/24) + 1; days > maxWindowDays {
		return nil, &InvalidDateError{Input: fmt.Sprintf("%s..%s spans %d days, max %d", from, to, days, maxWindowDays)}
	}

	unit, err := a.catalog.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	if unit == nil {
		return nil, ErrUnitNotFound
	}

	counters, err := a.store.CountersInRange(ctx, unitID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	byDate := make(map[Date]DailyCapacityCounter, len(counters))
	for _, c := range counters {
		byDate[c.Date] = c
	}

	var window []DayAvailability
	for d := from; !d.After(to); d = d.Next() {
		c := byDate[d]
		status := StatusAvailable
		if c.Consumed >= unit.MaxPerDay {
			status = StatusFull
		}
		window = append(window, DayAvailability{
			UnitID:     unitID,
			Date:       d,
			Consumed:   c.Consumed,
			MaxPerDay:  unit.MaxPerDay,
			Overbooked: c.Overbooked,
			Status:     status,
		})
	}
	return window, nil
}
