package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/booking-core/inventory"
	"github.com/tourvia/booking-core/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAllocator(t *testing.T, unit inventory.SellableUnit) (*inventory.Allocator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.PutUnit(context.Background(), unit))
	return inventory.NewAllocator(mem, mem), mem
}

func roomUnit(id string, max int, overbook bool) inventory.SellableUnit {
	return inventory.SellableUnit{
		ID:              inventory.UnitID(id),
		Name:            "Double Room",
		Mode:            inventory.ModeUnits,
		MaxPerDay:       max,
		OverbookAllowed: overbook,
	}
}

const day = inventory.Date("2026-07-14")

// =============================================================================
// CAPACITY LIMIT TESTS
// =============================================================================

func TestAllocate_WithinCapacity_Granted(t *testing.T) {
	// GIVEN: A unit with 10 per day and 0 consumed
	// WHEN: Requesting 3
	// THEN: Granted with reason ok, counter at 3

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	a, err := alloc.Allocate(ctx, "room-dbl", day, 3)
	require.NoError(t, err)

	assert.True(t, a.Granted)
	assert.False(t, a.Overbook)
	assert.Equal(t, inventory.ReasonOK, a.Reason)

	counter, err := mem.GetCounter(ctx, "room-dbl", day)
	require.NoError(t, err)
	require.NotNil(t, counter)
	assert.Equal(t, 3, counter.Consumed)
	assert.False(t, counter.Overbooked)
}

func TestAllocate_ExactFit_Granted(t *testing.T) {
	// GIVEN: A unit with 10 per day and 7 consumed
	// WHEN: Requesting exactly the remaining 3
	// THEN: Granted without overbooking

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 7)
	require.NoError(t, err)

	a, err := alloc.Allocate(ctx, "room-dbl", day, 3)
	require.NoError(t, err)
	assert.True(t, a.Granted)
	assert.Equal(t, inventory.ReasonOK, a.Reason)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 10, counter.Consumed)
	assert.False(t, counter.Overbooked, "exact fit is not an overbook")
}

func TestAllocate_OverCapacity_NoOverbook_Rejected(t *testing.T) {
	// GIVEN: A unit with 10 per day, 9 consumed, overbook disabled
	// WHEN: Requesting 2
	// THEN: Rejected with CAPACITY_NOT_AVAILABLE semantics; counter untouched;
	//       the rejected allocation is still persisted for audit

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 9)
	require.NoError(t, err)

	a, err := alloc.Allocate(ctx, "room-dbl", day, 2)
	require.Error(t, err)

	var capErr *inventory.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, errors.Is(err, inventory.ErrCapacityNotAvailable))
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 9, capErr.Consumed)
	assert.Equal(t, 10, capErr.MaxPerDay)

	assert.False(t, a.Granted)
	assert.Equal(t, inventory.ReasonCapacityFull, a.Reason)

	// Counter must not move on a rejection.
	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 9, counter.Consumed)

	// The rejection is a record, not a dropped request.
	saved, err := mem.GetAllocation(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.Granted)
}

func TestAllocate_OverCapacity_OverbookAllowed_Granted(t *testing.T) {
	// GIVEN: A unit with 10 per day, 9 consumed, overbook enabled
	// WHEN: Requesting 2
	// THEN: Granted with overbooked_granted; counter at 11 and flagged

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, true))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 9)
	require.NoError(t, err)

	a, err := alloc.Allocate(ctx, "room-dbl", day, 2)
	require.NoError(t, err)
	assert.True(t, a.Granted)
	assert.True(t, a.Overbook)
	assert.Equal(t, inventory.ReasonOverbookedGranted, a.Reason)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 11, counter.Consumed)
	assert.True(t, counter.Overbooked)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestAllocate_InvalidInput_Rejected(t *testing.T) {
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = alloc.Allocate(ctx, "room-dbl", day, -5)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = alloc.Allocate(ctx, "room-dbl", "14/07/2026", 1)
	var dateErr *inventory.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)

	_, err = alloc.Allocate(ctx, "no-such-unit", day, 1)
	assert.ErrorIs(t, err, inventory.ErrUnitNotFound)
}

func TestAllocate_ZeroCapacityUnit_AlwaysRejected(t *testing.T) {
	// A unit with max_per_day=0 and no overbooking can never be sold.
	alloc, _ := newTestAllocator(t, roomUnit("closed-room", 0, false))

	_, err := alloc.Allocate(context.Background(), "closed-room", day, 1)
	assert.ErrorIs(t, err, inventory.ErrCapacityNotAvailable)
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestAllocate_ConcurrentRequests_NeverOversell(t *testing.T) {
	// GIVEN: A unit with capacity 10 and no overbooking
	// WHEN: 25 goroutines each request 1 for the same day
	// THEN: Exactly 10 are granted, 15 rejected, counter ends at 10

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	const requests = 25
	results := make(chan error, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alloc.Allocate(ctx, "room-dbl", day, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, inventory.ErrCapacityNotAvailable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 10, granted)
	assert.Equal(t, 15, rejected)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 10, counter.Consumed)
	assert.False(t, counter.Overbooked)
}

func TestAllocate_ConcurrentAcrossDays_Independent(t *testing.T) {
	// Different days never contend; each day fills to its own limit.
	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 5, false))
	ctx := context.Background()

	days := []inventory.Date{"2026-07-14", "2026-07-15", "2026-07-16"}
	var wg sync.WaitGroup
	for _, d := range days {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(d inventory.Date) {
				defer wg.Done()
				_, err := alloc.Allocate(ctx, "room-dbl", d, 1)
				assert.NoError(t, err)
			}(d)
		}
	}
	wg.Wait()

	for _, d := range days {
		counter, _ := mem.GetCounter(ctx, "room-dbl", d)
		assert.Equal(t, 5, counter.Consumed, "day %s", d)
	}
}

// =============================================================================
// RELEASE TESTS
// =============================================================================

func TestRelease_ReturnsCapacity(t *testing.T) {
	// GIVEN: 3 consumed out of 10
	// WHEN: Releasing the allocation
	// THEN: Counter drops back to 0 and the same quantity can be sold again

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	a, err := alloc.Allocate(ctx, "room-dbl", day, 3)
	require.NoError(t, err)

	released, err := alloc.Release(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, released.Released)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 0, counter.Consumed)

	_, err = alloc.Allocate(ctx, "room-dbl", day, 10)
	assert.NoError(t, err, "released capacity is sellable again")
}

// rendezvousStore delays GetAllocation until two callers have arrived, so
// both release paths observe the allocation before either one commits.
type rendezvousStore struct {
	*store.Memory
	mu      sync.Mutex
	arrived int
	gate    chan struct{}
}

func (s *rendezvousStore) GetAllocation(ctx context.Context, id inventory.AllocationID) (*inventory.Allocation, error) {
	s.mu.Lock()
	s.arrived++
	if s.arrived == 2 {
		close(s.gate)
	}
	s.mu.Unlock()
	<-s.gate
	return s.Memory.GetAllocation(ctx, id)
}

func TestRelease_ConcurrentDoubleRelease_SingleDecrement(t *testing.T) {
	// GIVEN: A(3) and B(2) fill a 5-unit day
	// WHEN: Two overlapping releases of A both read Released=false
	// THEN: Exactly one succeeds, the counter drops once to 2 (B's hold),
	//       and the freed capacity cannot admit more than 3

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.PutUnit(ctx, roomUnit("room-dbl", 5, false)))

	raced := &rendezvousStore{Memory: mem, gate: make(chan struct{})}
	alloc := inventory.NewAllocator(mem, raced)

	a, err := alloc.Allocate(ctx, "room-dbl", day, 3)
	require.NoError(t, err)
	_, err = alloc.Allocate(ctx, "room-dbl", day, 2)
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alloc.Release(ctx, a.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, inventory.ErrAlreadyReleased):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 2, counter.Consumed, "B still holds 2 units")

	_, err = alloc.Allocate(ctx, "room-dbl", day, 4)
	assert.ErrorIs(t, err, inventory.ErrCapacityNotAvailable)
	_, err = alloc.Allocate(ctx, "room-dbl", day, 3)
	assert.NoError(t, err)
}

func TestRelease_Twice_Rejected(t *testing.T) {
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 10, false))
	ctx := context.Background()

	a, err := alloc.Allocate(ctx, "room-dbl", day, 3)
	require.NoError(t, err)

	_, err = alloc.Release(ctx, a.ID)
	require.NoError(t, err)

	_, err = alloc.Release(ctx, a.ID)
	assert.ErrorIs(t, err, inventory.ErrAlreadyReleased)
}

func TestRelease_RejectedAllocation_Invalid(t *testing.T) {
	// A rejected allocation never consumed anything; releasing it would
	// corrupt the counter.
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 1, false))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 1)
	require.NoError(t, err)
	rejected, err := alloc.Allocate(ctx, "room-dbl", day, 1)
	require.Error(t, err)

	_, err = alloc.Release(ctx, rejected.ID)
	assert.ErrorIs(t, err, inventory.ErrInvalidAllocationState)
}

func TestRelease_UnknownAllocation_NotFound(t *testing.T) {
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 10, false))

	_, err := alloc.Release(context.Background(), "missing")
	assert.ErrorIs(t, err, inventory.ErrAllocationNotFound)
}

func TestRelease_OverbookedDay_FlagStaysSticky(t *testing.T) {
	// GIVEN: A day pushed into overbooking (11/10)
	// WHEN: A release brings consumption back under the limit
	// THEN: The day keeps its overbooked flag for audit

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 10, true))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", day, 10)
	require.NoError(t, err)
	over, err := alloc.Allocate(ctx, "room-dbl", day, 1)
	require.NoError(t, err)
	require.True(t, over.Overbook)

	_, err = alloc.Release(ctx, over.ID)
	require.NoError(t, err)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 10, counter.Consumed)
	assert.True(t, counter.Overbooked, "overbooked flag is sticky")
}

// =============================================================================
// AVAILABILITY WINDOW TESTS
// =============================================================================

func TestWindow_MixedDays(t *testing.T) {
	// GIVEN: One full day, one partial day, one untouched day
	// WHEN: Querying the three-day window
	// THEN: Statuses are full / available / available with correct counts

	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 2, false))
	ctx := context.Background()

	_, err := alloc.Allocate(ctx, "room-dbl", "2026-07-14", 2)
	require.NoError(t, err)
	_, err = alloc.Allocate(ctx, "room-dbl", "2026-07-15", 1)
	require.NoError(t, err)

	window, err := alloc.Window(ctx, "room-dbl", "2026-07-14", "2026-07-16")
	require.NoError(t, err)
	require.Len(t, window, 3)

	assert.Equal(t, inventory.StatusFull, window[0].Status)
	assert.Equal(t, 2, window[0].Consumed)

	assert.Equal(t, inventory.StatusAvailable, window[1].Status)
	assert.Equal(t, 1, window[1].Consumed)

	assert.Equal(t, inventory.StatusAvailable, window[2].Status)
	assert.Equal(t, 0, window[2].Consumed)
}

func TestWindow_InvalidRange_Rejected(t *testing.T) {
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 2, false))

	_, err := alloc.Window(context.Background(), "room-dbl", "2026-07-16", "2026-07-14")
	var dateErr *inventory.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)
}

func TestWindow_SpanCap(t *testing.T) {
	// A full leap year projects; one day more is a client error.
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 2, false))
	ctx := context.Background()

	window, err := alloc.Window(ctx, "room-dbl", "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, window, 366)

	_, err = alloc.Window(ctx, "room-dbl", "2024-01-01", "2025-01-01")
	var dateErr *inventory.InvalidDateError
	require.ErrorAs(t, err, &dateErr)
	assert.True(t, inventory.IsClientError(err))
}

func TestWindow_UnknownUnit_NotFound(t *testing.T) {
	alloc, _ := newTestAllocator(t, roomUnit("room-dbl", 2, false))

	_, err := alloc.Window(context.Background(), "ghost", "2026-07-14", "2026-07-16")
	assert.ErrorIs(t, err, inventory.ErrUnitNotFound)
}

// =============================================================================
// SCENARIO: LAST-UNIT CONTENTION
// =============================================================================

func TestScenario_TwoAgentsLastUnit(t *testing.T) {
	// Two agents race for the last unit: exactly one wins, the loser gets
	// a structured rejection, and the counter never exceeds the limit.

	alloc, mem := newTestAllocator(t, roomUnit("room-dbl", 1, false))
	ctx := context.Background()

	type outcome struct {
		alloc inventory.Allocation
		err   error
	}
	results := make(chan outcome, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := alloc.Allocate(ctx, "room-dbl", day, 1)
			results <- outcome{a, err}
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for r := range results {
		if r.err == nil {
			wins++
			assert.True(t, r.alloc.Granted)
		} else {
			losses++
			assert.ErrorIs(t, r.err, inventory.ErrCapacityNotAvailable)
			assert.False(t, r.alloc.Granted)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	counter, _ := mem.GetCounter(ctx, "room-dbl", day)
	assert.Equal(t, 1, counter.Consumed)
}

// =============================================================================
// DATE TYPE TESTS
// =============================================================================

func TestDate_ParseAndNavigate(t *testing.T) {
	d, err := inventory.ParseDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-12", d.Month())
	assert.Equal(t, inventory.Date("2027-01-01"), d.Next())
	assert.True(t, d.Next().After(d))

	for _, bad := range []string{"", "31-12-2026", "2026-13-01", "2026-02-30", "tomorrow"} {
		_, err := inventory.ParseDate(bad)
		assert.Error(t, err, fmt.Sprintf("input %q", bad))
	}
}
