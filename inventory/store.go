/*
store.go - Persistence contract for counters and allocations

The Store keeps the two kinds of capacity state:
  - DailyCapacityCounter rows: the only mutable records. Writes are
    guarded by an optimistic version check so two concurrent allocators
    can never both apply an update based on the same read.
  - Allocation rows: append-only decision records. The single permitted
    mutation is flipping Released exactly once.

IMPLEMENTATIONS:
  - store/sqlite: production store (shared with ledger and settlement)
  - inventory/store: in-memory store for tests and development
*/
package inventory

import "context"

// Store persists capacity counters and allocation records.
type Store interface {
	// GetCounter returns the counter for unit/date, or nil if the day has
	// never been allocated against.
	GetCounter(ctx context.Context, unitID UnitID, date Date) (*DailyCapacityCounter, error)

	// PutCounter inserts or updates a counter. The counter must carry the
	// Version that was read (zero for a fresh row); the store bumps it on
	// success and returns ErrConcurrentModification on a stale write.
	PutCounter(ctx context.Context, counter DailyCapacityCounter) error

	// CountersInRange returns existing counters for a unit over [from, to],
	// ordered by date. Days with no counter row are simply absent.
	CountersInRange(ctx context.Context, unitID UnitID, from, to Date) ([]DailyCapacityCounter, error)

	// SaveAllocation appends an allocation record. Append-only.
	SaveAllocation(ctx context.Context, alloc Allocation) error

	// GetAllocation returns an allocation by ID, or nil if absent.
	GetAllocation(ctx context.Context, id AllocationID) (*Allocation, error)

	// MarkReleased flips the Released flag on a granted allocation.
	// Returns ErrAlreadyReleased if it was flipped before.
	MarkReleased(ctx context.Context, id AllocationID) error
}
