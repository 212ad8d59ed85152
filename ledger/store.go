package ledger

import (
	"context"

	"github.com/tourvia/booking-core/inventory"
)

// Key identifies the settlement bucket an entry rolls into.
type Key struct {
	AgencyID AgencyID
	Month    string // YYYY-MM
	Currency string
}

// Store is the append-only persistence contract for ledger entries.
// No Update, no Delete: corrections are offsetting entries.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateEntry when a non-offset
	// entry for the same allocation already exists.
	Append(ctx context.Context, entry Entry) error

	// GetByID returns an entry, or nil if absent.
	GetByID(ctx context.Context, id EntryID) (*Entry, error)

	// GetByAllocation returns the non-offset entry for an allocation, or
	// nil if none was emitted.
	GetByAllocation(ctx context.Context, id inventory.AllocationID) (*Entry, error)

	// ListByKey returns all entries (offsets included) for one
	// agency/month/currency bucket, ordered by creation time.
	ListByKey(ctx context.Context, key Key) ([]Entry, error)

	// ListKeys returns every distinct agency/month/currency bucket that
	// has at least one entry. Drives settlement recomputation.
	ListKeys(ctx context.Context) ([]Key, error)
}
