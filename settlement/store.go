package settlement

import (
	"context"

	"github.com/tourvia/booking-core/ledger"
)

// Store persists settlement summaries.
type Store interface {
	// GetSummary returns the summary for a key, or nil if none exists yet.
	GetSummary(ctx context.Context, key ledger.Key) (*Summary, error)

	// PutSummary inserts or updates a summary. The summary must carry the
	// Version that was read (zero for a fresh row); the store bumps it on
	// success and returns ErrConcurrentModification on a stale write.
	PutSummary(ctx context.Context, summary Summary) error

	// ListSummaries returns summaries matching the filter, ordered by
	// month then agency.
	ListSummaries(ctx context.Context, filter Filter) ([]Summary, error)
}

// Filter narrows a summary listing. Zero values match everything.
type Filter struct {
	AgencyID ledger.AgencyID
	Month    string
	Status   Status
}
