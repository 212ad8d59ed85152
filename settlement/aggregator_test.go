package settlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/booking-core/inventory"
	"github.com/tourvia/booking-core/ledger"
	"github.com/tourvia/booking-core/settlement"
	"github.com/tourvia/booking-core/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAggregator(t *testing.T) (*settlement.Aggregator, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return settlement.NewAggregator(store, store, log), store
}

// seedEntry appends a ledger entry straight into a bucket, bypassing the
// emitter's allocation preconditions.
func seedEntry(t *testing.T, store *sqlite.Store, key ledger.Key, gross, commission string) ledger.Entry {
	t.Helper()
	g := decimal.RequireFromString(gross)
	c := decimal.RequireFromString(commission)
	entry := ledger.Entry{
		ID:           ledger.EntryID(uuid.NewString()),
		BookingID:    ledger.BookingID(uuid.NewString()),
		AgencyID:     key.AgencyID,
		SupplierID:   "HTL9",
		AllocationID: inventory.AllocationID(uuid.NewString()),
		Gross:        g,
		Commission:   c,
		Net:          g.Sub(c),
		Currency:     key.Currency,
		BookingDate:  inventory.Date(key.Month + "-05"),
		ServiceDate:  inventory.Date(key.Month + "-20"),
		EntryMonth:   key.Month,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Append(context.Background(), entry))
	return entry
}

var keyAG1 = ledger.Key{AgencyID: "AG1", Month: "2026-06", Currency: "EUR"}

// =============================================================================
// RECOMPUTE TESTS
// =============================================================================

func TestRecompute_SumsBucket(t *testing.T) {
	// GIVEN: Two entries in one bucket
	// WHEN: Recomputing
	// THEN: The summary carries the exact totals and entry count

	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedEntry(t, store, keyAG1, "100.00", "10.00")
	seedEntry(t, store, keyAG1, "250.50", "25.05")

	summary, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)

	assert.True(t, summary.Gross.Equal(decimal.RequireFromString("350.50")))
	assert.True(t, summary.Commission.Equal(decimal.RequireFromString("35.05")))
	assert.True(t, summary.Net.Equal(decimal.RequireFromString("315.45")))
	assert.Equal(t, 2, summary.EntryCount)
	assert.Equal(t, settlement.StatusOpen, summary.Status)
}

func TestRecompute_Idempotent(t *testing.T) {
	// Running Recompute twice with no new entries changes nothing.
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedEntry(t, store, keyAG1, "100.00", "10.00")

	first, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)
	second, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)

	assert.True(t, first.Gross.Equal(second.Gross))
	assert.True(t, first.Net.Equal(second.Net))
	assert.Equal(t, first.EntryCount, second.EntryCount)
	assert.Equal(t, first.Status, second.Status)
}

func TestRecompute_EmptyBucket_ZeroSummary(t *testing.T) {
	agg, _ := newTestAggregator(t)

	summary, err := agg.Recompute(context.Background(), keyAG1)
	require.NoError(t, err)
	assert.True(t, summary.Gross.IsZero())
	assert.Equal(t, 0, summary.EntryCount)
	assert.Equal(t, settlement.StatusOpen, summary.Status)
}

func TestRecompute_OffsetPairNetsToZero(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	entry := seedEntry(t, store, keyAG1, "100.00", "10.00")

	offset := entry
	offset.ID = ledger.EntryID(uuid.NewString())
	offset.Gross = entry.Gross.Neg()
	offset.Commission = entry.Commission.Neg()
	offset.Net = entry.Net.Neg()
	offset.OffsetOf = entry.ID
	require.NoError(t, store.Append(ctx, offset))

	summary, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)
	assert.True(t, summary.Gross.IsZero())
	assert.True(t, summary.Net.IsZero())
	assert.Equal(t, 2, summary.EntryCount, "offsets count as entries")
}

func TestRecompute_PreservesLifecycleStatus(t *testing.T) {
	// GIVEN: A disputed summary
	// WHEN: A late entry lands and Recompute runs
	// THEN: Totals refresh but the status and reason survive

	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedEntry(t, store, keyAG1, "100.00", "10.00")
	_, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)

	sm := settlement.NewStateMachine(store)
	_, err = sm.Dispute(ctx, keyAG1, "totals look wrong")
	require.NoError(t, err)

	seedEntry(t, store, keyAG1, "50.00", "5.00")
	summary, err := agg.Recompute(ctx, keyAG1)
	require.NoError(t, err)

	assert.Equal(t, settlement.StatusDisputed, summary.Status)
	assert.Equal(t, "totals look wrong", summary.DisputeReason)
	assert.True(t, summary.Gross.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, 2, summary.EntryCount)
}

func TestRecompute_SeparatesCurrenciesAndAgencies(t *testing.T) {
	// Buckets never mix: same month, different currency or agency.
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	keyUSD := ledger.Key{AgencyID: "AG1", Month: "2026-06", Currency: "USD"}
	keyAG2 := ledger.Key{AgencyID: "AG2", Month: "2026-06", Currency: "EUR"}

	seedEntry(t, store, keyAG1, "100.00", "10.00")
	seedEntry(t, store, keyUSD, "40.00", "4.00")
	seedEntry(t, store, keyAG2, "70.00", "7.00")

	summaries, err := agg.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	byKey := make(map[ledger.Key]settlement.Summary)
	for _, s := range summaries {
		byKey[s.Key] = s
	}
	assert.True(t, byKey[keyAG1].Gross.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, byKey[keyUSD].Gross.Equal(decimal.RequireFromString("40.00")))
	assert.True(t, byKey[keyAG2].Gross.Equal(decimal.RequireFromString("70.00")))
}

// =============================================================================
// LISTING TESTS
// =============================================================================

func TestListSummaries_Filters(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	seedEntry(t, store, keyAG1, "100.00", "10.00")
	seedEntry(t, store, ledger.Key{AgencyID: "AG2", Month: "2026-07", Currency: "EUR"}, "50.00", "5.00")
	_, err := agg.RecomputeAll(ctx)
	require.NoError(t, err)

	byMonth, err := store.ListSummaries(ctx, settlement.Filter{Month: "2026-06"})
	require.NoError(t, err)
	require.Len(t, byMonth, 1)
	assert.Equal(t, keyAG1, byMonth[0].Key)

	byAgency, err := store.ListSummaries(ctx, settlement.Filter{AgencyID: "AG2"})
	require.NoError(t, err)
	require.Len(t, byAgency, 1)

	open, err := store.ListSummaries(ctx, settlement.Filter{Status: settlement.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
