/*
aggregator.go - Idempotent rollup of ledger entries into summaries

Recompute is a pure function of the matching ledger entries: run it twice
with no new entries and the totals are byte-identical. It creates missing
summaries as open, and refreshes the cached totals of closed or disputed
ones without touching their status - a late entry never silently reopens
a settled period.
*/
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourvia/booking-core/ledger"
)

// Aggregator recomputes settlement summaries from the ledger.
type Aggregator struct {
	entries   ledger.Store
	summaries Store
	log       *logrus.Logger
	now       func() time.Time
}

func NewAggregator(entries ledger.Store, summaries Store, log *logrus.Logger) *Aggregator {
	if log == nil {
		log = logrus.New()
	}
	return &Aggregator{entries: entries, summaries: summaries, log: log, now: time.Now}
}

// Recompute rebuilds the summary for one key from its ledger entries.
func (a *Aggregator) Recompute(ctx context.Context, key ledger.Key) (Summary, error) {
	entries, err := a.entries.ListByKey(ctx, key)
	if err != nil {
		return Summary{}, fmt.Errorf("list entries: %w", err)
	}

	gross := decimal.Zero
	commission := decimal.Zero
	net := decimal.Zero
	for _, e := range entries {
		gross = gross.Add(e.Gross)
		commission = commission.Add(e.Commission)
		net = net.Add(e.Net)
	}

	var summary Summary
	for attempt := 0; ; attempt++ {
		existing, err := a.summaries.GetSummary(ctx, key)
		if err != nil {
			return Summary{}, fmt.Errorf("load summary: %w", err)
		}

		summary = Summary{
			Key:        key,
			Gross:      gross,
			Commission: commission,
			Net:        net,
			EntryCount: len(entries),
			Status:     StatusOpen,
			UpdatedAt:  a.now().UTC(),
		}
		if existing != nil {
			// Totals are refreshed for audit visibility, but the lifecycle
			// only moves through explicit transitions.
			summary.Status = existing.Status
			summary.DisputeReason = existing.DisputeReason
			summary.Version = existing.Version
		}

		err = a.summaries.PutSummary(ctx, summary)
		if err == nil {
			break
		}
		// A state transition may have landed between our read and write;
		// re-read and reapply the totals on top of it.
		if errors.Is(err, ErrConcurrentModification) && attempt < 3 {
			continue
		}
		return Summary{}, fmt.Errorf("write summary: %w", err)
	}
	summary.Version++

	a.log.WithFields(logrus.Fields{
		"agency":   key.AgencyID,
		"month":    key.Month,
		"currency": key.Currency,
		"entries":  summary.EntryCount,
		"net":      summary.Net.String(),
	}).Debug("settlement recomputed")

	return summary, nil
}

// RecomputeAll discovers every bucket present in the ledger and recomputes
// each. This is the on-demand "refresh everything" entry point; it is safe
// to run concurrently with new ledger writes since each Recompute simply
// sums whatever entries are visible at read time.
func (a *Aggregator) RecomputeAll(ctx context.Context) ([]Summary, error) {
	keys, err := a.entries.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		s, err := a.Recompute(ctx, key)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, s)
	}

	a.log.WithField("buckets", len(summaries)).Info("settlement aggregation run complete")
	return summaries, nil
}
