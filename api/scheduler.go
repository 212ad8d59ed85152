/*
scheduler.go - Background settlement refresh

PURPOSE:
  Periodically recomputes every settlement bucket from the ledger so the
  cached summaries stay close to the ledger truth even when no client
  hits the recompute endpoint.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each tick is a full RecomputeAll; recompute is idempotent, so an
    overlapping manual recompute is harmless
  - Closed and disputed buckets get their totals refreshed but keep
    their status

USAGE:
  scheduler := NewSettlementScheduler(handler.Aggregator, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RecomputeSettlements endpoint (manual recompute)
  - settlement/aggregator.go: the recompute itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tourvia/booking-core/settlement"
)

// SettlementScheduler refreshes settlement summaries on an interval.
type SettlementScheduler struct {
	Aggregator *settlement.Aggregator
	Interval   time.Duration
	Log        *logrus.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSettlementScheduler creates a scheduler with a 15 minute interval.
func NewSettlementScheduler(agg *settlement.Aggregator, log *logrus.Logger) *SettlementScheduler {
	if log == nil {
		log = logrus.New()
	}
	return &SettlementScheduler{
		Aggregator: agg,
		Interval:   15 * time.Minute,
		Log:        log,
		stop:       make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (ss *SettlementScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		return
	}
	ss.ticker = time.NewTicker(ss.Interval)
	ss.wg.Add(1)
	go ss.run()

	ss.Log.WithField("interval", ss.Interval.String()).Info("settlement scheduler started")
}

// Stop halts the loop and waits for an in-flight run to finish.
func (ss *SettlementScheduler) Stop() {
	ss.mu.Lock()
	if ss.ticker == nil {
		ss.mu.Unlock()
		return
	}
	ss.ticker.Stop()
	ss.mu.Unlock()

	close(ss.stop)
	ss.wg.Wait()
	ss.Log.Info("settlement scheduler stopped")
}

func (ss *SettlementScheduler) run() {
	defer ss.wg.Done()
	for {
		select {
		case <-ss.ticker.C:
			ss.runOnce()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SettlementScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := ss.Aggregator.RecomputeAll(ctx); err != nil {
		ss.Log.WithError(err).Warn("scheduled settlement refresh failed")
	}
}
