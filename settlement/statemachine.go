/*
statemachine.go - Two-party confirmation lifecycle

STATES:
  open -> confirmed_by_agency -> closed
  open -> confirmed_by_hotel  -> closed
  disputed reachable from any non-closed state; terminal until a manual
  resolution reopens it.

There is deliberately no open -> closed shortcut: both parties must
confirm before money is considered settled. All guard violations are
local validation errors (HTTP 4xx territory), never transient failures.
Transitions on the same key are serialized by a per-key mutex plus the
store's version check.
*/
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tourvia/booking-core/ledger"
)

// StateMachine applies lifecycle transitions to settlement summaries.
type StateMachine struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[ledger.Key]*sync.Mutex
}

func NewStateMachine(store Store) *StateMachine {
	return &StateMachine{
		store: store,
		now:   time.Now,
		locks: make(map[ledger.Key]*sync.Mutex),
	}
}

func (sm *StateMachine) keyLock(key ledger.Key) *sync.Mutex {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	m, ok := sm.locks[key]
	if !ok {
		m = &sync.Mutex{}
		sm.locks[key] = m
	}
	return m
}

// Confirm records one party's acknowledgment of the summary.
//
// From open it moves to confirmed_by_<role>; when the other party's
// confirmation is already recorded it moves to closed. Confirming a
// closed or disputed summary, or confirming twice for the same role, is
// rejected with a *LockedError.
func (sm *StateMachine) Confirm(ctx context.Context, key ledger.Key, role Role) (Summary, error) {
	if !ValidRole(role) {
		return Summary{}, ErrInvalidRole
	}

	mu := sm.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	summary, err := sm.load(ctx, key)
	if err != nil {
		return Summary{}, err
	}

	next, ok := nextOnConfirm(summary.Status, role)
	if !ok {
		return Summary{}, &LockedError{Status: summary.Status}
	}

	summary.Status = next
	summary.UpdatedAt = sm.now().UTC()
	if err := sm.write(ctx, &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Dispute moves the summary to disputed with the given reason. Allowed
// from any state except closed and disputed itself.
func (sm *StateMachine) Dispute(ctx context.Context, key ledger.Key, reason string) (Summary, error) {
	if strings.TrimSpace(reason) == "" {
		return Summary{}, ErrEmptyDisputeReason
	}

	mu := sm.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	summary, err := sm.load(ctx, key)
	if err != nil {
		return Summary{}, err
	}
	if summary.Locked() {
		return Summary{}, &LockedError{Status: summary.Status}
	}

	summary.Status = StatusDisputed
	summary.DisputeReason = reason
	summary.UpdatedAt = sm.now().UTC()
	if err := sm.write(ctx, &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Reopen returns a disputed summary to open after manual resolution,
// clearing the dispute reason.
func (sm *StateMachine) Reopen(ctx context.Context, key ledger.Key) (Summary, error) {
	mu := sm.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	summary, err := sm.load(ctx, key)
	if err != nil {
		return Summary{}, err
	}
	if summary.Status != StatusDisputed {
		return Summary{}, &LockedError{Status: summary.Status}
	}

	summary.Status = StatusOpen
	summary.DisputeReason = ""
	summary.UpdatedAt = sm.now().UTC()
	if err := sm.write(ctx, &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func nextOnConfirm(current Status, role Role) (Status, bool) {
	switch current {
	case StatusOpen:
		if role == RoleAgency {
			return StatusConfirmedByAgency, true
		}
		return StatusConfirmedByHotel, true
	case StatusConfirmedByAgency:
		if role == RoleHotel {
			return StatusClosed, true
		}
	case StatusConfirmedByHotel:
		if role == RoleAgency {
			return StatusClosed, true
		}
	}
	return current, false
}

func (sm *StateMachine) load(ctx context.Context, key ledger.Key) (Summary, error) {
	summary, err := sm.store.GetSummary(ctx, key)
	if err != nil {
		return Summary{}, fmt.Errorf("load summary: %w", err)
	}
	if summary == nil {
		return Summary{}, ErrSummaryNotFound
	}
	return *summary, nil
}

// write persists the transition, absorbing version conflicts from a
// concurrent recompute. The recompute only moves totals, never status,
// so the transition is re-applied onto the fresh totals and retried.
func (sm *StateMachine) write(ctx context.Context, summary *Summary) error {
	for attempt := 0; ; attempt++ {
		err := sm.store.PutSummary(ctx, *summary)
		if err == nil {
			summary.Version++
			return nil
		}
		if !errors.Is(err, ErrConcurrentModification) || attempt >= 2 {
			return fmt.Errorf("write summary: %w", err)
		}

		fresh, loadErr := sm.load(ctx, summary.Key)
		if loadErr != nil {
			return loadErr
		}
		summary.Gross = fresh.Gross
		summary.Commission = fresh.Commission
		summary.Net = fresh.Net
		summary.EntryCount = fresh.EntryCount
		summary.Version = fresh.Version
	}
}
