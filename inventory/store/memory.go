// Package store provides an in-memory inventory.Store for tests and
// development. It also implements the Catalog and StopSellChecker
// collaborators so the allocator can run self-contained.
package store

import (
	"context"
	"sync"

	"github.com/tourvia/booking-core/inventory"
)

type counterKey struct {
	UnitID inventory.UnitID
	Date   inventory.Date
}

// Memory holds everything in maps guarded by a single RWMutex. The
// optimistic version check on counters is still enforced so the
// allocator's retry path is exercised the same way as against SQLite.
type Memory struct {
	mu          sync.RWMutex
	units       map[inventory.UnitID]inventory.SellableUnit
	counters    map[counterKey]inventory.DailyCapacityCounter
	allocations map[inventory.AllocationID]inventory.Allocation
	stopSells   []inventory.StopSellRule
}

func NewMemory() *Memory {
	return &Memory{
		units:       make(map[inventory.UnitID]inventory.SellableUnit),
		counters:    make(map[counterKey]inventory.DailyCapacityCounter),
		allocations: make(map[inventory.AllocationID]inventory.Allocation),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

// PutUnit registers or replaces a sellable unit.
func (m *Memory) PutUnit(_ context.Context, unit inventory.SellableUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[unit.ID] = unit
	return nil
}

func (m *Memory) GetUnit(_ context.Context, id inventory.UnitID) (*inventory.SellableUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// =============================================================================
// CAPACITY COUNTERS
// =============================================================================

func (m *Memory) GetCounter(_ context.Context, unitID inventory.UnitID, date inventory.Date) (*inventory.DailyCapacityCounter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.counters[counterKey{UnitID: unitID, Date: date}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) PutCounter(_ context.Context, counter inventory.DailyCapacityCounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := counterKey{UnitID: counter.UnitID, Date: counter.Date}
	existing, ok := m.counters[k]
	if ok && existing.Version != counter.Version {
		return inventory.ErrConcurrentModification
	}
	if !ok && counter.Version != 0 {
		return inventory.ErrConcurrentModification
	}

	counter.Version++
	m.counters[k] = counter
	return nil
}

func (m *Memory) CountersInRange(_ context.Context, unitID inventory.UnitID, from, to inventory.Date) ([]inventory.DailyCapacityCounter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []inventory.DailyCapacityCounter
	for d := from; !d.After(to); d = d.Next() {
		if c, ok := m.counters[counterKey{UnitID: unitID, Date: d}]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (m *Memory) SaveAllocation(_ context.Context, alloc inventory.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations[alloc.ID] = alloc
	return nil
}

func (m *Memory) GetAllocation(_ context.Context, id inventory.AllocationID) (*inventory.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.allocations[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) MarkReleased(_ context.Context, id inventory.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.allocations[id]
	if !ok {
		return inventory.ErrAllocationNotFound
	}
	if a.Released {
		return inventory.ErrAlreadyReleased
	}
	a.Released = true
	m.allocations[id] = a
	return nil
}

// =============================================================================
// STOP-SELL
// =============================================================================

// AddStopSell registers a stop-sell rule.
func (m *Memory) AddStopSell(_ context.Context, rule inventory.StopSellRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopSells = append(m.stopSells, rule)
	return nil
}

func (m *Memory) ActiveRule(_ context.Context, unitID inventory.UnitID, date inventory.Date) (*inventory.StopSellRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.stopSells {
		if r.UnitID == unitID && r.Covers(date) {
			rule := r
			return &rule, nil
		}
	}
	return nil, nil
}
