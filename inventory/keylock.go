package inventory

import "sync"

// keyLock serializes work per (unit, date) key without a global lock.
// Unrelated keys never contend; entries are created on first use and kept
// for the life of the process, matching the never-deleted counter rows.
type keyLock struct {
	mu    sync.Mutex
	locks map[counterKey]*sync.Mutex
}

type counterKey struct {
	UnitID UnitID
	Date   Date
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[counterKey]*sync.Mutex)}
}

func (kl *keyLock) lock(unitID UnitID, date Date) *sync.Mutex {
	k := counterKey{UnitID: unitID, Date: date}

	kl.mu.Lock()
	m, ok := kl.locks[k]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[k] = m
	}
	kl.mu.Unlock()

	m.Lock()
	return m
}
