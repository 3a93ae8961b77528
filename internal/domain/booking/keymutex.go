package booking

import (
	"sync"

	"github.com/google/uuid"
)

// slotKey scopes the exclusive section for booking commits. Overlap is only
// possible within one amenity on one day, so unrelated keys proceed in
// parallel.
type slotKey struct {
	amenityID  uuid.UUID
	buildingID string
	day        string
}

type mutexEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex is an arena of per-key mutexes. Entries are reference counted
// and reclaimed once the last holder releases, so the arena does not grow
// with the booking history.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[slotKey]*mutexEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[slotKey]*mutexEntry)}
}

// Lock acquires the exclusive section for key, blocking until available
func (k *keyedMutex) Lock(key slotKey) {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &mutexEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the exclusive section for key
func (k *keyedMutex) Unlock(key slotKey) {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("booking: unlock of unheld key")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
