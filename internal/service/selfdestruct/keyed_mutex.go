package selfdestruct

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes read-modify-write cycles per message id so view
// increments and destruction are linearizable without a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the mutex for the key and returns its unlock function.
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with the number of messages ever seen.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
