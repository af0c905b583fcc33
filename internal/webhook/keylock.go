package webhook

import "sync"

// keyedMutex serializes event processing per dedup key (comment id or PSID)
// so two deliveries touching the same record never interleave their store
// mutations. Entries are reference-counted and dropped when idle.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key is exclusively held and returns the unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()

	entry, ok := k.locks[key]
	if !ok {
		entry = &keyLock{}
		k.locks[key] = entry
	}

	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()

		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}

		k.mu.Unlock()
	}
}
