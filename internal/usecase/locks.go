package usecase

import "sync"

type matchLock struct {
	mu sync.Mutex
	// holders and waiters; the entry is dropped when it reaches zero
	refs int
}

// matchLocks hands out one mutex per game id.
type matchLocks struct {
	mu    sync.Mutex
	locks map[string]*matchLock
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[string]*matchLock)}
}

func (that *matchLocks) lock(gameID string) func() {
	that.mu.Lock()
	entry, ok := that.locks[gameID]
	if !ok {
		entry = &matchLock{}
		that.locks[gameID] = entry
	}
	entry.refs++
	that.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		that.mu.Lock()
		defer that.mu.Unlock()

		entry.refs--
		if entry.refs == 0 {
			delete(that.locks, gameID)
		}
	}
}

func (that *matchLocks) size() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.locks)
}
