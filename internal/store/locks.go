package store

import "sync"

// nameLocks hands out one RWMutex per collection name. Writers (replace,
// delete) exclude readers for the whole operation, so a query can never
// observe a half-written collection. Locks are never reclaimed; the
// library bound keeps the map tiny.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*sync.RWMutex)}
}

func (l *nameLocks) get(name string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[name]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[name] = lock
	}
	return lock
}
