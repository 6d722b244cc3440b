package einvoice

import "sync"

// recordLocks serializes pipeline advancement per host invoice. No two
// workers may advance the same record concurrently; cancellation and status
// polling take the same lock, so a cancel arriving while a remote call is in
// flight simply waits until that call resolves.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*recordLock)}
}

// Lock acquires the lock for key and returns its unlock function. Lock
// entries are reference counted and removed when the last holder releases,
// so the map does not grow with the total number of invoices ever seen.
func (r *recordLocks) Lock(key string) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &recordLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
