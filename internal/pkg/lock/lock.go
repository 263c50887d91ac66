// Package lock provides per-user locking for the sync engine.
// Only one sync may run for a given archive owner at a time; a second
// attempt while one is in flight is rejected, not queued.
package lock

import "sync"

// userMutex wraps a mutex stored in the registry.
type userMutex struct {
	mu sync.Mutex
}

// UserLock provides per-user locking keyed by the opaque user ID.
type UserLock struct {
	locks sync.Map // map[string]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given user ID.
func (ul *UserLock) getLock(userID string) *userMutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	newLock := ul.pool.Get().(*userMutex)

	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if a sync is already running.
func (ul *UserLock) TryLock(userID string) bool {
	return ul.getLock(userID).mu.TryLock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID string) {
	if v, ok := ul.locks.Load(userID); ok {
		v.(*userMutex).mu.Unlock()
	}
}

// WithLock runs fn while holding the user's lock, blocking until acquired.
func (ul *UserLock) WithLock(userID string, fn func() error) error {
	lock := ul.getLock(userID)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return fn()
}

// IsLocked checks if a user currently has an active lock.
// Note: This is a point-in-time check and may change immediately after.
func (ul *UserLock) IsLocked(userID string) bool {
	if v, ok := ul.locks.Load(userID); ok {
		lock := v.(*userMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
