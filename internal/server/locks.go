package server

import "sync"

// userLocks serializes turns per user. A turn loads state, mutates it, and
// writes it back; two turns for the same user interleaving on that sequence
// would lose collected answers. Turns for different users never contend.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the per-user mutex, creating it on first use, and returns
// the release function.
func (u *userLocks) acquire(userID string) func() {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		u.locks[userID] = l
	}
	u.mu.Unlock()

	l.Lock()
	return l.Unlock
}
