package pack

import "sync"

// Guard is an advisory per-chapter lock shared by the download manager and
// the storage accountant. A download holds its chapter for the whole
// operation; eviction skips held chapters instead of waiting, so a pack
// being written can never be evicted mid-flight.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire takes the lock for chapterID if it is free.
func (g *Guard) TryAcquire(chapterID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[chapterID]; ok {
		return false
	}
	g.held[chapterID] = struct{}{}
	return true
}

// Release frees the lock for chapterID.
func (g *Guard) Release(chapterID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, chapterID)
}

// Held reports whether chapterID is currently locked.
func (g *Guard) Held(chapterID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[chapterID]
	return ok
}
