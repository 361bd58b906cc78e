package snapshot

import (
	"sync"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

// Cache holds the most recently published snapshot.  Publish computes the
// new snapshot outside the lock and only swaps the pointer under it, so
// readers never wait on snapshot construction and never observe a
// partially built value.
type Cache struct {
	mu      sync.RWMutex
	current *model.Snapshot
	version uint64
	now     func() time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{current: Empty(), now: time.Now}
}

// Publish builds a snapshot from seats and makes it visible to readers.
// Publish is meant to be called from a single writer; concurrent calls
// are serialised by version assignment but may interleave construction.
func (c *Cache) Publish(seats []model.Seat) *model.Snapshot {
	c.mu.RLock()
	next := c.version + 1
	c.mu.RUnlock()

	snap := Build(seats, next, c.now())

	c.mu.Lock()
	if snap.Version > c.version {
		c.current = snap
		c.version = snap.Version
	} else {
		snap = c.current
	}
	c.mu.Unlock()
	return snap
}

// Get returns the current snapshot.  The returned value is shared and
// must be treated as read-only.  Before the first Publish it is a
// well-formed empty snapshot, never nil.
func (c *Cache) Get() *model.Snapshot {
	c.mu.RLock()
	snap := c.current
	c.mu.RUnlock()
	return snap
}

// Ready reports whether at least one snapshot has been published.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version > 0
}
