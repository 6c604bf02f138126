package counter

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one counter with its deadline.
type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter is a process-local AttemptCounter. Suitable for a single
// instance; multi-instance deployments need the Redis implementation.
type MemoryCounter struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryCounter creates an in-memory counter store.
func NewMemoryCounter(ttl time.Duration) *MemoryCounter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCounter{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// Increment atomically adds one to the key's counter.
func (c *MemoryCounter) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(c.ttl)}
		c.entries[key] = entry
	}
	entry.count++

	// Opportunistically drop a few stale entries to bound growth.
	c.evictLocked(now, 8)

	return entry.count, nil
}

// Reset clears the key's counter.
func (c *MemoryCounter) Reset(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// evictLocked removes up to limit expired entries.
func (c *MemoryCounter) evictLocked(now time.Time, limit int) {
	for key, entry := range c.entries {
		if limit == 0 {
			return
		}
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			limit--
		}
	}
}
