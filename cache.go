package posteditor

import (
	"sync"
	"time"

	"github.com/eringen/posteditor/images"
)

// ManagerCache holds one in-memory image manager per editing session. A
// manager that has not been used for ttl is cleared and dropped.
type ManagerCache struct {
	mu       sync.RWMutex
	entries  map[string]*managerEntry
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type managerEntry struct {
	mem  *images.Memory
	used time.Time
}

// NewManagerCache creates a ManagerCache and starts sweeping idle managers.
func NewManagerCache(ttl time.Duration) *ManagerCache {
	c := newManagerCache(ttl, time.Now)
	go c.sweepEvery(ttl / 4)
	return c
}

func newManagerCache(ttl time.Duration, now func() time.Time) *ManagerCache {
	return &ManagerCache{
		entries: make(map[string]*managerEntry),
		ttl:     ttl,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Get returns the manager for session id, creating it on first use.
func (c *ManagerCache) Get(id string) *images.Memory {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		e.used = now
		c.mu.Unlock()
		return e.mem
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.used = now
		return e.mem
	}
	e = &managerEntry{mem: images.NewMemory(), used: now}
	c.entries[id] = e
	return e.mem
}

// Lookup returns the manager for session id without creating one.
func (c *ManagerCache) Lookup(id string) (*images.Memory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.mem, true
}

// Len returns the number of live managers.
func (c *ManagerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep clears and drops managers idle for longer than the ttl. It returns
// how many were dropped.
func (c *ManagerCache) Sweep() int {
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for id, e := range c.entries {
		if e.used.Before(cutoff) {
			e.mem.Clear()
			delete(c.entries, id)
			dropped++
		}
	}
	return dropped
}

func (c *ManagerCache) sweepEvery(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Stop ends the background sweep.
func (c *ManagerCache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
