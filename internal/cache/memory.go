// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type entry struct {
	value      []byte
	expiration time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// Memory is an in-process cache. An optional janitor sweeps expired entries;
// Get never returns an expired entry either way.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int

	hits, misses, sets, evictions atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a memory cache. cleanupInterval <= 0 disables the
// janitor. maxEntries <= 0 means unbounded; when full, Set evicts expired
// entries first and then an arbitrary one.
func NewMemory(cleanupInterval time.Duration, maxEntries int) *Memory {
	c := &Memory{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
	}
	if cleanupInterval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.janitor(cleanupInterval)
	}
	return c
}

func (c *Memory) Name() string { return "memory" }

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.expired(time.Now()) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiration = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
	c.sets.Add(1)
}

// Caller must hold c.mu.
func (c *Memory) evictLocked() {
	if n := c.deleteExpiredLocked(time.Now()); n > 0 {
		return
	}
	for k := range c.entries {
		delete(c.entries, k)
		c.evictions.Add(1)
		return
	}
}

func (c *Memory) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Memory) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// deleteExpired removes expired entries and returns how many were removed.
func (c *Memory) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteExpiredLocked(time.Now())
}

func (c *Memory) deleteExpiredLocked(now time.Time) int {
	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.evictions.Add(int64(count))
	return count
}

func (c *Memory) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (c *Memory) Close() error {
	if c.stop == nil {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

type noop struct{}

// NewNoop returns a cache that stores nothing.
func NewNoop() Cache { return noop{} }

func (noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (noop) Set(context.Context, string, []byte, time.Duration) {}
func (noop) Delete(context.Context, string)                     {}
func (noop) Stats() Stats                                       { return Stats{} }
func (noop) Name() string                                       { return "none" }
func (noop) Close() error                                       { return nil }
