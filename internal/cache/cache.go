// Package cache provides the resolution cache: memoized request-path
// lookups with LRU eviction, TTL expiry, and filesystem-snapshot
// invalidation.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// ResolutionCache memoizes resolution results keyed by logical request
// path. An entry is served only while its TTL has not expired and every
// filesystem path its computation consulted still matches the recorded
// state. Values are immutable after construction, so readers need no
// further synchronization once an entry is returned.
type ResolutionCache struct {
	entries    map[string]*entry
	mutex      sync.Mutex
	maxEntries int
	ttl        time.Duration

	// LRU doubly-linked list with dummy head and tail.
	head *entry
	tail *entry

	hits     int64
	misses   int64
	computes int64
}

type entry struct {
	key       string
	value     any
	snapshot  *Snapshot
	createdAt time.Time

	prev *entry
	next *entry
}

// New creates a ResolutionCache bounded to maxEntries with the given
// TTL. A non-positive maxEntries falls back to 1024.
func New(maxEntries int, ttl time.Duration) *ResolutionCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}

	c := &ResolutionCache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
	c.head = &entry{}
	c.tail = &entry{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// ComputeFunc builds a cache value, tracking every filesystem path it
// consults in the supplied snapshot.
type ComputeFunc func(snap *Snapshot) (any, error)

// GetOrCompute returns the live cached value for key, or runs compute
// and stores its result. Failed computations are never stored: every
// subsequent request retries until the underlying condition is fixed.
// Two concurrent misses for the same key may both compute;
// last-write-wins on store, which is safe because computation is
// idempotent and side-effect-free.
func (c *ResolutionCache) GetOrCompute(key string, compute ComputeFunc) (any, error) {
	if value, ok := c.get(key); ok {
		return value, nil
	}

	atomic.AddInt64(&c.computes, 1)
	snap := NewSnapshot()
	value, err := compute(snap)
	if err != nil {
		return nil, err
	}

	c.set(key, value, snap)
	return value, nil
}

func (c *ResolutionCache) get(key string) (any, bool) {
	c.mutex.Lock()
	e, exists := c.entries[key]
	if !exists {
		c.mutex.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Since(e.createdAt) > c.ttl {
		c.removeFromList(e)
		delete(c.entries, key)
		c.mutex.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	value, snap := e.value, e.snapshot
	c.mutex.Unlock()

	// Snapshot validation stats every tracked path. It runs off the
	// lock so concurrent readers do not serialize behind filesystem IO.
	if !snap.Valid() {
		c.mutex.Lock()
		// Only evict if the entry was not replaced in the meantime.
		if current, ok := c.entries[key]; ok && current == e && current.snapshot == snap {
			c.removeFromList(current)
			delete(c.entries, key)
		}
		c.mutex.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	c.mutex.Lock()
	if current, ok := c.entries[key]; ok && current == e {
		c.moveToFront(current)
	}
	c.mutex.Unlock()
	atomic.AddInt64(&c.hits, 1)
	return value, true
}

func (c *ResolutionCache) set(key string, value any, snap *Snapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.entries[key]; exists {
		existing.value = value
		existing.snapshot = snap
		existing.createdAt = time.Now()
		c.moveToFront(existing)
		return
	}

	for len(c.entries) >= c.maxEntries && c.tail.prev != c.head {
		lru := c.tail.prev
		c.removeFromList(lru)
		delete(c.entries, lru.key)
	}

	e := &entry{
		key:       key,
		value:     value,
		snapshot:  snap,
		createdAt: time.Now(),
	}
	c.entries[key] = e
	c.addToFront(e)
}

// Invalidate drops every entry. Conservative whole-cache invalidation
// on any watched filesystem change is a correct implementation of the
// ancestry-intersection contract.
func (c *ResolutionCache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*entry)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of entries currently stored.
func (c *ResolutionCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Hits returns the number of cache hits.
func (c *ResolutionCache) Hits() int64 {
	return atomic.LoadInt64(&c.hits)
}

// Misses returns the number of cache misses.
func (c *ResolutionCache) Misses() int64 {
	return atomic.LoadInt64(&c.misses)
}

// Computes returns the number of compute invocations.
func (c *ResolutionCache) Computes() int64 {
	return atomic.LoadInt64(&c.computes)
}

func (c *ResolutionCache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *ResolutionCache) removeFromList(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *ResolutionCache) moveToFront(e *entry) {
	c.removeFromList(e)
	c.addToFront(e)
}
