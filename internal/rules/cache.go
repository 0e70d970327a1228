// Package rules implements the on-demand rule resource loader.
//
// Guidance texts for workflow modes are loaded lazily: a producer is
// registered per key without being invoked, and the first Get for a key
// resolves it exactly once and memoizes the result for the life of the
// process. The resource set is small and fixed (one text per mode/kind),
// so there is no eviction, TTL, or size bound.
package rules

import (
	"fmt"
	"sync"
)

// Producer supplies the content of one lazy resource.
type Producer interface {
	Produce() (string, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func() (string, error)

func (f ProducerFunc) Produce() (string, error) { return f() }

// UnregisteredResourceError is returned by Get for a key with no
// registered producer. This indicates a setup bug, not a runtime
// condition — a correctly wired server registers every key at startup.
type UnregisteredResourceError struct {
	Key string
}

func (e *UnregisteredResourceError) Error() string {
	return fmt.Sprintf("no producer registered for resource %q", e.Key)
}

// entry holds one resource. Its mutex serializes the first resolution so
// a racing first access still invokes the producer exactly once, and all
// callers observe the same cached value.
type entry struct {
	mu       sync.Mutex
	producer Producer
	done     bool
	value    string
}

// Cache is the compute-once, memoize-forever resource cache. It may be
// shared across concurrent workflow runs; entries are immutable once
// resolved.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache creates an empty rule cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// RegisterLazy records a producer for key without invoking it.
// Re-registering before the first Get replaces the producer (last
// registration wins); re-registering after the key has been resolved is
// a no-op — the cached value is the source of truth once populated.
func (c *Cache) RegisterLazy(key string, p Producer) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.entries[key] = &entry{producer: p}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.done {
		e.producer = p
	}
}

// Get returns the cached value for key, resolving it via the registered
// producer on first access. A producer failure is not cached — a later
// Get retries, so transient resource errors don't poison the session.
func (c *Cache) Get(key string) (string, error) {
	c.mu.Lock()
	e := c.entries[key]
	c.mu.Unlock()
	if e == nil {
		return "", &UnregisteredResourceError{Key: key}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return e.value, nil
	}

	value, err := e.producer.Produce()
	if err != nil {
		return "", fmt.Errorf("producing resource %q: %w", key, err)
	}
	e.value = value
	e.done = true
	return value, nil
}

// Resolved reports whether the key has been loaded already. Used by
// status rendering; never triggers a load.
func (c *Cache) Resolved(key string) bool {
	c.mu.Lock()
	e := c.entries[key]
	c.mu.Unlock()
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}
