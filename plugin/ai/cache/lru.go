// Package cache provides a bounded in-memory LRU with per-entry expiry.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCapacity = 256
	DefaultTTL      = 10 * time.Minute
)

// LRU is a fixed-capacity cache. Expired entries are dropped lazily on
// access and first in line for eviction.
type LRU[V any] struct {
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front is most recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// New creates an LRU. Non-positive arguments select the defaults.
func New[V any](capacity int, defaultTTL time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &LRU[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the live value for key.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the default.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		c.evict()
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
}

// Invalidate removes key, or every key with the given prefix when pattern
// ends in "*". It returns the number of entries removed.
func (c *LRU[V]) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if !wildcard {
		if el, ok := c.items[pattern]; ok {
			c.remove(el)
			return 1
		}
		return 0
	}

	count := 0
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
			count++
		}
	}
	return count
}

// Len counts stored entries, expired ones included.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evict drops one expired entry if any, else the least recently used one.
// Must be called with lock held.
func (c *LRU[V]) evict() {
	now := c.now()
	for el := c.order.Back(); el != nil; el = el.Prev() {
		if !now.Before(el.Value.(*entry[V]).expiresAt) {
			c.remove(el)
			return
		}
	}
	if oldest := c.order.Back(); oldest != nil {
		c.remove(oldest)
	}
}

// Must be called with lock held.
func (c *LRU[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
