// Package cache holds the bounded, recency-ordered store shared by every lookup
// widget on a page.
package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is used by callers that do not size their cache.
const DefaultCapacity = 50

// LRU is a fixed-capacity key/value store with least-recently-used eviction.
// Get and Set both promote the touched entry. There is no time based expiry.
type LRU[K comparable, V any] struct {
	capacity int

	mu    sync.Mutex
	items map[K]*list.Element
	order *list.List // front is most recent
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU builds an empty cache. Non-positive capacities are raised to 1.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Capacity reports the maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// Set stores value under key. Existing keys are replaced and promoted; a new
// key inserted past capacity evicts the single oldest entry.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

// Len reports the number of stored entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*entry[K, V]).key)
	}
	return out
}

// Clear empties the cache.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

func (c *LRU[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.items, oldest.Value.(*entry[K, V]).key)
}
