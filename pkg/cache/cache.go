// Package cache provides a thread-safe LRU cache for compiled artifacts.
//
// Keys are xxhash digests of everything that determines an artifact: the
// source text, the target, the context hint, the optimization level and the
// parser mode. The pipeline runner consults the cache before parsing, so
// repeated compilations of an unchanged document skip every stage.
//
// # Example
//
//	c := cache.New(1024)
//	key := cache.Key(source, "prompt", hint, "basic", "false")
//	out, err := c.GetOrCompile(key, func() (string, error) { ... })
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DefaultCapacity is used when New is given a capacity below 1.
const DefaultCapacity = 256

// artifact is a list element. It is never modified once pushed; Set
// replaces the element instead.
type artifact struct {
	key    uint64
	output string
}

// Cache is an LRU cache of compiled output. Once the capacity is reached,
// the least recently used artifact is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byKey    map[uint64]*list.Element

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Key hashes the parts that identify an artifact. Parts are separated by a
// zero byte so that ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// New creates a cache holding at most capacity artifacts.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		byKey:    make(map[uint64]*list.Element, capacity),
	}
}

// Get returns the artifact for key and marks it most recently used.
func (c *Cache) Get(key uint64) (string, bool) {
	c.mu.Lock()
	el, ok := c.byKey[key]
	var out string
	if ok {
		c.order.MoveToFront(el)
		out = el.Value.(artifact).output
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return out, true
}

// Set stores output under key, evicting the least recently used artifact
// when the cache is full.
func (c *Cache) Set(key uint64, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		c.order.Remove(el)
	} else if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(artifact).key)
	}
	c.byKey[key] = c.order.PushFront(artifact{key: key, output: output})
}

// GetOrCompile returns the cached artifact for key, or calls compile and
// caches its output. Errors are not cached. Concurrent misses on the same
// key may each call compile; the last Set wins.
func (c *Cache) GetOrCompile(key uint64, compile func() (string, error)) (string, error) {
	if out, ok := c.Get(key); ok {
		return out, nil
	}
	out, err := compile()
	if err != nil {
		return "", err
	}
	c.Set(key, out)
	return out, nil
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of cached artifacts.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
