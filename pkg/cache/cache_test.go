package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/callosum-dsl/callosum/pkg/cache"
)

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New(0)
	if got := c.Capacity(); got != cache.DefaultCapacity {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheKey(t *testing.T) {
	if cache.Key("ab", "c") == cache.Key("a", "bc") {
		t.Fatal("expected part boundaries to change the key")
	}
	if cache.Key("src", "json", "", "none") != cache.Key("src", "json", "", "none") {
		t.Fatal("expected identical parts to hash identically")
	}
	if cache.Key("src", "json") == cache.Key("src", "lua") {
		t.Fatal("expected target to change the key")
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	key := cache.Key("doc", "json")
	c.Set(key, `{"name":"X"}`)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != `{"name":"X"}` {
		t.Fatalf("unexpected artifact %q", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New(4)
	if _, ok := c.Get(cache.Key("missing")); ok {
		t.Fatal("expected cache miss")
	}
	hits, misses := c.Stats()
	if hits != 0 || misses != 1 {
		t.Fatalf("expected 0 hits and 1 miss, got %d/%d", hits, misses)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(cache.Key(k), k)
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get(cache.Key("a")); ok {
		t.Fatal(`expected "a" to be evicted (LRU)`)
	}
	if _, ok := c.Get(cache.Key("d")); !ok {
		t.Fatal(`expected most-recently-inserted "d" to survive`)
	}
}

func TestCacheGetPromotes(t *testing.T) {
	c := cache.New(2)
	c.Set(cache.Key("a"), "a")
	c.Set(cache.Key("b"), "b")
	c.Get(cache.Key("a"))
	c.Set(cache.Key("c"), "c")
	if _, ok := c.Get(cache.Key("a")); !ok {
		t.Fatal(`expected recently read "a" to survive`)
	}
	if _, ok := c.Get(cache.Key("b")); ok {
		t.Fatal(`expected "b" to be evicted`)
	}
}

func TestCacheSetReplaces(t *testing.T) {
	c := cache.New(2)
	c.Set(cache.Key("a"), "old")
	c.Set(cache.Key("b"), "b")
	c.Set(cache.Key("a"), "new")
	if got := c.Len(); got != 2 {
		t.Fatalf("expected 2 entries after replace, got %d", got)
	}
	if got, _ := c.Get(cache.Key("a")); got != "new" {
		t.Fatalf("expected replaced artifact, got %q", got)
	}
	// "a" was refreshed by Set, so "b" is the oldest.
	c.Set(cache.Key("c"), "c")
	if _, ok := c.Get(cache.Key("b")); ok {
		t.Fatal(`expected "b" to be evicted`)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	callCount := 0
	compileFn := func() (string, error) {
		callCount++
		return "compiled", nil
	}

	key := cache.Key("doc", "prompt")
	out1, err := c.GetOrCompile(key, compileFn)
	if err != nil || out1 != "compiled" {
		t.Fatalf("first GetOrCompile: %q, %v", out1, err)
	}
	out2, err := c.GetOrCompile(key, compileFn)
	if err != nil || out2 != "compiled" {
		t.Fatalf("second GetOrCompile: %q, %v", out2, err)
	}
	if callCount != 1 {
		t.Fatalf("expected 1 compile call, got %d", callCount)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestCacheGetOrCompileError(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")
	key := cache.Key("bad")
	if _, err := c.GetOrCompile(key, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := cache.New(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := cache.Key(fmt.Sprint(j % 32))
				if _, ok := c.Get(key); !ok {
					c.Set(key, fmt.Sprint(i))
				}
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Fatalf("cache grew past capacity: %d", c.Len())
	}
}

// Readers of a key must not observe a writer replacing the same key.
// Run with -race.
func TestCacheConcurrentSetGetSameKey(t *testing.T) {
	c := cache.New(4)
	key := cache.Key("doc", "json")
	c.Set(key, "a")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Set(key, fmt.Sprint(i%2))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			out, ok := c.Get(key)
			if !ok {
				t.Error("expected key to stay cached")
				return
			}
			if out != "a" && out != "0" && out != "1" {
				t.Errorf("unexpected artifact %q", out)
				return
			}
		}
	}()
	wg.Wait()
}
