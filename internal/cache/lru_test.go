package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	if c.Size() != 3 {
		t.Fatalf("expected size 3, got %d", c.Size())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("expected oldest entry k0 to be evicted")
	}
	if v, ok := c.Get("k3"); !ok || v != 3 {
		t.Errorf("expected k3=3, got %d (found=%v)", v, ok)
	}
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // a becomes most recent
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted after a was refreshed")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
}

func TestLRUCacheExpiredEntryIsMiss(t *testing.T) {
	// Negative TTL makes every entry expired on insert.
	c := NewLRUCache[int](10, -time.Nanosecond)

	c.Set("k", 42)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry to be removed on read, size=%d", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, -time.Nanosecond)

	c.Set("a", 1)
	c.Set("b", 2)

	if cleaned := c.CleanExpired(); cleaned != 2 {
		t.Errorf("expected 2 cleaned entries, got %d", cleaned)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache, size=%d", c.Size())
	}
}

func TestLRUCacheSetUpdatesExisting(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("k", 1)
	c.Set("k", 2)

	if c.Size() != 1 {
		t.Fatalf("expected size 1 after update, got %d", c.Size())
	}
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("expected updated value 2, got %d", v)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Minute))
	m.StartCleanup(time.Millisecond)

	m.Stop()
	m.Stop() // must not panic or block
}
