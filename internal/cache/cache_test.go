package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	if _, ok := c.Get("day:2024-03-14"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("day:2024-03-14", 42)
	v, ok := c.Get("day:2024-03-14")
	if !ok || v.(int) != 42 {
		t.Errorf("expected 42, got %v (%v)", v, ok)
	}

	stats := c.Stats()
	if stats.HitCount != 1 || stats.MissCount != 1 || stats.ItemCount != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCacheExpiredEntryIsStale(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.SetWithTTL("day:2024-03-14", "old", -time.Second)
	if _, ok := c.Get("day:2024-03-14"); ok {
		t.Error("expired entry should not be returned by Get")
	}
	v, storedAt, ok := c.GetStale("day:2024-03-14")
	if !ok || v.(string) != "old" {
		t.Errorf("expired entry should be returned by GetStale, got %v (%v)", v, ok)
	}
	if storedAt.IsZero() {
		t.Error("stored time should be recorded")
	}
}

func TestCacheRemoveExpiredHonoursGrace(t *testing.T) {
	c := NewCacheWithGrace(time.Minute, time.Hour)
	defer c.Stop()

	c.Set("a", 1)
	c.removeExpired(time.Now().Add(30 * time.Minute))
	if _, _, ok := c.GetStale("a"); !ok {
		t.Error("entry within grace should survive cleanup")
	}
	c.removeExpired(time.Now().Add(2 * time.Hour))
	if _, _, ok := c.GetStale("a"); ok {
		t.Error("entry past grace should be removed")
	}
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.Set("day:2024-03-14", 1)
	c.Set("day:2024-03-15", 2)
	c.Set("grid:40", 3)
	c.InvalidatePrefix("day:")
	if c.Size() != 1 {
		t.Errorf("expected only grid entry to remain, got %d", c.Size())
	}
}

func TestCacheStopIsIdempotent(t *testing.T) {
	c := NewCache(time.Minute)
	c.Stop()
	c.Stop()
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(5 * time.Minute)
	defer c.Stop()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key_%d_%d", id, i%10)
				c.Set(key, i)
				c.Get(key)
				c.GetStale(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Size() != 100 {
		t.Errorf("expected 100 keys, got %d", c.Size())
	}
}
