package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(8, time.Minute)

	if _, ok, err := c.Get(ctx, BuildingKey(1)); ok || err != nil {
		t.Fatalf("Expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	value := []byte(`{"id":1}`)
	if err := c.Set(ctx, BuildingKey(1), value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'x'

	got, ok, err := c.Get(ctx, BuildingKey(1))
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"id":1}` {
		t.Errorf("Expected stored copy, got %s", got)
	}

	if err := c.Delete(ctx, BuildingKey(1), BuildingKey(2)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after delete, got %d entries", c.Len())
	}
}

func TestMemoryCacheEntryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(8, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("Expected hit before expiry")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Expected miss at expiry")
	}

	// A fresh Set after the miss is served
	if err := c.Set(ctx, "k", []byte("w"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok, _ := c.Get(ctx, "k"); !ok || string(got) != "w" {
		t.Errorf("Expected the new value, got %q ok=%v", got, ok)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(8, 20*time.Millisecond)

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("Expected hit before the cache TTL")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Expected miss after the cache TTL")
	}
}

func TestMemoryCacheIsBounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	for id := uint64(1); id <= 3; id++ {
		if err := c.Set(ctx, BuildingKey(id), []byte("tree"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, BuildingKey(1)); ok {
		t.Error("Expected the least recently used entry to be evicted")
	}
	if _, ok, _ := c.Get(ctx, BuildingKey(3)); !ok {
		t.Error("Expected the newest entry to stay")
	}

	if got := NewMemoryCache(0, time.Minute); got.lru == nil {
		t.Fatal("Expected a default size for a zero size")
	}
}

func TestOpenWithoutRedis(t *testing.T) {
	c, err := Open("", 4, time.Minute)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if c.Name() != "MEMORY" {
		t.Errorf("Expected MEMORY cache, got %s", c.Name())
	}
}

func TestBuildingKey(t *testing.T) {
	if got := BuildingKey(42); got != "building:42" {
		t.Errorf("Expected building:42, got %s", got)
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Noop cache should never hit")
	}
}
