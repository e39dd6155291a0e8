package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := cache.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		val, err := cache.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for cache miss, got: %v", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, "key2", []byte("value2"), time.Minute)

		if err := cache.Delete(ctx, "key2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := cache.Get(ctx, "key2")
		if val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		_ = cache.Set(ctx, "expiring", []byte("temp"), 10*time.Millisecond)

		val, _ := cache.Get(ctx, "expiring")
		if val == nil {
			t.Error("expected value before expiration")
		}

		time.Sleep(20 * time.Millisecond)

		val, _ = cache.Get(ctx, "expiring")
		if val != nil {
			t.Error("expected nil after expiration")
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		smallCache := NewLRUCache(3)

		_ = smallCache.Set(ctx, "a", []byte("1"), time.Minute)
		_ = smallCache.Set(ctx, "b", []byte("2"), time.Minute)
		_ = smallCache.Set(ctx, "c", []byte("3"), time.Minute)

		// Touch 'a' so 'b' is the least recently used
		_, _ = smallCache.Get(ctx, "a")
		_ = smallCache.Set(ctx, "d", []byte("4"), time.Minute)

		if val, _ := smallCache.Get(ctx, "b"); val != nil {
			t.Error("expected 'b' to be evicted")
		}
		if val, _ := smallCache.Get(ctx, "a"); val == nil {
			t.Error("expected 'a' to still exist")
		}
	})

	t.Run("Generations", func(t *testing.T) {
		gen, err := cache.Generation(ctx, "corridor-gen:US->IN")
		if err != nil {
			t.Fatalf("Generation failed: %v", err)
		}
		if gen != 0 {
			t.Errorf("expected generation 0, got %d", gen)
		}

		for want := int64(1); want <= 3; want++ {
			got, err := cache.BumpGeneration(ctx, "corridor-gen:US->IN")
			if err != nil {
				t.Fatalf("BumpGeneration failed: %v", err)
			}
			if got != want {
				t.Errorf("expected generation %d, got %d", want, got)
			}
		}

		other, _ := cache.Generation(ctx, "corridor-gen:GB->NG")
		if other != 0 {
			t.Errorf("expected independent counter, got %d", other)
		}
	})

	t.Run("GenerationsSurviveEviction", func(t *testing.T) {
		tiny := NewLRUCache(1)
		_, _ = tiny.BumpGeneration(ctx, "g")
		_ = tiny.Set(ctx, "x", []byte("1"), time.Minute)
		_ = tiny.Set(ctx, "y", []byte("2"), time.Minute)

		if gen, _ := tiny.Generation(ctx, "g"); gen != 1 {
			t.Errorf("expected generation 1, got %d", gen)
		}
	})

	t.Run("JSONHelpers", func(t *testing.T) {
		type row struct {
			Platform string  `json:"platform"`
			Net      float64 `json:"net"`
		}

		if err := SetJSON(ctx, cache, "rows", []row{{"Wise", 965}}, time.Minute); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}

		var got []row
		found, err := GetJSON(ctx, cache, "rows", &got)
		if err != nil || !found {
			t.Fatalf("GetJSON failed: found=%v err=%v", found, err)
		}
		if len(got) != 1 || got[0].Platform != "Wise" || got[0].Net != 965 {
			t.Errorf("unexpected rows: %+v", got)
		}

		found, err = GetJSON(ctx, cache, "missing", &got)
		if err != nil || found {
			t.Errorf("expected miss, got found=%v err=%v", found, err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		statsCache := NewLRUCache(50)
		_ = statsCache.Set(ctx, "k1", []byte("v1"), time.Minute)
		_ = statsCache.Set(ctx, "k2", []byte("v2"), time.Minute)

		size, capacity := statsCache.Stats()
		if size != 2 {
			t.Errorf("expected size 2, got %d", size)
		}
		if capacity != 50 {
			t.Errorf("expected capacity 50, got %d", capacity)
		}
	})

	t.Run("Close", func(t *testing.T) {
		testCache := NewLRUCache(10)
		_ = testCache.Set(ctx, "k", []byte("v"), time.Minute)

		if err := testCache.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}

		if val, _ := testCache.Get(ctx, "k"); val != nil {
			t.Error("expected cache to be cleared after close")
		}
	})
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cache, err := NewRedisCache(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	defer cache.Close()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := cache.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}

		if !mr.Exists("kestrel:key1") {
			t.Error("expected prefixed key in redis")
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		_ = cache.Set(ctx, "short", []byte("v"), time.Second)
		mr.FastForward(2 * time.Second)

		val, err := cache.Get(ctx, "short")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Error("expected miss after expiry")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, "gone", []byte("v"), time.Minute)
		if err := cache.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if val, _ := cache.Get(ctx, "gone"); val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("Generations", func(t *testing.T) {
		gen, err := cache.Generation(ctx, "corridor-gen:US->IN")
		if err != nil || gen != 0 {
			t.Fatalf("expected generation 0, got %d (%v)", gen, err)
		}

		if _, err := cache.BumpGeneration(ctx, "corridor-gen:US->IN"); err != nil {
			t.Fatalf("BumpGeneration failed: %v", err)
		}
		gen, _ = cache.BumpGeneration(ctx, "corridor-gen:US->IN")
		if gen != 2 {
			t.Errorf("expected generation 2, got %d", gen)
		}

		read, err := cache.Generation(ctx, "corridor-gen:US->IN")
		if err != nil || read != 2 {
			t.Errorf("expected generation 2 on read, got %d (%v)", read, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := cache.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func TestTwoPhaseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := domain.CacheConfig{
		Type:           "redis",
		RedisAddr:      mr.Addr(),
		EnableTwoPhase: true,
		LocalMaxSize:   10,
		LocalTTL:       time.Minute,
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	tp, ok := c.(*TwoPhaseCache)
	if !ok {
		t.Fatalf("expected TwoPhaseCache, got %T", c)
	}

	t.Run("WritesBothLevels", func(t *testing.T) {
		_ = tp.Set(ctx, "k", []byte("v"), time.Minute)

		if !mr.Exists("kestrel:k") {
			t.Error("expected value in L2")
		}
		if val, _ := tp.local.Get(ctx, "k"); string(val) != "v" {
			t.Error("expected value in L1")
		}
	})

	t.Run("PopulatesL1FromL2", func(t *testing.T) {
		if err := mr.Set("kestrel:remote-only", "r"); err != nil {
			t.Fatalf("miniredis set failed: %v", err)
		}

		val, err := tp.Get(ctx, "remote-only")
		if err != nil || string(val) != "r" {
			t.Fatalf("expected 'r', got %q (%v)", val, err)
		}
		if local, _ := tp.local.Get(ctx, "remote-only"); string(local) != "r" {
			t.Error("expected L1 to be populated")
		}
	})

	t.Run("GenerationsAreShared", func(t *testing.T) {
		// A second node sharing the same Redis sees the bump.
		other, err := NewTwoPhaseCache(cfg)
		if err != nil {
			t.Fatalf("NewTwoPhaseCache failed: %v", err)
		}
		defer other.Close()

		if _, err := tp.BumpGeneration(ctx, "corridor-gen:US->IN"); err != nil {
			t.Fatalf("BumpGeneration failed: %v", err)
		}

		gen, err := other.Generation(ctx, "corridor-gen:US->IN")
		if err != nil || gen != 1 {
			t.Errorf("expected shared generation 1, got %d (%v)", gen, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := tp.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func TestNewCache(t *testing.T) {
	t.Run("MemoryType", func(t *testing.T) {
		cache, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 100})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer cache.Close()

		if _, ok := cache.(*LRUCache); !ok {
			t.Error("expected LRUCache for memory type")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}
