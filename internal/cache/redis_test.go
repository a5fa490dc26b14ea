package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	cache := NewRedisCache(&Config{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return cache, mr
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MinIdleConns != 5 {
		t.Errorf("Expected MinIdleConns to be 5, got %d", config.MinIdleConns)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)

	if cache == nil {
		t.Fatal("Expected cache to be created with default config")
	}

	if cache.client == nil {
		t.Error("Expected Redis client to be initialized")
	}
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestRedis(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := cache.Set("key", payload{Name: "alice", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := cache.Get("key", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Name != "alice" || got.Count != 3 {
		t.Errorf("Unexpected value: %+v", got)
	}
}

func TestGetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var got string
	err := cache.Get("absent", &got)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Set("a", "1", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set("b", "2", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := cache.Delete("a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := cache.Exists("a")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected key 'a' to be gone")
	}
}

func TestDeleteNoKeysIsNoop(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Delete(); err != nil {
		t.Errorf("Expected no error deleting zero keys, got %v", err)
	}
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.Set("key", "value", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var got string
	if err := cache.Get("key", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestDeletePattern(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Set("notifications:1", "a", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set("notifications:2", "b", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set("other", "c", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := cache.DeletePattern("notifications:*"); err != nil {
		t.Fatalf("DeletePattern failed: %v", err)
	}

	if exists, _ := cache.Exists("notifications:1"); exists {
		t.Error("Expected notifications:1 to be deleted")
	}
	if exists, _ := cache.Exists("other"); !exists {
		t.Error("Expected other to survive")
	}
}

func TestMetrics(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Set("key", "value", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got string
	if err := cache.Get("key", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := cache.Get("absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Expected ErrCacheMiss, got %v", err)
	}

	metrics := cache.Metrics()
	if metrics.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", metrics.Hits)
	}
	if metrics.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", metrics.Misses)
	}
	if metrics.Sets != 1 {
		t.Errorf("Expected 1 set, got %d", metrics.Sets)
	}
}

func TestHealth(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.Health(); err != nil {
		t.Errorf("Expected healthy cache, got %v", err)
	}

	mr.Close()

	if err := cache.Health(); err == nil {
		t.Error("Expected health check to fail after server shutdown")
	}
}
