package memory

import (
	"context"
	"testing"
	"time"
)

func TestNewMemoryCache(t *testing.T) {
	cache := NewMemoryCache()

	if cache == nil {
		t.Error("NewMemoryCache returned nil")
	}
}

func TestMemoryCache_Get_ExistingKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	key := "test-key"
	value := []byte("test-value")
	if err := cache.Set(ctx, key, value, time.Hour); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Errorf("Get returned error: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %s, want %s", string(got), string(value))
	}
}

func TestMemoryCache_Get_NonExistentKey(t *testing.T) {
	cache := NewMemoryCache()

	got, err := cache.Get(context.Background(), "non-existent")

	if err != ErrCacheMiss {
		t.Errorf("Get error = %v, want ErrCacheMiss", err)
	}
	if got != nil {
		t.Error("Get should return nil value for non-existent key")
	}
}

func TestMemoryCache_Get_ExpiredKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", []byte("test-value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := cache.Get(ctx, "test-key"); err == nil {
		t.Error("Get should return error for expired key")
	}
}

func TestMemoryCache_Get_ReturnsCopy(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_ = cache.Set(ctx, "key", []byte("original"), time.Hour)

	first, _ := cache.Get(ctx, "key")
	first[0] = 'X'

	second, _ := cache.Get(ctx, "key")
	if string(second) != "original" {
		t.Errorf("cached value mutated through returned slice: %s", string(second))
	}
}

func TestMemoryCache_Delete_RemovesKey(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_ = cache.Set(ctx, "key", []byte("value"), time.Hour)
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete returned error: %v", err)
	}

	if _, err := cache.Get(ctx, "key"); err == nil {
		t.Error("Get should fail after Delete")
	}
}

func TestMemoryCache_Delete_NonExistentKey(t *testing.T) {
	cache := NewMemoryCache()

	if err := cache.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

func TestMemoryCache_ContextCancelled(t *testing.T) {
	cache := NewMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cache.Get(ctx, "key"); err != context.Canceled {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}
	if err := cache.Set(ctx, "key", []byte("v"), 0); err != context.Canceled {
		t.Errorf("Set error = %v, want context.Canceled", err)
	}
}
