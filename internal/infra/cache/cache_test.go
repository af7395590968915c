package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/payments-backoffice-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("transactions:all", "value1")
	val, ok := c.Get("transactions:all")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	c.Set("transactions:all", 1)
	c.Set("transactions:wallet:u1:w1", 2)
	c.Set("transactions:wallet:u2:w9", 3)
	c.Set("wallets:u1", 4)

	if n := c.DeletePrefix("transactions:wallet:"); n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	if _, ok := c.Get("transactions:all"); !ok {
		t.Error("expected transactions:all to survive")
	}
	if _, ok := c.Get("wallets:u1"); !ok {
		t.Error("expected wallets:u1 to survive")
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 entries left, got %d", c.Len())
	}
}

func TestCache_Update(t *testing.T) {
	c := cache.New[[]string](5 * time.Minute)
	defer c.Close()

	if c.Update("missing", func(v []string) []string { return v }) {
		t.Fatal("expected update of missing key to report false")
	}

	c.Set("k", []string{"pending"})
	ok := c.Update("k", func(v []string) []string {
		return append(v, "cancelled")
	})
	if !ok {
		t.Fatal("expected update to succeed")
	}
	v, _ := c.Get("k")
	if len(v) != 2 || v[1] != "cancelled" {
		t.Errorf("unexpected value %v", v)
	}
}
