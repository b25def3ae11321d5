package catalog

import (
	"testing"
	"time"

	"coffeeshop/internal/models"
)

func TestCacheReturnsEntryWithinTTL(t *testing.T) {
	cache := NewCache(5 * time.Minute)
	cache.Set("Americano", models.Product{Name: "Americano", Price: 45})

	got, ok := cache.Get("Americano")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Price != 45 {
		t.Fatalf("expected cached price 45, got %v", got.Price)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	cache := NewCache(5 * time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }
	cache.Set("Latte", models.Product{Name: "Latte"})

	cache.now = func() time.Time { return now.Add(5*time.Minute + time.Second) }
	if _, ok := cache.Get("Latte"); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestCacheMissForUnknownName(t *testing.T) {
	cache := NewCache(time.Minute)
	if _, ok := cache.Get("Nope"); ok {
		t.Fatal("expected miss for unknown name")
	}
}
