package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"decode/internal/platform/config"
	"decode/internal/platform/models"
)

func testOrg() *models.Organization {
	return &models.Organization{ID: "org_1", Slug: "acme", Name: "Acme", AllowedFeatures: []string{"dashboard"}}
}

func exerciseCache(t *testing.T, c OrgCache) {
	ctx := context.Background()

	if _, ok := c.Get(ctx, "acme"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, testOrg())
	got, ok := c.Get(ctx, "acme")
	if !ok || got.ID != "org_1" || len(got.AllowedFeatures) != 1 {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	c.Invalidate(ctx, "acme")
	if _, ok := c.Get(ctx, "acme"); ok {
		t.Error("expected miss after invalidate")
	}

	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Minute))
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache(-time.Second)
	c.Set(context.Background(), testOrg())
	if _, ok := c.Get(context.Background(), "acme"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	c.Set(context.Background(), testOrg())

	got, _ := c.Get(context.Background(), "acme")
	got.AllowedFeatures[0] = "mail"

	again, _ := c.Get(context.Background(), "acme")
	if again.AllowedFeatures[0] != "dashboard" {
		t.Error("cached entry was mutated through a returned value")
	}
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseCache(t, NewRedisCache(client, time.Minute))
}

func TestRedisCache_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	c.Set(context.Background(), testOrg())

	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(context.Background(), "acme"); ok {
		t.Error("expected entry to expire")
	}
}

func TestNew(t *testing.T) {
	if _, err := New(config.CacheConfig{Driver: "memory"}); err != nil {
		t.Errorf("memory driver: %v", err)
	}
	if _, err := New(config.CacheConfig{Driver: "redis", RedisURL: "://bad"}); err == nil {
		t.Error("expected error for bad redis url")
	}
	if _, err := New(config.CacheConfig{Driver: "memcached"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
