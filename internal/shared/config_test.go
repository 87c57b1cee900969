package shared

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("HOTEL_IDS", "")
	t.Setenv("PENDING_TTL_SECONDS", "")
	c := Load()
	if c.Store != StoreMySQL {
		t.Fatalf("store: %q", c.Store)
	}
	if c.PendingTTL != 30*time.Minute {
		t.Fatalf("pending ttl: %s", c.PendingTTL)
	}
	if len(c.HotelIDs) != 0 {
		t.Fatalf("hotel ids: %v", c.HotelIDs)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE", "Memory")
	t.Setenv("HOTEL_IDS", "1, 2,x,-3,4")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("SYNC_WORKERS", "not-a-number")

	c := Load()
	if c.Store != StoreMemory {
		t.Fatalf("store: %q", c.Store)
	}
	if got := c.HotelIDs; len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("hotel ids: %v", got)
	}
	if c.CacheTTL != time.Minute {
		t.Fatalf("cache ttl: %s", c.CacheTTL)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors: %v", c.CORSOrigins)
	}
	if !c.MigrateOnStart {
		t.Fatalf("migrate on start not parsed")
	}
	if c.Workers != 8 {
		t.Fatalf("bad int must fall back to default, got %d", c.Workers)
	}
}

func TestLoad_RedisAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	if c := Load(); c.RedisAddr != "" {
		t.Fatalf("empty REDIS_ADDR must disable the cache, got %q", c.RedisAddr)
	}

	t.Setenv("REDIS_ADDR", "cache:6380")
	if c := Load(); c.RedisAddr != "cache:6380" {
		t.Fatalf("redis addr: %q", c.RedisAddr)
	}

	if err := os.Unsetenv("REDIS_ADDR"); err != nil {
		t.Fatal(err)
	}
	if c := Load(); c.RedisAddr != "localhost:6379" {
		t.Fatalf("unset REDIS_ADDR must use the default, got %q", c.RedisAddr)
	}
}

func TestValidate(t *testing.T) {
	c := Config{Store: "postgres", PendingTTL: time.Minute, Workers: 1}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
	c.Store = StoreMemory
	c.PendingTTL = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for zero pending ttl")
	}
}
