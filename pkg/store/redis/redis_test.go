package redis

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*DocumentCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDocumentCache(client, ttl), mr
}

func TestDocumentCachePutGet(t *testing.T) {
	cache, _ := newTestCache(t, 0)
	ctx := context.Background()

	body := []byte(`[{"id": "sm"}]`)
	if err := cache.Put(ctx, "game.json", body); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := cache.Get(ctx, "game.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || !bytes.Equal(got, body) {
		t.Errorf("Get: got %q ok=%v", got, ok)
	}

	_, ok, err = cache.Get(ctx, "missing.json")
	if err != nil {
		t.Fatalf("Get miss errored: %v", err)
	}
	if ok {
		t.Error("expected a miss")
	}
}

func TestDocumentCacheKeyPrefix(t *testing.T) {
	cache, mr := newTestCache(t, 0)

	if err := cache.Put(context.Background(), "game.json", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("itemdeck:doc:game.json") {
		t.Errorf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestDocumentCacheTTL(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, "game.json", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if mr.TTL("itemdeck:doc:game.json") != time.Minute {
		t.Errorf("ttl: got %v", mr.TTL("itemdeck:doc:game.json"))
	}

	// Past the TTL the document is gone.
	mr.FastForward(2 * time.Minute)
	_, ok, err := cache.Get(ctx, "game.json")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("document survived its TTL")
	}
}

func TestDocumentCacheDelete(t *testing.T) {
	cache, _ := newTestCache(t, 0)
	ctx := context.Background()

	if err := cache.Put(ctx, "game.json", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := cache.Delete(ctx, "game.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "game.json"); ok {
		t.Error("document still present after delete")
	}
}
