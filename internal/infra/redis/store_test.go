package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Mayhomes/quiz/internal/domain"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := testClient(t)
	store := NewStore(client, 0)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	if err := store.Set(ctx, "quiz:abc:answers", []byte(`{"0":"x"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := store.Get(ctx, "quiz:abc:answers")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != `{"0":"x"}` {
		t.Fatalf("got %q", raw)
	}

	if err := store.Delete(ctx, "quiz:abc:answers", "quiz:abc:timer"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "quiz:abc:answers"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("record survived delete")
	}
}

func TestStoreDeleteNothing(t *testing.T) {
	_, client := testClient(t)
	store := NewStore(client, 0)
	if err := store.Delete(context.Background()); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
}

func TestStoreHonorsTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := testClient(t)
	store := NewStore(client, time.Minute)

	if err := store.Set(ctx, "quiz:abc:user", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "quiz:abc:user"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("record survived TTL: %v", err)
	}
}
