package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Mayhomes/quiz/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for missing key, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != "v1" {
		t.Fatalf("got %q, want %q", raw, "v1")
	}

	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	raw, _ = store.Get(ctx, "k")
	if string(raw) != "v2" {
		t.Fatalf("overwrite not visible, got %q", raw)
	}
}

func TestStoreDeleteMany(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, k := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := store.Delete(ctx, "a", "b", "never-existed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("a survived delete")
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("b survived delete")
	}
	if _, err := store.Get(ctx, "c"); err != nil {
		t.Fatalf("c should survive: %v", err)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.Set(ctx, "k", []byte("abc")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, _ := store.Get(ctx, "k")
	raw[0] = 'z'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("caller mutation leaked into the store: %q", again)
	}
}
