// Package storagetest checks that a storage.Backend honors the contract the
// rest of the module relies on.
package storagetest

import (
	"context"
	"slices"
	"testing"

	"github.com/ErlanBelekov/authkit/internal/storage"
)

// Run exercises b, which must start empty.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key is absent", func(t *testing.T) {
		_, ok, err := b.Get(ctx, "missing")
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v, want false,nil", ok, err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := b.Set(ctx, storage.KeyUserToken, `"tok-1"`); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, ok, err := b.Get(ctx, storage.KeyUserToken)
		if err != nil || !ok || v != `"tok-1"` {
			t.Fatalf("get = %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := b.Set(ctx, storage.KeyUserToken, `"tok-2"`); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, _, _ := b.Get(ctx, storage.KeyUserToken)
		if v != `"tok-2"` {
			t.Fatalf("get = %q, want tok-2", v)
		}
	})

	t.Run("keys lists stored keys", func(t *testing.T) {
		if err := b.Set(ctx, storage.CacheKey("7"), `{}`); err != nil {
			t.Fatalf("set: %v", err)
		}
		keys, err := b.Keys(ctx)
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		slices.Sort(keys)
		want := []string{storage.CacheKey("7"), storage.KeyUserToken}
		if !slices.Equal(keys, want) {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := b.Remove(ctx, storage.KeyUserToken); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if _, ok, _ := b.Get(ctx, storage.KeyUserToken); ok {
			t.Fatal("key present after remove")
		}
		if err := b.Remove(ctx, storage.KeyUserToken); err != nil {
			t.Fatalf("removing a missing key: %v", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := b.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		keys, err := b.Keys(ctx)
		if err != nil || len(keys) != 0 {
			t.Fatalf("keys after clear = %v err=%v", keys, err)
		}
	})
}
