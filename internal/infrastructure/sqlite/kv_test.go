package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ErlanBelekov/authkit/internal/infrastructure/sqlite"
	"github.com/ErlanBelekov/authkit/internal/storage/storagetest"
)

func open(t *testing.T, path, namespace string) *sqlite.KVStore {
	t.Helper()
	store, err := sqlite.Open(path, namespace)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKVStore_Conformance(t *testing.T) {
	storagetest.Run(t, open(t, filepath.Join(t.TempDir(), "kv.db"), "test"))
}

func TestKVStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")
	client := open(t, path, "client")
	server := open(t, path, "server")

	if err := client.Set(ctx, "user_token", `"tok"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := server.Set(ctx, "file_1", `{}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, _ := server.Get(ctx, "user_token"); ok {
		t.Error("server namespace sees the client's token")
	}
	keys, err := client.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "user_token" {
		t.Errorf("client Keys() = %v, %v, want [user_token]", keys, err)
	}

	if err := server.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if v, ok, err := client.Get(ctx, "user_token"); err != nil || !ok || v != `"tok"` {
		t.Errorf("client Get after server Clear = %q, %v, %v", v, ok, err)
	}
}

func TestOpen_DirectoryPath_ReturnsError(t *testing.T) {
	if store, err := sqlite.Open(t.TempDir(), "test"); err == nil {
		_ = store.Close()
		t.Error("expected error opening a directory as a database")
	}
}
