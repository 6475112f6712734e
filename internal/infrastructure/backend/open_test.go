package backend_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ErlanBelekov/authkit/config"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/backend"
	"github.com/ErlanBelekov/authkit/internal/storage"
	"github.com/zalando/go-keyring"
)

func TestOpen_Memory(t *testing.T) {
	opened, err := backend.Open(context.Background(), &config.Config{StorageDriver: "memory"}, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()
	if _, ok := opened.Backend.(*storage.Memory); !ok {
		t.Errorf("backend = %T, want *storage.Memory", opened.Backend)
	}
}

func TestOpen_SQLite_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StorageDriver: "sqlite", StoragePath: filepath.Join(t.TempDir(), "data", "kv.db")}

	first, err := backend.Open(ctx, cfg, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Backend.Set(ctx, "user_token", `"abc"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	first.Close()

	second, err := backend.Open(ctx, cfg, "test")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	v, ok, err := second.Backend.Get(ctx, "user_token")
	if err != nil || !ok || v != `"abc"` {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}
}

func TestOpen_Keyring(t *testing.T) {
	keyring.MockInit()
	opened, err := backend.Open(context.Background(), &config.Config{StorageDriver: "keyring", KeyringService: "com.authkit.test"}, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()
	if err := opened.Backend.Set(context.Background(), "k", "v"); err != nil {
		t.Errorf("Set: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := backend.Open(context.Background(), &config.Config{StorageDriver: "floppy"}, "test"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpen_SQLite_ScopesByNamespace(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StorageDriver: "sqlite", StoragePath: filepath.Join(t.TempDir(), "kv.db")}

	client, err := backend.Open(ctx, cfg, "client")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer client.Close()
	server, err := backend.Open(ctx, cfg, "server")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer server.Close()

	if err := client.Backend.Set(ctx, "user_token", `"abc"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := server.Backend.Get(ctx, "user_token"); ok {
		t.Error("server namespace sees the client's token")
	}
}

func TestOpen_Keyring_ScopesByNamespace(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	cfg := &config.Config{StorageDriver: "keyring", KeyringService: "com.authkit.test"}

	client, _ := backend.Open(ctx, cfg, "client")
	other, _ := backend.Open(ctx, cfg, "other")
	if err := client.Backend.Set(ctx, "user_token", `"abc"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := other.Backend.Get(ctx, "user_token"); ok {
		t.Error("other namespace sees the client's token")
	}
}

func TestRequireBlobs(t *testing.T) {
	if err := backend.RequireBlobs("keyring"); !errors.Is(err, backend.ErrNoBlobSupport) {
		t.Errorf("RequireBlobs(keyring) = %v, want ErrNoBlobSupport", err)
	}
	for _, driver := range []string{"memory", "sqlite", "postgres", "redis"} {
		if err := backend.RequireBlobs(driver); err != nil {
			t.Errorf("RequireBlobs(%s) = %v, want nil", driver, err)
		}
	}
}
