package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/authkit/config"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/keyring"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/redis"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/sqlite"
	"github.com/ErlanBelekov/authkit/internal/storage"
)

// ErrNoBlobSupport is returned by RequireBlobs for backends that cannot hold
// multi-megabyte values.
var ErrNoBlobSupport = errors.New("storage driver cannot hold file contents")

// Opened is a ready storage backend and the function releasing it.
type Opened struct {
	Backend storage.Backend
	Close   func()
}

// Open connects the backend selected by cfg.StorageDriver. namespace scopes
// every shared backend so a client and a dev server never see each other's
// keys in one database, Redis instance or keychain.
func Open(ctx context.Context, cfg *config.Config, namespace string) (*Opened, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return &Opened{Backend: storage.NewMemory(), Close: func() {}}, nil

	case "sqlite":
		kv, err := sqlite.Open(cfg.StoragePath, namespace)
		if err != nil {
			return nil, err
		}
		return &Opened{Backend: kv, Close: func() { _ = kv.Close() }}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.KVPoolOptions())
		if err != nil {
			return nil, err
		}
		kv := postgres.NewKVStore(pool, namespace)
		if err := kv.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Opened{Backend: kv, Close: pool.Close}, nil

	case "redis":
		rcfg := redis.DefaultConfig()
		rcfg.Addr = cfg.RedisAddr
		rcfg.Password = cfg.RedisPassword
		rcfg.DB = cfg.RedisDB
		rcfg.Prefix = "authkit:" + namespace + ":"
		kv, err := redis.NewKVStore(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		return &Opened{Backend: kv, Close: func() { _ = kv.Close() }}, nil

	case "keyring":
		return &Opened{Backend: keyring.NewKVStore(cfg.KeyringService + "." + namespace), Close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// RequireBlobs rejects drivers unsuited to file storage. OS keychains cap
// secret sizes far below the upload limit.
func RequireBlobs(driver string) error {
	if driver == "keyring" {
		return fmt.Errorf("%w: %s", ErrNoBlobSupport, driver)
	}
	return nil
}
