package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Backend is a durable string-keyed store of opaque serialized values.
// Removing a missing key is not an error.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// Storage serializes values to JSON on top of a Backend.
//
// A value that cannot be decoded on read is reported as absent rather than as
// an error so that a corrupted entry never blocks startup.
type Storage struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Storage {
	return &Storage{
		backend: backend,
		logger:  logger.With("component", "storage"),
	}
}

// Backend returns the underlying backend.
func (s *Storage) Backend() Backend {
	return s.backend
}

func (s *Storage) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(raw)); err != nil {
		s.logger.ErrorContext(ctx, "save to storage", "key", key, "error", err)
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// GetJSON decodes the value stored under key into dst. It returns false when
// the key is absent or its value is not valid JSON for dst.
func (s *Storage) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "read from storage", "key", key, "error", err)
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable storage value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "remove from storage", "key", key, "error", err)
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear storage", "error", err)
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list storage keys", "error", err)
		return nil, fmt.Errorf("keys: %w", err)
	}
	return keys, nil
}

// HasKey reports whether key is present. Lookup failures report false.
func (s *Storage) HasKey(ctx context.Context, key string) bool {
	_, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "check storage key", "key", key, "error", err)
		return false
	}
	return ok
}

// Size returns the total length of all stored raw values, or 0 if the
// backend cannot be enumerated.
func (s *Storage) Size(ctx context.Context) int {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "compute storage size", "error", err)
		return 0
	}
	size := 0
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "compute storage size", "key", key, "error", err)
			return 0
		}
		if ok {
			size += len(raw)
		}
	}
	return size
}

// Entry is a raw key/value pair used by the Multi* operations.
type Entry struct {
	Key   string
	Value string
	Found bool
}

func (s *Storage) MultiGet(ctx context.Context, keys []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("multi get %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: raw, Found: ok})
	}
	return entries, nil
}

func (s *Storage) MultiSet(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := s.backend.Set(ctx, e.Key, e.Value); err != nil {
			return fmt.Errorf("multi set %q: %w", e.Key, err)
		}
	}
	return nil
}

func (s *Storage) MultiRemove(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.backend.Remove(ctx, key); err != nil {
			return fmt.Errorf("multi remove %q: %w", key, err)
		}
	}
	return nil
}
