package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

// indexAccount holds the JSON list of known keys. The OS keychain cannot be
// enumerated, so Keys and Clear rely on it.
const indexAccount = "__authkit_index"

// KVStore is a storage.Backend on the OS keychain (macOS Keychain, Secret
// Service, Windows Credential Manager). Each key is an account under service.
type KVStore struct {
	service string
	mu      sync.Mutex
}

func NewKVStore(service string) *KVStore {
	return &KVStore{service: service}
}

func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keyring get: %w", err)
	}
	return v, true, nil
}

func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	if _, ok := index[key]; ok {
		return nil
	}
	index[key] = struct{}{}
	return s.writeIndex(index)
}

func (s *KVStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(key)
}

func (s *KVStore) remove(key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	if _, ok := index[key]; !ok {
		return nil
	}
	delete(index, key)
	return s.writeIndex(index)
}

func (s *KVStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return err
	}
	for key := range index {
		if err := s.remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *KVStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *KVStore) readIndex() (map[string]struct{}, error) {
	index := make(map[string]struct{})
	raw, err := keyring.Get(s.service, indexAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return index, nil
		}
		return nil, fmt.Errorf("keyring read index: %w", err)
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		// An unreadable index only loses enumeration, not values.
		return index, nil
	}
	for _, k := range keys {
		index[k] = struct{}{}
	}
	return index, nil
}

func (s *KVStore) writeIndex(index map[string]struct{}) error {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode keyring index: %w", err)
	}
	if err := keyring.Set(s.service, indexAccount, string(raw)); err != nil {
		return fmt.Errorf("keyring write index: %w", err)
	}
	return nil
}
