// Package memory is an in-process storage.KV, used by default and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/storage"
)

// KV is a map-backed key-value store. Thread-safe via sync.RWMutex.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store.
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, storage.NotFound(key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value under key.
func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Ping always succeeds.
func (s *KV) Ping(context.Context) error { return nil }

// Len returns the number of stored keys.
func (s *KV) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
