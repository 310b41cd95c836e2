// Package storage defines the durable key-value store the persistence
// adapter writes cart and wishlist snapshots to.
package storage

import (
	"context"
	"errors"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// KV is a durable key-value store. Get returns an error matching
// apperrors.ErrNotFound when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Backend names accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// NotFound builds the error a KV returns for an absent key.
func NotFound(key string) error {
	return apperrors.NotFound("key", key)
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
