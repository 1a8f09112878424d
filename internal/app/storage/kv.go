// Package storage provides the key-value persistence layer behind the domain
// stores. Each store owns a fixed key and serializes its whole collection as
// one JSON blob; backends only need to load and save bytes by key.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no value exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// KV persists opaque blobs under fixed string keys. Implementations must be
// safe for concurrent use.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
