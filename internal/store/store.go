package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no record exists under the key.
var ErrNotFound = errors.New("record not found")

// Store persists named records as opaque bytes.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
	Name() string
	Close() error
}
