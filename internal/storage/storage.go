package storage

import (
	"context"

	"github.com/dev-tams/deltapurge/internal/storage/prunable"
)

// ErrNotFound is returned by ReadObject when the key does not exist.
var ErrNotFound = prunable.ErrNotFound

type Store interface {
	Name() string
	prunable.Prunable
	// ReadObject returns the full object body.
	ReadObject(ctx context.Context, key string) ([]byte, error)
}
