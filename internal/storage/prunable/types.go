package prunable

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Prunable is the list + bulk-delete capability a purge needs from a backend.
// DeleteObjects removes every key in one request; keys that are already gone
// count as deleted.
type Prunable interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteObjects(ctx context.Context, keys []string) error
}
