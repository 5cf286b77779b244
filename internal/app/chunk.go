package app

import (
	"fmt"

	"github.com/dev-tams/deltapurge/internal/config"
)

// Chunk is one bulk delete request worth of keys.
type Chunk struct {
	Index int
	Keys  []string
}

// Partition splits keys into consecutive chunks of size keys; only the last
// chunk may be shorter. Empty input yields no chunks.
func Partition(keys []string, size int) ([]Chunk, error) {
	if size < 1 {
		return nil, &config.ConfigurationError{Field: "chunk_size", Reason: fmt.Sprintf("must be >= 1, got %d", size)}
	}

	chunks := make([]Chunk, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		chunks = append(chunks, Chunk{Index: len(chunks), Keys: keys[start:end:end]})
	}
	return chunks, nil
}
