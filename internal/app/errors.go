package app

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidCandidateError reports a candidate path that cannot be turned into
// an object key under the table root.
type InvalidCandidateError struct {
	Path string
}

func (e *InvalidCandidateError) Error() string {
	return fmt.Sprintf("invalid candidate path %q", e.Path)
}

// ChunkDeletionError records the failure of one chunk's delete request.
type ChunkDeletionError struct {
	Chunk int
	Keys  []string
	Err   error
}

func (e *ChunkDeletionError) Error() string {
	return fmt.Sprintf("chunk %d (%d keys): %v", e.Chunk, len(e.Keys), e.Err)
}

func (e *ChunkDeletionError) Unwrap() error { return e.Err }

// PurgeError is returned by a live run in which at least one chunk failed.
// Keys of succeeded chunks stay deleted.
type PurgeError struct {
	Failed    []*ChunkDeletionError
	Succeeded int
}

func (e *PurgeError) Error() string {
	idx := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		idx[i] = strconv.Itoa(f.Chunk)
	}
	return fmt.Sprintf("%d of %d chunks failed to delete (chunks %s)",
		len(e.Failed), len(e.Failed)+e.Succeeded, strings.Join(idx, ", "))
}

func (e *PurgeError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f
	}
	return out
}

// FailedChunks returns the failed chunk indices in ascending order.
func (e *PurgeError) FailedChunks() []int {
	out := make([]int, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Chunk
	}
	return out
}
