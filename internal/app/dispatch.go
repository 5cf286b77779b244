package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/dev-tams/deltapurge/internal/config"
	"github.com/dev-tams/deltapurge/internal/logging"
	"github.com/dev-tams/deltapurge/internal/metrics"
)

// BulkDeleter removes a batch of keys in a single backend request.
type BulkDeleter interface {
	DeleteObjects(ctx context.Context, keys []string) error
}

// Dispatcher sends chunks to a BulkDeleter with at most Parallelism
// requests in flight.
type Dispatcher struct {
	Deleter     BulkDeleter
	Parallelism int
	// ChunkTimeout bounds each request; zero leaves it to the transport.
	ChunkTimeout time.Duration
	Metrics      *metrics.PurgeMetrics
	Logger       *slog.Logger
}

// DispatchReport summarises a dispatch. Failed is sorted by chunk index.
type DispatchReport struct {
	Succeeded   int
	KeysDeleted int
	Failed      []*ChunkDeletionError
}

type chunkOutcome struct {
	keys int
	err  *ChunkDeletionError
}

// Dispatch submits every chunk exactly once and waits for all of them. A
// failed chunk never cancels its siblings and is not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []Chunk) (*DispatchReport, error) {
	if d.Parallelism < 1 {
		return nil, &config.ConfigurationError{Field: "parallelism", Reason: fmt.Sprintf("must be >= 1, got %d", d.Parallelism)}
	}

	log := d.Logger
	if log == nil {
		log = logging.FromContext(ctx)
	}

	p := pool.NewWithResults[chunkOutcome]().WithMaxGoroutines(d.Parallelism)
	for _, c := range chunks {
		c := c
		p.Go(func() chunkOutcome {
			return d.deleteChunk(ctx, log, c)
		})
	}
	outcomes := p.Wait()

	report := &DispatchReport{}
	for _, o := range outcomes {
		if o.err != nil {
			report.Failed = append(report.Failed, o.err)
			continue
		}
		report.Succeeded++
		report.KeysDeleted += o.keys
	}
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Chunk < report.Failed[j].Chunk
	})
	return report, nil
}

func (d *Dispatcher) deleteChunk(ctx context.Context, log *slog.Logger, c Chunk) chunkOutcome {
	if len(c.Keys) == 0 {
		return chunkOutcome{}
	}

	log.Debug("deleting chunk",
		"chunk", c.Index,
		"keys", len(c.Keys),
		"first", c.Keys[0],
		"last", c.Keys[len(c.Keys)-1],
	)

	if err := ctx.Err(); err != nil {
		log.Warn("chunk skipped", "chunk", c.Index, "error", err)
		d.Metrics.RecordChunk(len(c.Keys), 0, err)
		return chunkOutcome{err: &ChunkDeletionError{Chunk: c.Index, Keys: c.Keys, Err: err}}
	}

	callCtx := ctx
	if d.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.ChunkTimeout)
		defer cancel()
	}

	started := time.Now()
	err := d.Deleter.DeleteObjects(callCtx, c.Keys)
	elapsed := time.Since(started)
	d.Metrics.RecordChunk(len(c.Keys), elapsed, err)

	if err != nil {
		log.Warn("chunk delete failed",
			"chunk", c.Index,
			"keys", len(c.Keys),
			"duration", elapsed.Round(time.Millisecond),
			"error", err,
		)
		return chunkOutcome{err: &ChunkDeletionError{Chunk: c.Index, Keys: c.Keys, Err: err}}
	}

	log.Debug("chunk deleted",
		"chunk", c.Index,
		"keys", len(c.Keys),
		"duration", elapsed.Round(time.Millisecond),
	)
	return chunkOutcome{keys: len(c.Keys)}
}
