package app

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type fakeDeleter struct {
	mu    sync.Mutex
	calls [][]string
	// failOn maps the first key of a chunk to the error its request returns.
	failOn map[string]error
	delay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeDeleter) DeleteObjects(ctx context.Context, keys []string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(keys))
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err, ok := f.failOn[keys[0]]; ok {
		return err
	}
	return nil
}

func (f *fakeDeleter) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fakeProvider struct {
	candidates []string
	err        error
	calls      int
	gotHours   int64
}

func (p *fakeProvider) ListCandidates(_ context.Context, retentionHours int64) ([]string, error) {
	p.calls++
	p.gotHours = retentionHours
	if p.err != nil {
		return nil, p.err
	}
	return p.candidates, nil
}
