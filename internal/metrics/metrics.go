// Package metrics exposes run metrics for deltapurge. A run is a one-shot
// process, so metrics live in a private registry that is written to a
// node-exporter textfile at exit instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deltapurge"

// Chunk status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// PurgeMetrics holds per-run counters. A nil *PurgeMetrics is valid and
// records nothing.
type PurgeMetrics struct {
	registry *prometheus.Registry

	// Candidates is the number of files the provider returned.
	Candidates prometheus.Gauge

	// ChunksTotal counts finished chunk deletions by status.
	ChunksTotal *prometheus.CounterVec

	// KeysDeleted counts keys in chunks that completed successfully.
	KeysDeleted prometheus.Counter

	ChunkDuration prometheus.Histogram

	// LastRunSuccess is 1 when the last run finished without error.
	LastRunSuccess prometheus.Gauge
}

// New creates metrics registered with a fresh registry.
func New() *PurgeMetrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics registered with reg.
func NewWithRegistry(reg *prometheus.Registry) *PurgeMetrics {
	f := promauto.With(reg)
	return &PurgeMetrics{
		registry: reg,
		Candidates: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Number of files eligible for deletion in the last run.",
		}),
		ChunksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunk delete requests by outcome.",
		}, []string{"status"}),
		KeysDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_deleted_total",
			Help:      "Keys removed by successful chunk delete requests.",
		}),
		ChunkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_delete_duration_seconds",
			Help:      "Latency of a single chunk delete request.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		LastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed without error, 0 otherwise.",
		}),
	}
}

func (m *PurgeMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *PurgeMetrics) RecordCandidates(n int) {
	if m == nil {
		return
	}
	m.Candidates.Set(float64(n))
}

// RecordChunk records one finished chunk request.
func (m *PurgeMetrics) RecordChunk(keys int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.ChunkDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.ChunksTotal.WithLabelValues(StatusFailure).Inc()
		return
	}
	m.ChunksTotal.WithLabelValues(StatusSuccess).Inc()
	m.KeysDeleted.Add(float64(keys))
}

func (m *PurgeMetrics) RecordRun(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LastRunSuccess.Set(0)
		return
	}
	m.LastRunSuccess.Set(1)
}

// WriteTextfile writes the registry in text exposition format. An empty
// path is a no-op.
func (m *PurgeMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
