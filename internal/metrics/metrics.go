// Package metrics exposes Prometheus metrics for acquisition and resolution.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all puzzle-feed metrics.
	Namespace = "puzzle_feed"
)

// fetchBuckets covers sub-second cache hits up to a full retried timeout.
var fetchBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds the puzzle-feed collectors. A nil *Metrics records nothing.
type Metrics struct {
	AcquireTotal         *prometheus.CounterVec
	FetchDurationSeconds prometheus.Histogram
	ResolveTotal         *prometheus.CounterVec
}

// New creates and registers the collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AcquireTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "acquire_total",
				Help:      "Acquisition runs by outcome reason and whether a record was written",
			},
			[]string{"reason", "written"},
		),
		FetchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of source article fetches including retries",
				Buckets:   fetchBuckets,
			},
		),
		ResolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolve_total",
				Help:      "Resolver calls by outcome (fresh, recent, stale or the failure reason)",
			},
			[]string{"outcome"},
		),
	}
}

// RecordAcquire counts one acquisition result.
func (m *Metrics) RecordAcquire(reason string, written bool) {
	if m == nil {
		return
	}
	m.AcquireTotal.WithLabelValues(reason, strconv.FormatBool(written)).Inc()
}

// ObserveFetch records the duration of one fetch.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDurationSeconds.Observe(d.Seconds())
}

// RecordResolve counts one resolver outcome.
func (m *Metrics) RecordResolve(outcome string) {
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(outcome).Inc()
}
