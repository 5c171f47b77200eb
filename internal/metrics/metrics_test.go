package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordAcquire("Scraped", true)
	m.RecordAcquire("FetchFailure", false)
	m.RecordAcquire("FetchFailure", false)
	m.ObserveFetch(300 * time.Millisecond)
	m.RecordResolve("fresh")

	assert.InDelta(t, 1, testutil.ToFloat64(m.AcquireTotal.WithLabelValues("Scraped", "true")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AcquireTotal.WithLabelValues("FetchFailure", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("fresh")), 0)

	expected := `
# HELP puzzle_feed_resolve_total Resolver calls by outcome (fresh, recent, stale or the failure reason)
# TYPE puzzle_feed_resolve_total counter
puzzle_feed_resolve_total{outcome="fresh"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "puzzle_feed_resolve_total"))

	count, err := testutil.GatherAndCount(reg, "puzzle_feed_fetch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordAcquire("Scraped", true)
		m.ObserveFetch(time.Second)
		m.RecordResolve("stale")
	})
}
