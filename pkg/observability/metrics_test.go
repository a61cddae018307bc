package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}

	m.Counter("test", 1)
	m.Gauge("test", 1.0)
	m.Histogram("test", 1.0)
	m.Timing("test", time.Second)
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("Counter with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricAnalyses, 1, T("strategy", "fastest_wins"))
		m.Counter(MetricAnalyses, 1, T("strategy", "high_impact"))
		m.Counter(MetricAnalyses, 1, T("strategy", "fastest_wins"))

		assert.Equal(t, int64(2), m.GetCounter(MetricAnalyses, T("strategy", "fastest_wins")))
		assert.Equal(t, int64(1), m.GetCounter(MetricAnalyses, T("strategy", "high_impact")))
		assert.Zero(t, m.GetCounter(MetricAnalyses))
	})

	t.Run("Gauge keeps the last value", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge(MetricBreakerState, 2)
		m.Gauge(MetricBreakerState, 0)

		assert.Equal(t, 0.0, m.GetGauge(MetricBreakerState))
	})

	t.Run("Histogram and Timing append", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Histogram(MetricBatchSize, 3)
		m.Histogram(MetricBatchSize, 5)
		m.Timing(MetricHTTPDuration, 2*time.Millisecond)

		assert.Equal(t, []float64{3, 5}, m.GetHistogram(MetricBatchSize))
		assert.Equal(t, []time.Duration{2 * time.Millisecond}, m.GetTimings(MetricHTTPDuration))
	})

	t.Run("Reset", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("c", 1)
		m.Reset()
		assert.Zero(t, m.GetCounter("c"))
	})
}

func TestInMemoryMetrics_Snapshot(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter(MetricCacheHits, 4)
	m.Histogram(MetricBatchSize, 2)
	m.Histogram(MetricBatchSize, 8)
	m.Timing(MetricHTTPDuration, 10*time.Millisecond)
	m.Timing(MetricHTTPDuration, 30*time.Millisecond)

	snap := m.Snapshot()

	assert.Equal(t, int64(4), snap.Counters[MetricCacheHits])
	assert.Equal(t, Summary{Count: 2, Sum: 10, Min: 2, Max: 8}, snap.Histograms[MetricBatchSize])
	assert.Equal(t, Summary{Count: 2, Sum: 40, Min: 10, Max: 30}, snap.Timings[MetricHTTPDuration])

	m.Counter(MetricCacheHits, 1)
	assert.Equal(t, int64(4), snap.Counters[MetricCacheHits], "snapshot is a copy")
}

func TestTimer(t *testing.T) {
	t.Run("records success", func(t *testing.T) {
		m := NewInMemoryMetrics()

		out, err := TimeOperationResult(context.Background(), NewDiscardLogger(), m, "analyze", func() (int, error) {
			return 7, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 7, out)
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T(OperationKey, "analyze")))
		assert.Zero(t, m.GetCounter(MetricOperationErrors, T(OperationKey, "analyze")))
		assert.Len(t, m.GetTimings(MetricOperationDuration, T(OperationKey, "analyze")), 1)
	})

	t.Run("records and logs failures", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewInMemoryMetrics()
		logger := NewLogger(LogConfig{Output: &buf})

		_, err := TimeOperationResult(context.Background(), logger, m, "plan", func() (string, error) {
			return "", errors.New("boom")
		})

		require.Error(t, err)
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, T(OperationKey, "plan")))
		assert.Contains(t, buf.String(), "operation failed")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("StopWithError counts the failure", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewInMemoryMetrics()
		tags := []Tag{T("strategy", "high_impact"), T(OperationKey, "rank")}

		StartTimer("rank").
			WithLogger(NewLogger(LogConfig{Output: &buf})).
			WithMetrics(m).
			WithTags(T("strategy", "high_impact")).
			StopWithError(context.Background(), errors.New("cache unavailable"))

		assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, tags...))
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, tags...))
		assert.Len(t, m.GetTimings(MetricOperationDuration, tags...), 1)
		assert.Contains(t, buf.String(), "cache unavailable")
		assert.Contains(t, buf.String(), ErrorKey)
	})

	t.Run("extra tags precede the operation", func(t *testing.T) {
		m := NewInMemoryMetrics()

		StartTimer("suggest").WithMetrics(m).WithTags(T("strategy", "smart_balance")).Stop(context.Background())

		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("strategy", "smart_balance"), T(OperationKey, "suggest")))
	})
}
