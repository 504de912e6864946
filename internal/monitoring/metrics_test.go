package monitoring_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/gangfang/kaggle-scripts/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("create disabled collector", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(false)
		assert.NotNil(t, collector)
		assert.False(t, collector.IsEnabled())
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with disabled collector", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("load", func() (monitoring.Shape, error) {
			callCount++
			return monitoring.Shape{Rows: 3, Columns: 2}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with enabled collector", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)

		err := collector.RecordOperation("impute", func() (monitoring.Shape, error) {
			time.Sleep(10 * time.Millisecond)
			return monitoring.Shape{Rows: 2919, Columns: 79}, nil
		})
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)

		metric := metrics[0]
		assert.Equal(t, "impute", metric.Stage)
		assert.Equal(t, 2919, metric.Rows)
		assert.Equal(t, 79, metric.Columns)
		assert.False(t, metric.Failed)
		assert.Greater(t, metric.Duration, 5*time.Millisecond)
		assert.GreaterOrEqual(t, metric.MemoryUsed, int64(0))
	})

	t.Run("stages are kept in order", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)

		stages := []string{"load", "merge", "impute", "synthesize"}
		for _, stage := range stages {
			err := collector.RecordOperation(stage, func() (monitoring.Shape, error) {
				return monitoring.Shape{}, nil
			})
			require.NoError(t, err)
		}

		metrics := collector.GetMetrics()
		require.Len(t, metrics, len(stages))
		for i, stage := range stages {
			assert.Equal(t, stage, metrics[i].Stage)
		}
	})

	t.Run("handle operation error", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)

		err := collector.RecordOperation("fit", func() (monitoring.Shape, error) {
			return monitoring.Shape{}, assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.True(t, metrics[0].Failed)
	})

	t.Run("clear metrics", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)
		require.NoError(t, collector.RecordOperation("x", func() (monitoring.Shape, error) {
			return monitoring.Shape{}, nil
		}))
		assert.Len(t, collector.GetMetrics(), 1)

		collector.Clear()
		assert.Empty(t, collector.GetMetrics())
	})
}

func TestMetricsCollector_Summary(t *testing.T) {
	collector := monitoring.NewMetricsCollector(true)
	assert.Equal(t, monitoring.MetricsSummary{}, collector.GetSummary())

	require.NoError(t, collector.RecordOperation("fast", func() (monitoring.Shape, error) {
		return monitoring.Shape{}, nil
	}))
	_ = collector.RecordOperation("slow", func() (monitoring.Shape, error) {
		time.Sleep(15 * time.Millisecond)
		return monitoring.Shape{}, assert.AnError
	})

	summary := collector.GetSummary()
	assert.Equal(t, 2, summary.TotalStages)
	assert.Equal(t, 1, summary.FailedStages)
	assert.Equal(t, "slow", summary.SlowestStage)
	assert.Equal(t, summary.TotalDuration/2, summary.AverageDuration)
}

func TestMetricsCollector_LogSummary(t *testing.T) {
	collector := monitoring.NewMetricsCollector(true)
	require.NoError(t, collector.RecordOperation("merge", func() (monitoring.Shape, error) {
		return monitoring.Shape{Rows: 5, Columns: 4}, nil
	}))

	var buf bytes.Buffer
	collector.LogSummary(slog.New(slog.NewTextHandler(&buf, nil)))

	out := buf.String()
	assert.Contains(t, out, "stage=merge")
	assert.Contains(t, out, "rows=5")
	assert.Contains(t, out, "cols=4")
	assert.Contains(t, out, "slowest_stage=merge")
}

func TestMetricsCollectorConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency tests in short mode")
	}

	collector := monitoring.NewMetricsCollector(true)

	numOps := 10
	done := make(chan bool, numOps)

	for range numOps {
		go func() {
			defer func() { done <- true }()
			err := collector.RecordOperation("fold", func() (monitoring.Shape, error) {
				time.Sleep(1 * time.Millisecond)
				return monitoring.Shape{Rows: 1}, nil
			})
			assert.NoError(t, err)
		}()
	}

	for range numOps {
		<-done
	}

	assert.Len(t, collector.GetMetrics(), numOps)
}
