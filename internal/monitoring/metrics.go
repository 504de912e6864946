// Package monitoring provides per-stage metrics collection for pipeline runs.
package monitoring

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Shape is the table shape a stage hands to the next one.
type Shape struct {
	Rows    int
	Columns int
}

// StageMetrics represents performance metrics for a single pipeline stage.
type StageMetrics struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	MemoryUsed int64         `json:"memory_used"`
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	Failed     bool          `json:"failed"`
}

// MetricsCollector collects and stores performance metrics for pipeline stages.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]StageMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// RecordOperation executes fn and records its duration, memory delta and
// the shape it reports. fn always runs; only the bookkeeping is skipped when
// the collector is disabled.
func (mc *MetricsCollector) RecordOperation(stage string, fn func() (Shape, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	shape, err := fn()
	duration := time.Since(start)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	// Bytes allocated during the stage, not retained heap.
	memoryUsed := int64(memAfter.TotalAlloc - memBefore.TotalAlloc) //nolint:gosec // allocation deltas fit in int64

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, StageMetrics{
		Stage:      stage,
		Duration:   duration,
		MemoryUsed: memoryUsed,
		Rows:       shape.Rows,
		Columns:    shape.Columns,
		Failed:     err != nil,
	})
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []StageMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalMemory int64
	failed := 0
	slowest := mc.metrics[0]

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalMemory += metric.MemoryUsed
		if metric.Failed {
			failed++
		}
		if metric.Duration > slowest.Duration {
			slowest = metric
		}
	}

	return MetricsSummary{
		TotalStages:     len(mc.metrics),
		FailedStages:    failed,
		TotalDuration:   totalDuration,
		TotalMemory:     totalMemory,
		AverageDuration: totalDuration / time.Duration(len(mc.metrics)),
		SlowestStage:    slowest.Stage,
	}
}

// LogSummary writes one record per stage followed by the summary.
func (mc *MetricsCollector) LogSummary(logger *slog.Logger) {
	for _, m := range mc.GetMetrics() {
		logger.Info("stage metrics",
			"stage", m.Stage,
			"duration", m.Duration,
			"memory_bytes", m.MemoryUsed,
			"rows", m.Rows,
			"cols", m.Columns,
			"failed", m.Failed,
		)
	}
	summary := mc.GetSummary()
	logger.Info("run metrics",
		"stages", summary.TotalStages,
		"failed", summary.FailedStages,
		"total_duration", summary.TotalDuration,
		"average_duration", summary.AverageDuration,
		"slowest_stage", summary.SlowestStage,
		"memory_bytes", summary.TotalMemory,
	)
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages     int           `json:"total_stages"`
	FailedStages    int           `json:"failed_stages"`
	TotalDuration   time.Duration `json:"total_duration"`
	TotalMemory     int64         `json:"total_memory"`
	AverageDuration time.Duration `json:"average_duration"`
	SlowestStage    string        `json:"slowest_stage"`
}
