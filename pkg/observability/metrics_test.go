package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/rdbstat/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.RunMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return rm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestRunMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)

	rm.RecordRun(context.Background(), observability.StatusOK, 100*time.Millisecond)

	data := collectMetrics(t, reader)

	runs := findMetric(data, "rdbstat.runs.total")
	require.NotNil(t, runs)
	assert.Equal(t, int64(1), sumValue(t, runs))

	require.NotNil(t, findMetric(data, "rdbstat.run.duration.seconds"))
	assert.Nil(t, findMetric(data, "rdbstat.errors.total"))
}

func TestRunMetrics_RecordRunError(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)

	rm.RecordRun(context.Background(), observability.StatusError, time.Second)

	errs := findMetric(collectMetrics(t, reader), "rdbstat.errors.total")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), sumValue(t, errs))
}

func TestRunMetrics_RecordMetric(t *testing.T) {
	t.Parallel()

	rm, reader := setupTestMeter(t)
	ctx := context.Background()

	rm.RecordMetric(ctx, "interval_writes", 3)
	rm.RecordMetric(ctx, "get_p99", 0)

	data := collectMetrics(t, reader)

	samples := findMetric(data, "rdbstat.samples.total")
	require.NotNil(t, samples)
	assert.Equal(t, int64(3), sumValue(t, samples))

	empty := findMetric(data, "rdbstat.metrics.empty.total")
	require.NotNil(t, empty)
	assert.Equal(t, int64(1), sumValue(t, empty))
}

func TestNewRunMetrics_NoopMeter(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	rm, err := observability.NewRunMetrics(providers.Meter)
	require.NoError(t, err)

	rm.RecordRun(context.Background(), observability.StatusOK, time.Millisecond)
}
