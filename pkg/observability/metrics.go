package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal    = "rdbstat.runs.total"
	metricRunDuration  = "rdbstat.run.duration.seconds"
	metricErrorsTotal  = "rdbstat.errors.total"
	metricSamplesTotal = "rdbstat.samples.total"
	metricEmptyTotal   = "rdbstat.metrics.empty.total"

	attrStatus = "status"
	attrMetric = "metric"

	// StatusOK marks a run that wrote all artifacts.
	StatusOK = "ok"
	// StatusError marks a run that aborted.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 60s; a run is one pass over one log.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// RunMetrics holds the OTel instruments recorded by one extraction run.
type RunMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	errorsTotal  metric.Int64Counter
	samplesTotal metric.Int64Counter
	emptyTotal   metric.Int64Counter
}

// NewRunMetrics creates run instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Total number of extraction runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Extraction run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed runs"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	samples, err := mt.Int64Counter(metricSamplesTotal,
		metric.WithDescription("Total number of values extracted per metric"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSamplesTotal, err)
	}

	empty, err := mt.Int64Counter(metricEmptyTotal,
		metric.WithDescription("Total number of selected metrics with no matches"),
		metric.WithUnit("{metric}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEmptyTotal, err)
	}

	return &RunMetrics{
		runsTotal:    runs,
		runDuration:  duration,
		errorsTotal:  errTotal,
		samplesTotal: samples,
		emptyTotal:   empty,
	}, nil
}

// RecordRun records a finished run with its status and duration.
func (rm *RunMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	rm.runsTotal.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1)
	}
}

// RecordMetric records how many values one metric produced.
func (rm *RunMetrics) RecordMetric(ctx context.Context, key string, samples int) {
	attrs := metric.WithAttributes(attribute.String(attrMetric, key))

	rm.samplesTotal.Add(ctx, int64(samples), attrs)

	if samples == 0 {
		rm.emptyTotal.Add(ctx, 1, attrs)
	}
}
