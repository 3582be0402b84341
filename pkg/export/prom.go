package export

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
)

// PromSuffix is the file suffix of the Prometheus textfile.
const PromSuffix = ".prom"

const (
	promNamespace = "rdbstat"

	labelLog    = "log"
	labelMetric = "metric"
	labelUnit   = "unit"
	labelStat   = "stat"
)

// WritePrometheus writes the summaries in the node_exporter textfile format as
// "{dir}/{base}.prom". Metrics without numeric samples only export their count.
func WritePrometheus(dir string, ds *Dataset) (string, error) {
	reg := prometheus.NewRegistry()

	values := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "metric_value",
		Help:      "Summary statistics of a metric extracted from a statistics dump.",
	}, []string{labelLog, labelMetric, labelUnit, labelStat})

	samples := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "metric_samples",
		Help:      "Number of samples extracted for a metric.",
	}, []string{labelLog, labelMetric})

	cycles := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "reporting_cycles",
		Help:      "Number of reporting cycles found in the log.",
	}, []string{labelLog})

	reg.MustRegister(values, samples, cycles)

	cycles.WithLabelValues(ds.BaseName).Set(float64(len(ds.Axis)))

	for _, m := range ds.Metrics {
		samples.WithLabelValues(ds.BaseName, m.Key).Set(float64(m.Summary.Count))

		if m.Summary.Empty() {
			continue
		}

		stat := map[string]float64{
			"last": m.Summary.Last,
			"min":  m.Summary.Min,
			"max":  m.Summary.Max,
			"mean": m.Summary.Mean,
			"p50":  m.Summary.P50,
			"p95":  m.Summary.P95,
			"p99":  m.Summary.P99,
		}

		for name, v := range stat {
			values.WithLabelValues(ds.BaseName, m.Key, m.Unit, name).Set(v)
		}
	}

	path := ArtifactPath(dir, ds.BaseName, PromSuffix)

	writeErr := prometheus.WriteToTextfile(path, reg)
	if writeErr != nil {
		return "", logfile.NewIOError("write", path, fmt.Errorf("prometheus textfile: %w", writeErr))
	}

	return path, nil
}
