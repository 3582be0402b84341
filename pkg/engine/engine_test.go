package engine_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/rdbstat/pkg/engine"
	"github.com/Sumatoshi-tech/rdbstat/pkg/export"
	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
	"github.com/Sumatoshi-tech/rdbstat/pkg/observability"
	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
	"github.com/Sumatoshi-tech/rdbstat/pkg/timeaxis"
)

const (
	fixtureLog    = "testdata/LOG"
	fixtureNoAxis = "testdata/LOG_noaxis"
)

func newEngine(t *testing.T, dir string, mutate func(*engine.Options)) *engine.Engine {
	t.Helper()

	opts := engine.DefaultOptions()
	opts.OutputDir = dir

	if mutate != nil {
		mutate(&opts)
	}

	return engine.New(nil, opts, engine.WithLogger(slog.New(slog.DiscardHandler)))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestRun_WritesCSVAndCoordinates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	report, err := newEngine(t, dir, nil).Run(context.Background(), fixtureLog,
		[]string{"interval_writes", "interval_stall"})
	require.NoError(t, err)

	assert.Equal(t, "LOG", report.BaseName)
	assert.Equal(t, timeaxis.Axis{5, 15, 25}, report.Axis)
	assert.False(t, report.AxisFallback)

	assert.Equal(t, "2.00,3.00,4.00", readFile(t, filepath.Join(dir, "LOG_interval_writes.csv")))
	assert.Equal(t, "0.0,1.5,0.0", readFile(t, filepath.Join(dir, "LOG_interval_stall.csv")))

	coords := readFile(t, filepath.Join(dir, "LOG_coordinates.log"))
	assert.Contains(t, coords, "\\addplot\n\tcoordinates { (0,0.0) (1,1.5) (2,0.0) };\n")
	assert.Contains(t, coords, "\\addplot\n\tcoordinates { (5.0,2.00) (15.0,3.00) (25.0,4.00) };\n")
	assert.Contains(t, coords, "\\legend{Interval Stall, Interval Writes}")
	assert.Contains(t, coords, "title={LOG}")
}

// Registry order wins over request order for files, blocks and legend.
func TestRun_RegistryOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	report, err := newEngine(t, dir, nil).Run(context.Background(), fixtureLog,
		[]string{"cumulative_writes", "interval_stall"})
	require.NoError(t, err)

	require.Len(t, report.Metrics, 2)
	assert.Equal(t, "interval_stall", report.Metrics[0].Key)
	assert.Equal(t, "cumulative_writes", report.Metrics[1].Key)

	coords := readFile(t, report.CoordinatesPath)
	assert.Less(t, strings.Index(coords, "(0,0.0)"), strings.Index(coords, "(5.0,1.50)"))
	assert.Contains(t, coords, "\\legend{Interval Stall, Cumulative Writes}")
}

func TestRun_AllMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	report, err := newEngine(t, dir, nil).Run(context.Background(), fixtureLog, nil)
	require.NoError(t, err)

	reg := registry.Default()
	require.Len(t, report.Metrics, reg.Len())

	for i, key := range reg.Keys() {
		assert.Equal(t, key, report.Metrics[i].Key)
		assert.FileExists(t, filepath.Join(dir, "LOG_"+key+".csv"))
	}

	assert.Equal(t, "0.100,0.200,0.300", readFile(t, filepath.Join(dir, "LOG_cumulative_flush.csv")))
	assert.Equal(t, "0.050,0.100,0.100", readFile(t, filepath.Join(dir, "LOG_interval_flush.csv")))
	assert.Equal(t, "2,3,1", readFile(t, filepath.Join(dir, "LOG_l0_files.csv")))
	assert.Equal(t, "0,1,1", readFile(t, filepath.Join(dir, "LOG_l0_slowdown_stalls.csv")))

	assert.Len(t, report.Artifacts(), reg.Len()+1)
}

// A metric without matches still gets an empty CSV, an empty block and a
// legend entry, and the run succeeds.
func TestRun_EmptyMetric(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	report, err := newEngine(t, dir, nil).Run(context.Background(), fixtureLog,
		[]string{"interval_writes", "get_p99"})
	require.NoError(t, err)

	assert.Empty(t, readFile(t, filepath.Join(dir, "LOG_get_p99.csv")))
	assert.True(t, report.Metrics[1].Summary.Empty())

	coords := readFile(t, report.CoordinatesPath)
	assert.Contains(t, coords, "\\addplot\n\tcoordinates {  };\n")
	assert.Contains(t, coords, "\\legend{Interval Writes, Get P99 Latency}")
}

// Without Uptime headers the run fails before anything is written.
func TestRun_MissingAxisWritesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")

	_, err := newEngine(t, dir, nil).Run(context.Background(), fixtureNoAxis, []string{"interval_writes"})
	require.ErrorIs(t, err, timeaxis.ErrEmptySeries)

	var emptyErr *timeaxis.EmptySeriesError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "interval_step", emptyErr.Metric)

	assert.NoDirExists(t, dir)
}

func TestRun_AxisFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var logs bytes.Buffer

	opts := engine.DefaultOptions()
	opts.OutputDir = dir
	opts.AxisFallback = true

	eng := engine.New(nil, opts, engine.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	report, err := eng.Run(context.Background(), fixtureNoAxis, []string{"interval_writes"})
	require.NoError(t, err)

	assert.True(t, report.AxisFallback)
	assert.Nil(t, report.Axis)
	assert.True(t, report.Metrics[0].Series.Indexed)
	assert.Contains(t, readFile(t, report.CoordinatesPath), "(0,2.00) (1,3.00) (2,4.00)")
	assert.Contains(t, logs.String(), "time axis unavailable")
}

// A requested set with no registered key fails before the log is touched.
func TestRun_DisjointKeysTouchNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")

	_, err := newEngine(t, dir, nil).Run(context.Background(),
		filepath.Join(t.TempDir(), "does-not-exist"), []string{"bogus"})
	require.ErrorIs(t, err, registry.ErrConfiguration)

	var cfgErr *registry.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Valid, "interval_writes")

	assert.NoDirExists(t, dir)
}

func TestRun_PartialOverlapIgnoresUnknown(t *testing.T) {
	t.Parallel()

	report, err := newEngine(t, t.TempDir(), nil).Run(context.Background(), fixtureLog,
		[]string{"bogus", "interval_writes"})
	require.NoError(t, err)

	assert.Equal(t, []string{"bogus"}, report.Ignored)
	require.Len(t, report.Metrics, 1)
}

func TestRun_UnsupportedFormatTouchesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")

	_, err := newEngine(t, dir, func(o *engine.Options) { o.Formats = []string{"pdf"} }).
		Run(context.Background(), fixtureLog, nil)
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)

	assert.NoDirExists(t, dir)
}

func TestRun_MissingLog(t *testing.T) {
	t.Parallel()

	_, err := newEngine(t, t.TempDir(), nil).Run(context.Background(),
		filepath.Join(t.TempDir(), "LOG"), nil)
	require.ErrorIs(t, err, logfile.ErrIO)
}

func listOutputs(t *testing.T, dir string) map[string]string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	files := make(map[string]string, len(entries))
	for _, e := range entries {
		files[e.Name()] = readFile(t, filepath.Join(dir, e.Name()))
	}

	return files
}

// Repeated runs over the same log produce identical files.
func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	all := func(o *engine.Options) { o.Formats = export.Formats() }

	_, err := newEngine(t, first, all).Run(context.Background(), fixtureLog, nil)
	require.NoError(t, err)

	_, err = newEngine(t, second, all).Run(context.Background(), fixtureLog, nil)
	require.NoError(t, err)

	assert.Equal(t, listOutputs(t, first), listOutputs(t, second))
}

func TestRun_WorkersDoNotChangeOutput(t *testing.T) {
	t.Parallel()

	serial, parallel := t.TempDir(), t.TempDir()

	_, err := newEngine(t, serial, nil).Run(context.Background(), fixtureLog, nil)
	require.NoError(t, err)

	_, err = newEngine(t, parallel, func(o *engine.Options) { o.Workers = 8 }).
		Run(context.Background(), fixtureLog, nil)
	require.NoError(t, err)

	assert.Equal(t, listOutputs(t, serial), listOutputs(t, parallel))
}

func TestRun_ExtraFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	report, err := newEngine(t, dir, func(o *engine.Options) { o.Formats = export.Formats() }).
		Run(context.Background(), fixtureLog, []string{"interval_writes"})
	require.NoError(t, err)

	for _, name := range []string{"LOG_chart.html", "LOG_summary.yaml", "LOG.prom", "LOG_series.parquet"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	assert.Len(t, report.Exports, len(export.Formats()))
	assert.Len(t, report.Artifacts(), 2+len(export.Formats()))
}

func TestRun_CompressedLog(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile(fixtureLog)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "LOG.lz4")

	f, err := os.Create(path)
	require.NoError(t, err)

	zw := lz4.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dir := t.TempDir()

	report, err := newEngine(t, dir, nil).Run(context.Background(), path, []string{"interval_writes"})
	require.NoError(t, err)

	assert.Equal(t, "LOG", report.BaseName)
	assert.Equal(t, "2.00,3.00,4.00", readFile(t, filepath.Join(dir, "LOG_interval_writes.csv")))
}

func TestRun_SizeLimit(t *testing.T) {
	t.Parallel()

	_, err := newEngine(t, t.TempDir(), func(o *engine.Options) { o.MaxLogSize = 64 }).
		Run(context.Background(), fixtureLog, nil)
	require.ErrorIs(t, err, logfile.ErrTooLarge)
}

func TestRun_CustomTitleAndRegistry(t *testing.T) {
	t.Parallel()

	spec, err := registry.NewSpec("blob_count", "Blob Files", `Blob\sfile\scount:\s(\d+)`, registry.UnitFiles, true)
	require.NoError(t, err)

	reg, err := registry.Default().Extend(spec)
	require.NoError(t, err)

	opts := engine.DefaultOptions()
	opts.OutputDir = t.TempDir()
	opts.Title = "bench"

	report, err := engine.New(reg, opts).Run(context.Background(), fixtureLog, []string{"blob_count"})
	require.NoError(t, err)

	assert.Equal(t, "0,0,0", readFile(t, report.Metrics[0].CSVPath))
	assert.Contains(t, readFile(t, report.CoordinatesPath), "title={bench}")
}

func TestRun_MisalignedHeadersWarn(t *testing.T) {
	t.Parallel()

	content := "Uptime(secs): 10.0 total, 10.0 interval\n" +
		"Uptime(secs): 10.0 total, 10.0 interval\n" +
		"Uptime(secs): 20.0 total, 10.0 interval\n" +
		"Interval writes: 1 writes, ingest: 1.00 MB, 7.00 MB/s\n"

	path := filepath.Join(t.TempDir(), "LOG")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var logs bytes.Buffer

	opts := engine.DefaultOptions()
	opts.OutputDir = t.TempDir()

	eng := engine.New(nil, opts, engine.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	report, err := eng.Run(context.Background(), path, []string{"interval_writes"})
	require.NoError(t, err)

	assert.Equal(t, timeaxis.Axis{10, 20}, report.Axis)
	assert.Contains(t, logs.String(), "not a whole number of reporting cycles")
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := filepath.Join(t.TempDir(), "out")

	_, err := newEngine(t, dir, nil).Run(ctx, fixtureLog, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, dir)
}

func TestRun_RecordsRunMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	opts := engine.DefaultOptions()
	opts.OutputDir = t.TempDir()

	_, err = engine.New(nil, opts, engine.WithRunMetrics(rm)).
		Run(context.Background(), fixtureLog, []string{"interval_writes", "get_p99"})
	require.NoError(t, err)

	var data metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &data))

	names := make(map[string]bool)
	for _, sm := range data.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["rdbstat.runs.total"])
	assert.True(t, names["rdbstat.samples.total"])
	assert.True(t, names["rdbstat.metrics.empty.total"])
}
