// Package engine runs one extraction pass over a RocksDB LOG: it resolves the
// requested metrics, builds the time axis, extracts every metric and writes the
// CSV files, the coordinate document and any extra formats.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/rdbstat/pkg/export"
	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
	"github.com/Sumatoshi-tech/rdbstat/pkg/observability"
	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
	"github.com/Sumatoshi-tech/rdbstat/pkg/stats"
	"github.com/Sumatoshi-tech/rdbstat/pkg/tikz"
	"github.com/Sumatoshi-tech/rdbstat/pkg/timeaxis"
)

// DefaultOutputDir is where artifacts go when Options.OutputDir is empty.
const DefaultOutputDir = "output"

// Options configures a run.
type Options struct {
	// OutputDir receives every artifact. Created if missing.
	OutputDir string
	// Title is the coordinate document title. Empty uses the log base name.
	Title string
	// Theme selects the HTML page theme.
	Theme string
	// Formats lists the optional export formats.
	Formats []string
	// Layout is the coordinate document axis layout.
	Layout tikz.Layout
	// MaxLogSize rejects larger logs. Zero disables the limit.
	MaxLogSize uint64
	// Workers bounds concurrent metric extraction.
	Workers int
	// HeadersPerCycle is the Uptime(secs) header stride per reporting cycle.
	HeadersPerCycle int
	// AxisFallback pairs every metric by index when the time axis cannot be built.
	AxisFallback bool
}

// DefaultOptions returns the options of a plain run.
func DefaultOptions() Options {
	return Options{
		OutputDir:       DefaultOutputDir,
		Layout:          tikz.DefaultLayout(),
		Workers:         1,
		HeadersPerCycle: timeaxis.DefaultHeadersPerCycle,
	}
}

// MetricResult is what one metric produced.
type MetricResult struct {
	Key         string
	DisplayName string
	Unit        string
	Values      []string
	Series      timeaxis.Series
	Summary     stats.Summary
	CSVPath     string
}

// Report describes a finished run.
type Report struct {
	Source    string
	BaseName  string
	OutputDir string
	Axis      timeaxis.Axis
	// AxisFallback is set when the axis could not be built and metrics were
	// paired by index instead.
	AxisFallback bool
	Metrics      []MetricResult
	// Ignored lists requested keys that are not in the registry.
	Ignored         []string
	CoordinatesPath string
	// Exports maps each extra format to its written file.
	Exports map[string]string
}

// Artifacts returns every written path in write order.
func (r *Report) Artifacts() []string {
	paths := make([]string, 0, len(r.Metrics)+1+len(r.Exports))

	for _, m := range r.Metrics {
		paths = append(paths, m.CSVPath)
	}

	paths = append(paths, r.CoordinatesPath)

	for _, format := range export.Formats() {
		if p, ok := r.Exports[format]; ok {
			paths = append(paths, p)
		}
	}

	return paths
}

// Engine executes runs against a metric registry.
type Engine struct {
	registry *registry.Registry
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.RunMetrics
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer sets the tracer used for run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithRunMetrics sets the OTel run instruments.
func WithRunMetrics(rm *observability.RunMetrics) Option {
	return func(e *Engine) { e.metrics = rm }
}

// New creates an Engine. A nil registry uses the built-in one.
func New(reg *registry.Registry, opts Options, options ...Option) *Engine {
	if reg == nil {
		reg = registry.Default()
	}

	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}

	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	if opts.HeadersPerCycle <= 0 {
		opts.HeadersPerCycle = timeaxis.DefaultHeadersPerCycle
	}

	e := &Engine{
		registry: reg,
		opts:     opts,
		logger:   slog.Default(),
		tracer:   nooptrace.NewTracerProvider().Tracer("rdbstat"),
	}

	for _, o := range options {
		o(e)
	}

	return e
}

// Registry returns the registry the engine selects from.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Run extracts the metrics named by keys from the log at path. Empty keys
// selects every registered metric. Configuration problems are reported before
// the log is opened; a missing time axis is reported before anything is written.
func (e *Engine) Run(ctx context.Context, path string, keys []string) (*Report, error) {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "rdbstat.run", trace.WithAttributes(
		attribute.String("rdbstat.log", path),
		attribute.Int("rdbstat.workers", e.opts.Workers),
	))
	defer span.End()

	report, err := e.run(ctx, path, keys)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if e.metrics != nil {
		e.metrics.RecordRun(ctx, status, time.Since(start))
	}

	return report, err
}

func (e *Engine) run(ctx context.Context, path string, keys []string) (*Report, error) {
	specs, err := e.registry.Select(keys)
	if err != nil {
		return nil, err
	}

	formats, err := export.ValidateFormats(e.opts.Formats)
	if err != nil {
		return nil, err
	}

	ignored := e.registry.Unknown(keys)
	if len(ignored) > 0 {
		e.logger.WarnContext(ctx, "ignoring unknown metric keys", "keys", ignored)
	}

	content, err := logfile.Read(path, e.opts.MaxLogSize)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Source:    path,
		BaseName:  logfile.BaseName(path),
		OutputDir: e.opts.OutputDir,
		Ignored:   ignored,
		Exports:   make(map[string]string, len(formats)),
	}

	axis, err := e.buildAxis(ctx, content)
	if err != nil {
		return nil, err
	}

	report.Axis = axis
	report.AxisFallback = axis == nil

	results, err := e.extractAll(ctx, specs, content, axis)
	if err != nil {
		return nil, err
	}

	err = e.write(ctx, report, results)
	if err != nil {
		return nil, err
	}

	err = e.writeFormats(ctx, report, formats)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// buildAxis returns nil when the axis is missing and fallback is enabled.
func (e *Engine) buildAxis(ctx context.Context, content string) (timeaxis.Axis, error) {
	_, span := e.tracer.Start(ctx, "rdbstat.axis")
	defer span.End()

	raw := timeaxis.ExtractRaw(content)
	if !raw.Aligned(e.opts.HeadersPerCycle) {
		e.logger.WarnContext(ctx, "header count is not a whole number of reporting cycles",
			"interval_headers", len(raw.Intervals),
			"uptime_headers", len(raw.Uptimes),
			"headers_per_cycle", e.opts.HeadersPerCycle)
	}

	axis, err := timeaxis.FromRaw(raw, timeaxis.Options{HeadersPerCycle: e.opts.HeadersPerCycle})
	if err == nil {
		span.SetAttributes(attribute.Int("rdbstat.cycles", len(axis)))

		return axis, nil
	}

	if e.opts.AxisFallback && errors.Is(err, timeaxis.ErrEmptySeries) {
		e.logger.WarnContext(ctx, "time axis unavailable, pairing every metric by sample index", "error", err)

		return nil, nil
	}

	return nil, err
}

type extraction struct {
	csv    string
	block  string
	result MetricResult
}

func (e *Engine) extractAll(
	ctx context.Context, specs []registry.MetricSpec, content string, axis timeaxis.Axis,
) ([]extraction, error) {
	results := make([]extraction, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, spec := range specs {
		g.Go(func() error {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}

			csv, block, result, err := processMetric(spec, content, axis)
			if err != nil {
				return fmt.Errorf("metric %s: %w", spec.Key, err)
			}

			results[i] = extraction{csv: csv, block: block, result: result}

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// processMetric extracts one metric and renders its CSV text and plot block.
// Timed metrics are paired with axis; the rest, or all when axis is nil, by index.
func processMetric(
	spec registry.MetricSpec, content string, axis timeaxis.Axis,
) (csvText, block string, result MetricResult, err error) {
	values := logfile.Extract(spec.Pattern, content)

	var pairAxis timeaxis.Axis
	if spec.Timed {
		pairAxis = axis
	}

	series := timeaxis.Pair(values, pairAxis)

	block, err = tikz.RenderSeries(series)
	if err != nil {
		return "", "", MetricResult{}, err
	}

	summary, err := stats.Summarize(values)
	if err != nil {
		return "", "", MetricResult{}, err
	}

	result = MetricResult{
		Key:         spec.Key,
		DisplayName: spec.DisplayName,
		Unit:        spec.Unit,
		Values:      values,
		Series:      series,
		Summary:     summary,
	}

	return export.FormatCSV(values), block, result, nil
}

func (e *Engine) write(ctx context.Context, report *Report, results []extraction) error {
	err := export.EnsureDir(report.OutputDir)
	if err != nil {
		return err
	}

	title := e.opts.Title
	if title == "" {
		title = report.BaseName
	}

	doc := tikz.NewDocument(title, e.opts.Layout)
	report.Metrics = make([]MetricResult, 0, len(results))

	for _, ex := range results {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		csvPath, writeErr := export.WriteCSV(report.OutputDir, report.BaseName, ex.result.Key, ex.csv)
		if writeErr != nil {
			return writeErr
		}

		ex.result.CSVPath = csvPath
		report.Metrics = append(report.Metrics, ex.result)
		doc.AddBlock(ex.result.DisplayName, ex.block)

		if len(ex.result.Values) == 0 {
			e.logger.WarnContext(ctx, "metric matched nothing", "metric", ex.result.Key)
		}

		e.logger.DebugContext(ctx, "saved", "metric", ex.result.Key, "path", csvPath,
			"values", len(ex.result.Values))

		if e.metrics != nil {
			e.metrics.RecordMetric(ctx, ex.result.Key, len(ex.result.Values))
		}
	}

	coordPath, err := export.WriteCoordinates(report.OutputDir, report.BaseName, doc)
	if err != nil {
		return err
	}

	report.CoordinatesPath = coordPath

	e.logger.DebugContext(ctx, "saved", "artifact", "coordinates", "path", coordPath)

	return nil
}

func (e *Engine) writeFormats(ctx context.Context, report *Report, formats []string) error {
	if len(formats) == 0 {
		return nil
	}

	ds := report.Dataset()

	for _, format := range formats {
		path, err := export.Write(format, report.OutputDir, ds, export.Options{Theme: e.opts.Theme})
		if err != nil {
			return fmt.Errorf("export %s: %w", format, err)
		}

		report.Exports[format] = path

		e.logger.DebugContext(ctx, "saved", "artifact", format, "path", path)
	}

	return nil
}

// Dataset converts the report into the export representation.
func (r *Report) Dataset() *export.Dataset {
	ds := &export.Dataset{
		BaseName: r.BaseName,
		Source:   r.Source,
		Axis:     r.Axis,
		Metrics:  make([]export.Metric, len(r.Metrics)),
	}

	for i, m := range r.Metrics {
		ds.Metrics[i] = export.Metric{
			Key:         m.Key,
			DisplayName: m.DisplayName,
			Unit:        m.Unit,
			Values:      m.Values,
			Series:      m.Series,
			Summary:     m.Summary,
		}
	}

	return ds
}
