package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rdbstat/pkg/config"
	"github.com/Sumatoshi-tech/rdbstat/pkg/engine"
	"github.com/Sumatoshi-tech/rdbstat/pkg/observability"
	"github.com/Sumatoshi-tech/rdbstat/pkg/terminal"
	"github.com/Sumatoshi-tech/rdbstat/pkg/version"
)

type runExecutor func(ctx context.Context, eng *engine.Engine, path string, keys []string) (*engine.Report, error)

type configLoader func(path string) (*config.Config, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	metricKeys   []string
	formats      []string
	outputDir    string
	title        string
	workers      int
	axisFallback bool
	silent       bool
	noColor      bool

	exec       runExecutor
	loadConfig configLoader
	obsInit    observabilityInit
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(executeRun, config.LoadConfig, observability.Init)
}

func executeRun(ctx context.Context, eng *engine.Engine, path string, keys []string) (*engine.Report, error) {
	return eng.Run(ctx, path, keys)
}

func newRunCommandWithDeps(exec runExecutor, loadConfig configLoader, obsInit observabilityInit) *cobra.Command {
	rc := &RunCommand{
		exec:       exec,
		loadConfig: loadConfig,
		obsInit:    obsInit,
	}

	cmd := &cobra.Command{
		Use:   "run <log>",
		Short: "Extract metrics from a RocksDB LOG",
		Long: `Extract the selected metrics from a RocksDB LOG (optionally .lz4 compressed).

Writes {base}_{metric}.csv per metric and {base}_coordinates.log with one
pgfplots \addplot block per metric, plus any formats requested with --format.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringSliceVarP(&rc.metricKeys, "metrics", "m", nil,
		"Metric keys to extract (default: all; see 'rdbstat metrics')")
	cmd.Flags().StringVarP(&rc.outputDir, "output", "o", "", "Output directory (default: output)")
	cmd.Flags().StringSliceVar(&rc.formats, "format", nil, "Extra formats: html, yaml, prom, parquet")
	cmd.Flags().StringVar(&rc.title, "title", "", "Coordinate document title (default: log base name)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Concurrent metric extraction (0 = config value)")
	cmd.Flags().BoolVar(&rc.axisFallback, "axis-fallback", false, "Plot by sample index when the LOG has no Uptime headers")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Suppress the saved-file listing")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := rc.loadConfig(stringFlag(cmd, flagConfig))
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg)

	providers, err := rc.obsInit(cfg.Observability(version.Version))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	maxSize, err := cfg.MaxLogSizeBytes()
	if err != nil {
		return err
	}

	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	opts := engine.Options{
		OutputDir:       cfg.Output.Dir,
		Title:           cfg.Plot.Title,
		Theme:           cfg.Plot.Theme,
		Formats:         cfg.Output.Formats,
		Layout:          cfg.Layout(),
		MaxLogSize:      maxSize,
		Workers:         cfg.Engine.Workers,
		HeadersPerCycle: cfg.Axis.HeadersPerCycle,
		AxisFallback:    cfg.Axis.FallbackToIndex,
	}

	eng := engine.New(reg, opts,
		engine.WithLogger(providers.Logger),
		engine.WithTracer(providers.Tracer),
		engine.WithRunMetrics(runMetrics),
	)

	report, err := rc.exec(cmd.Context(), eng, args[0], rc.metricKeys)
	if err != nil {
		return err
	}

	rc.print(cmd.OutOrStdout(), report, boolFlag(cmd, flagVerbose))

	return nil
}

// applyFlags overlays explicitly set flags on the loaded configuration.
func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output.Dir = rc.outputDir
	}

	if flags.Changed("format") {
		cfg.Output.Formats = rc.formats
	}

	if flags.Changed("title") {
		cfg.Plot.Title = rc.title
	}

	if rc.workers > 0 {
		cfg.Engine.Workers = rc.workers
	}

	if rc.axisFallback {
		cfg.Axis.FallbackToIndex = true
	}

	if level := stringFlag(cmd, flagLogLevel); level != "" {
		cfg.Logging.Level = level
	}

	if boolFlag(cmd, flagLogJSON) {
		cfg.Logging.Format = config.LogFormatJSON
	}
}

func (rc *RunCommand) print(w io.Writer, report *engine.Report, verbose bool) {
	if rc.silent {
		return
	}

	printer := terminal.NewPrinter(w, rc.noColor)
	printer.Warnings(report)
	printer.Saved(report)

	if verbose {
		printer.Summary(report)
	}
}
