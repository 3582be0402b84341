package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultOutputDir       = "output"
	DefaultWorkers         = 1
	DefaultMaxLogSize      = "256MiB"
	DefaultHeadersPerCycle = 2
	DefaultPlotWidth       = `0.5\textwidth`
	DefaultPlotYLabel      = "MB/s"
	DefaultPlotYMin        = 0.0
	DefaultPlotYMax        = 250.0
	DefaultPlotYTickStep   = 50.0
	DefaultLegendColumns   = 1
	DefaultTheme           = "dark"
	DefaultLogLevel        = "info"
)

// Logging formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const keyMetrics = "metrics"

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Output defaults.
	viperCfg.SetDefault("output.dir", DefaultOutputDir)
	viperCfg.SetDefault("output.formats", []string{})

	// Engine defaults.
	viperCfg.SetDefault("engine.workers", DefaultWorkers)
	viperCfg.SetDefault("engine.max_log_size", DefaultMaxLogSize)

	// Axis defaults.
	viperCfg.SetDefault("axis.headers_per_cycle", DefaultHeadersPerCycle)
	viperCfg.SetDefault("axis.fallback_to_index", false)

	// Plot defaults.
	viperCfg.SetDefault("plot.title", "")
	viperCfg.SetDefault("plot.ylabel", DefaultPlotYLabel)
	viperCfg.SetDefault("plot.width", DefaultPlotWidth)
	viperCfg.SetDefault("plot.theme", DefaultTheme)
	viperCfg.SetDefault("plot.ymin", DefaultPlotYMin)
	viperCfg.SetDefault("plot.ymax", DefaultPlotYMax)
	viperCfg.SetDefault("plot.ytick_step", DefaultPlotYTickStep)
	viperCfg.SetDefault("plot.legend_columns", DefaultLegendColumns)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", LogFormatText)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
}
