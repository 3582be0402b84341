// Package config provides configuration loading and validation for rdbstat.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/rdbstat/pkg/export"
	"github.com/Sumatoshi-tech/rdbstat/pkg/observability"
	"github.com/Sumatoshi-tech/rdbstat/pkg/tikz"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers         = errors.New("engine workers must be positive")
	ErrInvalidMaxLogSize      = errors.New("invalid max log size")
	ErrInvalidHeadersPerCycle = errors.New("axis headers per cycle must be positive")
	ErrInvalidPlotRange       = errors.New("plot ymax must be greater than ymin")
	ErrInvalidLogFormat       = errors.New("logging format must be text or json")
	ErrInvalidSampleRatio     = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidCustomMetric    = errors.New("invalid custom metric")
)

// Config holds all configuration for an rdbstat run.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Axis      AxisConfig      `mapstructure:"axis"`
	Plot      PlotConfig      `mapstructure:"plot"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   []CustomMetric  `mapstructure:"metrics"`
}

// OutputConfig holds artifact destination settings.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
}

// EngineConfig holds extraction settings.
type EngineConfig struct {
	MaxLogSize string `mapstructure:"max_log_size"`
	Workers    int    `mapstructure:"workers"`
}

// AxisConfig holds time axis settings.
type AxisConfig struct {
	HeadersPerCycle int  `mapstructure:"headers_per_cycle"`
	FallbackToIndex bool `mapstructure:"fallback_to_index"`
}

// PlotConfig holds the coordinate document and chart page layout.
type PlotConfig struct {
	Title         string  `mapstructure:"title"`
	YLabel        string  `mapstructure:"ylabel"`
	Width         string  `mapstructure:"width"`
	Theme         string  `mapstructure:"theme"`
	YMin          float64 `mapstructure:"ymin"`
	YMax          float64 `mapstructure:"ymax"`
	YTickStep     float64 `mapstructure:"ytick_step"`
	LegendColumns int     `mapstructure:"legend_columns"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for rdbstat.yaml in the usual places and
// falls back to defaults when none exists.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("rdbstat")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/rdbstat")
	}

	viperCfg.SetEnvPrefix("RDBSTAT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	schemaErr := validateCustomMetrics(viperCfg.Get(keyMetrics))
	if schemaErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", schemaErr)
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Engine.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Engine.Workers)
	}

	_, sizeErr := config.MaxLogSizeBytes()
	if sizeErr != nil {
		return sizeErr
	}

	if config.Axis.HeadersPerCycle <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHeadersPerCycle, config.Axis.HeadersPerCycle)
	}

	if config.Plot.YMax <= config.Plot.YMin {
		return fmt.Errorf("%w: ymin=%v ymax=%v", ErrInvalidPlotRange, config.Plot.YMin, config.Plot.YMax)
	}

	switch config.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	formats, formatErr := export.ValidateFormats(config.Output.Formats)
	if formatErr != nil {
		return formatErr
	}

	config.Output.Formats = formats

	return nil
}

// MaxLogSizeBytes parses Engine.MaxLogSize ("64MiB", "1GB"). Zero means unlimited.
func (c *Config) MaxLogSizeBytes() (uint64, error) {
	raw := strings.TrimSpace(c.Engine.MaxLogSize)
	if raw == "" || raw == "0" {
		return 0, nil
	}

	size, parseErr := humanize.ParseBytes(raw)
	if parseErr != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxLogSize, raw, parseErr)
	}

	return size, nil
}

// Layout returns the coordinate document layout.
func (c *Config) Layout() tikz.Layout {
	return tikz.Layout{
		Width:         c.Plot.Width,
		YLabel:        c.Plot.YLabel,
		YMin:          c.Plot.YMin,
		YMax:          c.Plot.YMax,
		YTickStep:     c.Plot.YTickStep,
		LegendColumns: c.Plot.LegendColumns,
	}
}

// Observability maps the logging and telemetry sections onto an
// observability.Config for the given binary version.
func (c *Config) Observability(version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.LogLevel = observability.ParseLevel(c.Logging.Level)
	obs.LogJSON = c.Logging.Format == LogFormatJSON

	return obs
}
