package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
)

//go:embed metrics.schema.json
var metricsSchema []byte

// CustomMetric is a user-defined metric appended after the built-in registry.
type CustomMetric struct {
	Key     string `mapstructure:"key"`
	Name    string `mapstructure:"name"`
	Pattern string `mapstructure:"pattern"`
	Unit    string `mapstructure:"unit"`
	Timed   bool   `mapstructure:"timed"`
}

// validateCustomMetrics checks the raw "metrics" section against the embedded schema.
func validateCustomMetrics(raw any) error {
	if raw == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(metricsSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCustomMetric, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidCustomMetric, strings.Join(problems, "; "))
}

// CustomSpecs compiles the configured custom metrics.
func (c *Config) CustomSpecs() ([]registry.MetricSpec, error) {
	specs := make([]registry.MetricSpec, 0, len(c.Metrics))

	for _, m := range c.Metrics {
		spec, err := registry.NewSpec(m.Key, m.Name, m.Pattern, m.Unit, m.Timed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCustomMetric, err)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// Registry returns the built-in registry extended with the custom metrics.
func (c *Config) Registry() (*registry.Registry, error) {
	custom, err := c.CustomSpecs()
	if err != nil {
		return nil, err
	}

	if len(custom) == 0 {
		return registry.Default(), nil
	}

	reg, err := registry.Default().Extend(custom...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCustomMetric, err)
	}

	return reg, nil
}
