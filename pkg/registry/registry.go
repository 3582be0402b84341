// Package registry holds the ordered table of metrics rdbstat knows how to
// extract from a storage engine statistics dump.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Sentinel registry errors.
var (
	// ErrConfiguration indicates the requested metric keys do not match the registry.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidSpec indicates a metric definition is incomplete.
	ErrInvalidSpec = errors.New("invalid metric spec")
	// ErrDuplicateKey indicates two metric definitions share a key.
	ErrDuplicateKey = errors.New("duplicate metric key")
)

const wantCaptureGroups = 1

// MetricSpec describes one extractable metric.
type MetricSpec struct {
	// Key is the stable identifier used in file names and on the command line.
	Key string
	// DisplayName is the human label used in legends.
	DisplayName string
	// Pattern captures exactly one numeric token per occurrence.
	Pattern *regexp.Regexp
	// Unit is the y-axis unit label.
	Unit string
	// Timed metrics are plotted against the time axis, others against the sample index.
	Timed bool
}

// NewSpec compiles pattern and returns a validated MetricSpec.
func NewSpec(key, displayName, pattern, unit string, timed bool) (MetricSpec, error) {
	if strings.TrimSpace(pattern) == "" {
		return MetricSpec{}, fmt.Errorf("%w: %s: empty pattern", ErrInvalidSpec, key)
	}

	re, compileErr := regexp.Compile(pattern)
	if compileErr != nil {
		return MetricSpec{}, fmt.Errorf("%w: %s: %w", ErrInvalidSpec, key, compileErr)
	}

	spec := MetricSpec{
		Key:         key,
		DisplayName: displayName,
		Pattern:     re,
		Unit:        unit,
		Timed:       timed,
	}

	validateErr := spec.Validate()
	if validateErr != nil {
		return MetricSpec{}, validateErr
	}

	return spec, nil
}

func mustSpec(key, displayName, pattern, unit string, timed bool) MetricSpec {
	spec, err := NewSpec(key, displayName, pattern, unit, timed)
	if err != nil {
		panic("registry: " + err.Error())
	}

	return spec
}

// Validate checks the MetricSpec invariants.
func (s MetricSpec) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidSpec)
	}

	if strings.TrimSpace(s.DisplayName) == "" {
		return fmt.Errorf("%w: %s: empty display name", ErrInvalidSpec, s.Key)
	}

	if s.Pattern == nil {
		return fmt.Errorf("%w: %s: empty pattern", ErrInvalidSpec, s.Key)
	}

	if s.Pattern.NumSubexp() != wantCaptureGroups {
		return fmt.Errorf("%w: %s: pattern must have exactly one capture group, has %d",
			ErrInvalidSpec, s.Key, s.Pattern.NumSubexp())
	}

	return nil
}

// ConfigurationError reports a requested key set that shares nothing with the registry.
type ConfigurationError struct {
	Requested []string
	Valid     []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: unknown metrics %s (valid: %s)",
		ErrConfiguration, strings.Join(e.Requested, ", "), strings.Join(e.Valid, ", "))
}

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// Registry is an ordered, read-only mapping from key to MetricSpec.
type Registry struct {
	specs []MetricSpec
	index map[string]int
}

// New builds a registry preserving the order of specs.
func New(specs ...MetricSpec) (*Registry, error) {
	r := &Registry{
		specs: make([]MetricSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for _, spec := range specs {
		validateErr := spec.Validate()
		if validateErr != nil {
			return nil, validateErr
		}

		if _, dup := r.index[spec.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, spec.Key)
		}

		r.index[spec.Key] = len(r.specs)
		r.specs = append(r.specs, spec)
	}

	return r, nil
}

// Extend returns a new registry with specs appended after the existing entries.
func (r *Registry) Extend(specs ...MetricSpec) (*Registry, error) {
	all := make([]MetricSpec, 0, len(r.specs)+len(specs))
	all = append(all, r.specs...)
	all = append(all, specs...)

	return New(all...)
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Lookup returns the spec registered under key.
func (r *Registry) Lookup(key string) (MetricSpec, bool) {
	i, ok := r.index[key]
	if !ok {
		return MetricSpec{}, false
	}

	return r.specs[i], true
}

// Keys returns the registered keys in registry order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.specs))
	for i, spec := range r.specs {
		keys[i] = spec.Key
	}

	return keys
}

// AllKeys returns the registered keys as a set.
func (r *Registry) AllKeys() map[string]struct{} {
	set := make(map[string]struct{}, len(r.specs))
	for _, spec := range r.specs {
		set[spec.Key] = struct{}{}
	}

	return set
}

// Specs returns every registered spec in registry order.
func (r *Registry) Specs() []MetricSpec {
	return slices.Clone(r.specs)
}

// Select filters the registry to keys, keeping registry order regardless of the
// order keys were given in. An empty keys slice selects everything.
func (r *Registry) Select(keys []string) ([]MetricSpec, error) {
	wanted := normalizeKeys(keys)
	if len(wanted) == 0 {
		return r.Specs(), nil
	}

	want := make(map[string]struct{}, len(wanted))
	for _, key := range wanted {
		want[key] = struct{}{}
	}

	selected := make([]MetricSpec, 0, len(wanted))

	for _, spec := range r.specs {
		if _, ok := want[spec.Key]; ok {
			selected = append(selected, spec)
		}
	}

	if len(selected) == 0 {
		return nil, &ConfigurationError{Requested: wanted, Valid: r.Keys()}
	}

	return selected, nil
}

// Unknown returns the requested keys that are not registered, in request order.
func (r *Registry) Unknown(keys []string) []string {
	var unknown []string

	for _, key := range normalizeKeys(keys) {
		if _, ok := r.index[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	return unknown
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))

	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || slices.Contains(out, trimmed) {
			continue
		}

		out = append(out, trimmed)
	}

	return out
}
