// Package timeaxis derives a seconds-since-log-start axis from the interval and
// uptime headers of periodic statistics dumps and pairs metric samples with it.
package timeaxis

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Sumatoshi-tech/rdbstat/pkg/logfile"
	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
)

// DefaultHeadersPerCycle is how many Uptime(secs) headers one reporting cycle prints.
const DefaultHeadersPerCycle = 2

const roundScale = 100

var (
	// ErrEmptySeries indicates an axis prerequisite matched nothing.
	ErrEmptySeries = errors.New("empty series")
	// ErrMalformedValue indicates a captured token is not a number.
	ErrMalformedValue = errors.New("malformed value")
)

// EmptySeriesError names the axis prerequisite that matched zero times.
type EmptySeriesError struct {
	Metric string
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("%s: %s matched nothing, cannot build time axis", ErrEmptySeries, e.Metric)
}

// Unwrap returns ErrEmptySeries.
func (e *EmptySeriesError) Unwrap() error {
	return ErrEmptySeries
}

// Axis holds one offset in seconds per reporting cycle.
type Axis []float64

// Options tunes axis computation.
type Options struct {
	// HeadersPerCycle is the sampling stride over the raw header matches.
	HeadersPerCycle int
}

// Raw holds the header matches an axis is computed from.
type Raw struct {
	Intervals []string
	Uptimes   []string
}

// Aligned reports whether both raw sequences are a whole number of cycles.
func (r Raw) Aligned(stride int) bool {
	if stride <= 1 {
		return true
	}

	return len(r.Intervals)%stride == 0 && len(r.Uptimes)%stride == 0
}

// ExtractRaw pulls the interval step and uptime header values out of content.
func ExtractRaw(content string) Raw {
	return Raw{
		Intervals: logfile.Extract(registry.IntervalStep.Pattern, content),
		Uptimes:   logfile.Extract(registry.Uptime.Pattern, content),
	}
}

// Compute extracts the headers from content and builds the axis.
func Compute(content string, opts Options) (Axis, error) {
	return FromRaw(ExtractRaw(content), opts)
}

// FromRaw builds the axis from already extracted header values.
//
// The cumulative interval sum starts at the first interval's duration, so the
// first cycle sits at that duration rather than at zero.
func FromRaw(raw Raw, opts Options) (Axis, error) {
	stride := opts.HeadersPerCycle
	if stride <= 0 {
		stride = DefaultHeadersPerCycle
	}

	intervals, err := parseFloats(EveryNth(raw.Intervals, stride))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", registry.IntervalStep.Key, err)
	}

	if len(intervals) == 0 {
		return nil, &EmptySeriesError{Metric: registry.IntervalStep.Key}
	}

	uptimes, err := parseFloats(EveryNth(raw.Uptimes, stride))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", registry.Uptime.Key, err)
	}

	if len(uptimes) == 0 {
		return nil, &EmptySeriesError{Metric: registry.Uptime.Key}
	}

	cumulative := CumulativeSum(intervals)
	offset := uptimes[0] - cumulative[0]

	axis := make(Axis, len(uptimes))
	for i, up := range uptimes {
		axis[i] = Round2(up - offset)
	}

	return axis, nil
}

// EveryNth returns values[0], values[n], values[2n], ...
func EveryNth(values []string, n int) []string {
	if n <= 1 {
		return values
	}

	out := make([]string, 0, (len(values)+n-1)/n)
	for i := 0; i < len(values); i += n {
		out = append(out, values[i])
	}

	return out
}

// CumulativeSum returns the running sum with each partial sum rounded to two
// decimals. The accumulator itself is not rounded.
func CumulativeSum(values []float64) []float64 {
	out := make([]float64, len(values))

	var acc float64

	for i, v := range values {
		acc += v
		out[i] = Round2(acc)
	}

	return out
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*roundScale) / roundScale
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))

	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedValue, tok)
		}

		out[i] = v
	}

	return out, nil
}
