// Package stats summarizes the numeric samples of one extracted metric.
package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/DataDog/sketches-go/ddsketch"
)

// RelativeAccuracy is the DDSketch quantile accuracy.
const RelativeAccuracy = 0.01

// Quantiles reported in every summary.
const (
	QuantileP50 = 0.50
	QuantileP95 = 0.95
	QuantileP99 = 0.99
)

// Summary describes the distribution of one metric's samples.
type Summary struct {
	Count   int     `yaml:"count"`
	Invalid int     `yaml:"invalid,omitempty"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Mean    float64 `yaml:"mean"`
	Last    float64 `yaml:"last"`
	P50     float64 `yaml:"p50"`
	P95     float64 `yaml:"p95"`
	P99     float64 `yaml:"p99"`
}

// Empty reports whether no numeric samples were seen.
func (s Summary) Empty() bool {
	return s.Count == 0
}

// Summarize parses values and computes their summary. Tokens that are not
// numbers are counted as Invalid and skipped.
func Summarize(values []string) (Summary, error) {
	var sum Summary

	sketch, err := ddsketch.NewDefaultDDSketch(RelativeAccuracy)
	if err != nil {
		return Summary{}, fmt.Errorf("create sketch: %w", err)
	}

	var total float64

	sum.Min = math.MaxFloat64
	sum.Max = -math.MaxFloat64

	for _, tok := range values {
		v, parseErr := strconv.ParseFloat(tok, 64)
		if parseErr != nil {
			sum.Invalid++

			continue
		}

		sum.Count++
		total += v
		sum.Min = min(sum.Min, v)
		sum.Max = max(sum.Max, v)
		sum.Last = v

		addErr := sketch.Add(v)
		if addErr != nil {
			return Summary{}, fmt.Errorf("add %v to sketch: %w", v, addErr)
		}
	}

	if sum.Count == 0 {
		return Summary{Invalid: sum.Invalid}, nil
	}

	sum.Mean = total / float64(sum.Count)

	quantiles, err := sketch.GetValuesAtQuantiles([]float64{QuantileP50, QuantileP95, QuantileP99})
	if err != nil {
		return Summary{}, fmt.Errorf("read quantiles: %w", err)
	}

	sum.P50, sum.P95, sum.P99 = quantiles[0], quantiles[1], quantiles[2]

	return sum, nil
}
