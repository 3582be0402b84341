package stats_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rdbstat/pkg/stats"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	values := make([]string, 0, 100)
	for i := 1; i <= 100; i++ {
		values = append(values, strconv.Itoa(i))
	}

	sum, err := stats.Summarize(values)
	require.NoError(t, err)

	assert.Equal(t, 100, sum.Count)
	assert.Zero(t, sum.Invalid)
	assert.InDelta(t, 1.0, sum.Min, 0)
	assert.InDelta(t, 100.0, sum.Max, 0)
	assert.InDelta(t, 50.5, sum.Mean, 1e-9)
	assert.InDelta(t, 100.0, sum.Last, 0)
	assert.InEpsilon(t, 50.0, sum.P50, 0.03)
	assert.InEpsilon(t, 95.0, sum.P95, 0.03)
	assert.InEpsilon(t, 99.0, sum.P99, 0.03)
	assert.False(t, sum.Empty())
}

func TestSummarize_SkipsInvalid(t *testing.T) {
	t.Parallel()

	sum, err := stats.Summarize([]string{"1.5", ".", "2.5"})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 1, sum.Invalid)
	assert.InDelta(t, 2.0, sum.Mean, 1e-9)
	assert.InDelta(t, 2.5, sum.Last, 0)
}

func TestSummarize_Zeros(t *testing.T) {
	t.Parallel()

	sum, err := stats.Summarize([]string{"0.0", "0.0", "0.0"})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Count)
	assert.Zero(t, sum.Max)
	assert.Zero(t, sum.P99)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	sum, err := stats.Summarize(nil)
	require.NoError(t, err)

	assert.True(t, sum.Empty())
	assert.Zero(t, sum.Min)
	assert.Zero(t, sum.Max)
}
