package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rdbstat/pkg/registry"
)

func TestDefault_AllSpecsValid(t *testing.T) {
	t.Parallel()

	reg := registry.Default()
	require.Positive(t, reg.Len())

	for _, spec := range reg.Specs() {
		require.NoError(t, spec.Validate(), spec.Key)
		assert.NotEmpty(t, spec.DisplayName)
		assert.NotEmpty(t, spec.Unit)
	}
}

func TestDefault_Order(t *testing.T) {
	t.Parallel()

	keys := registry.Default().Keys()

	assert.Equal(t, "interval_stall", keys[0])
	assert.Less(t, indexOf(keys, "interval_stall"), indexOf(keys, "cumulative_writes"))
	assert.Less(t, indexOf(keys, "interval_writes"), indexOf(keys, "cumulative_writes"))
}

func TestSelect_EmptyMeansAll(t *testing.T) {
	t.Parallel()

	reg := registry.Default()

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, reg.Len())

	blank, err := reg.Select([]string{" ", ""})
	require.NoError(t, err)
	assert.Len(t, blank, reg.Len())
}

func TestSelect_PreservesRegistryOrder(t *testing.T) {
	t.Parallel()

	selected, err := registry.Default().Select([]string{"cumulative_writes", "interval_stall"})
	require.NoError(t, err)
	require.Len(t, selected, 2)

	assert.Equal(t, "interval_stall", selected[0].Key)
	assert.Equal(t, "cumulative_writes", selected[1].Key)
}

func TestSelect_DisjointIsConfigurationError(t *testing.T) {
	t.Parallel()

	reg := registry.Default()

	_, err := reg.Select([]string{"does_not_exist"})
	require.Error(t, err)
	require.ErrorIs(t, err, registry.ErrConfiguration)

	var cfgErr *registry.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"does_not_exist"}, cfgErr.Requested)
	assert.Equal(t, reg.Keys(), cfgErr.Valid)
	assert.Contains(t, err.Error(), "interval_writes")
}

func TestSelect_PartialOverlap(t *testing.T) {
	t.Parallel()

	reg := registry.Default()
	keys := []string{"nope", "interval_writes"}

	selected, err := reg.Select(keys)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "interval_writes", selected[0].Key)
	assert.Equal(t, []string{"nope"}, reg.Unknown(keys))
}

func TestLookupAndAllKeys(t *testing.T) {
	t.Parallel()

	reg := registry.Default()

	spec, ok := reg.Lookup("interval_flush")
	require.True(t, ok)
	assert.Equal(t, "Interval Flush", spec.DisplayName)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	set := reg.AllKeys()
	assert.Len(t, set, reg.Len())
	assert.Contains(t, set, "cumulative_stall")
}

func TestNew_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	spec, err := registry.NewSpec("a", "A", `a(\d+)`, "count", true)
	require.NoError(t, err)

	_, err = registry.New(spec, spec)
	require.ErrorIs(t, err, registry.ErrDuplicateKey)
}

func TestNewSpec_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, key, display, pattern string
	}{
		{"empty pattern", "a", "A", ""},
		{"no group", "a", "A", `a\d+`},
		{"two groups", "a", "A", `(a)(\d+)`},
		{"bad regex", "a", "A", `(\d+`},
		{"empty name", "a", "", `a(\d+)`},
		{"empty key", "", "A", `a(\d+)`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.NewSpec(tc.key, tc.display, tc.pattern, "", true)
			require.ErrorIs(t, err, registry.ErrInvalidSpec)
		})
	}
}

func TestExtend_AppendsAfterBuiltins(t *testing.T) {
	t.Parallel()

	custom, err := registry.NewSpec("bloom_useful", "Bloom Useful", `rocksdb\.bloom\.filter\.useful COUNT : (\d+)`, "count", true)
	require.NoError(t, err)

	base := registry.Default()

	extended, err := base.Extend(custom)
	require.NoError(t, err)

	keys := extended.Keys()
	assert.Equal(t, "bloom_useful", keys[len(keys)-1])
	assert.Equal(t, base.Len()+1, extended.Len())

	_, err = base.Extend(base.Specs()[0])
	require.ErrorIs(t, err, registry.ErrDuplicateKey)
}

func TestFlushPatternsOverlap(t *testing.T) {
	t.Parallel()

	line := "Flush(GB): cumulative 0.123, interval 0.045\n"
	reg := registry.Default()

	cumulative, _ := reg.Lookup("cumulative_flush")
	interval, _ := reg.Lookup("interval_flush")

	assert.Equal(t, "0.123", cumulative.Pattern.FindStringSubmatch(line)[1])
	assert.Equal(t, "0.045", interval.Pattern.FindStringSubmatch(line)[1])
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}

	return -1
}
