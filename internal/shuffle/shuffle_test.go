package shuffle

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMappingInvariant(t *testing.T) {
	original := []string{"A", "B", "C", "D", "E"}
	for i := 0; i < 200; i++ {
		shuffled, mapping := WithMapping(original)
		require.Len(t, shuffled, len(original))
		require.Len(t, mapping, len(original))
		for k := range shuffled {
			assert.Equal(t, original[mapping[k]], shuffled[k])
		}

		got := append([]string(nil), shuffled...)
		sort.Strings(got)
		assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, original, "input must not be modified")
}

func TestRelocate(t *testing.T) {
	options := []string{"right", "w1", "w2", "w3"}
	for i := 0; i < 100; i++ {
		shuffled, mapping := WithMapping(options)
		idx := Relocate(mapping, 0)
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, "right", shuffled[idx])
	}
	assert.Equal(t, -1, Relocate([]int{1, 0}, 5))
}

func TestWithMappingEmptyAndSingle(t *testing.T) {
	s, m := WithMapping([]int{})
	assert.Empty(t, s)
	assert.Empty(t, m)

	s, m = WithMapping([]int{7})
	assert.Equal(t, []int{7}, s)
	assert.Equal(t, []int{0}, m)
}

// Every position should receive each element roughly 1/n of the time.
func TestPermutationIsRoughlyUniform(t *testing.T) {
	const n, rounds = 4, 8000
	var counts [n][n]int
	for r := 0; r < rounds; r++ {
		for pos, v := range Permutation(n) {
			counts[pos][v]++
		}
	}
	expected := rounds / n
	for pos := 0; pos < n; pos++ {
		for v := 0; v < n; v++ {
			assert.InDelta(t, expected, counts[pos][v], float64(expected)*0.2, "pos %d value %d", pos, v)
		}
	}
}
