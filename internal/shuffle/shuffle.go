// Package shuffle permutes slices with a Fisher–Yates walk.
package shuffle

import (
	"math/rand"
	"slices"
)

// Permutation returns a uniformly random permutation of 0..n-1.
func Permutation(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

// WithMapping returns a shuffled copy of items and the index map such that
// shuffled[k] == items[mapping[k]]. The input is not modified.
func WithMapping[T any](items []T) (shuffled []T, mapping []int) {
	mapping = Permutation(len(items))
	shuffled = make([]T, len(items))
	for k, i := range mapping {
		shuffled[k] = items[i]
	}
	return shuffled, mapping
}

// Slice returns a shuffled copy of items.
func Slice[T any](items []T) []T {
	out, _ := WithMapping(items)
	return out
}

// Relocate finds where a previously known index ended up after a shuffle.
// It returns -1 when old is not in the mapping.
func Relocate(mapping []int, old int) int {
	return slices.Index(mapping, old)
}
