// Package sortutil provides small ordering helpers for directory listings.
package sortutil

import "slices"

// StablePathSort returns a new slice with names in lexicographic order.
// Directory listings have no guaranteed order, so candidate scans sort names
// first to make tie-breaking deterministic across runs. The input slice is
// not modified.
func StablePathSort(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}
