package sortutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStablePathSort(t *testing.T) {
	in := []string{"b.bak", "a.bak", "c.bak"}
	got := StablePathSort(in)
	assert.Equal(t, []string{"a.bak", "b.bak", "c.bak"}, got)
	// Input order is untouched.
	assert.Equal(t, []string{"b.bak", "a.bak", "c.bak"}, in)
}

func TestStablePathSortEmpty(t *testing.T) {
	assert.Empty(t, StablePathSort(nil))
}
