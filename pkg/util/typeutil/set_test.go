package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet(3, 1, 2)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contain(1, 2))
	assert.False(t, set.Contain(1, 4))
	assert.Equal(t, []int{1, 2, 3}, Sorted(set))

	clone := set.Clone()
	clone.Insert(4)
	assert.False(t, set.Contain(4))
	assert.True(t, clone.Contain(4))

	var empty Set[string]
	assert.Zero(t, empty.Len())
	assert.False(t, empty.Contain("x"))
	assert.Empty(t, empty.Collect())
}
