package utils_test

import (
	"testing"

	"github.com/amarnathcjd/balegram/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestRecentSet_AddReportsNewKeys(t *testing.T) {
	s := utils.NewRecentSet[int64](3)

	assert.True(t, s.Add(10))
	assert.False(t, s.Add(10))
	assert.Equal(t, 1, s.Len())
}

func TestRecentSet_EvictsOldest(t *testing.T) {
	s := utils.NewRecentSet[int64](3)
	for _, id := range []int64{1, 2, 3, 4} {
		s.Add(id)
	}
	for _, id := range []int64{2, 3, 4} {
		assert.False(t, s.Add(id), "id %d should still be remembered", id)
	}
	assert.Equal(t, 3, s.Len())

	// 1 was evicted, so it counts as new again and pushes out 2
	assert.True(t, s.Add(1))
	assert.True(t, s.Add(2))
}

func TestRecentSet_DefaultSize(t *testing.T) {
	s := utils.NewRecentSet[int64](0)
	for i := int64(0); i < utils.DefaultRecentSetSize+1; i++ {
		s.Add(i)
	}
	assert.Equal(t, utils.DefaultRecentSetSize, s.Len())
	assert.True(t, s.Add(0))
}
