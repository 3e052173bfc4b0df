package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewRemembersOnlyLastRegion(t *testing.T) {
	e := NewEngine(NewBlockedRegion(0, 0).SizeBytes())
	v := e.View()

	v.N(10, 10, 0)
	first := v.lastRegion
	assert.Equal(t, RegionKey(0, 0), v.lastKey)

	v.N(10+RegionSize, 10, 0)
	assert.Equal(t, RegionKey(1, 0), v.lastKey)
	assert.NotSame(t, first, v.lastRegion)

	// the first region was evicted and is reloaded through the cache
	v.N(10, 10, 0)
	assert.Equal(t, uint64(3), e.Stats().Misses)
	assert.Equal(t, 1, e.Stats().Regions)

	v.Release()
	assert.Nil(t, v.lastRegion)
}
