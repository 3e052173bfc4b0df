package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackKnownValue(t *testing.T) {
	p := Pack(13, 24685, 1)
	assert.Equal(t, Point(0x7036800D), p)

	x, y, level := p.Unpack()
	assert.Equal(t, 13, x)
	assert.Equal(t, 24685, y)
	assert.Equal(t, 1, level)
}

func TestPackRoundTrip(t *testing.T) {
	xs := []int{0, 1, 63, 64, 3200, 12345, MaxCoord}
	for _, x := range xs {
		for _, y := range xs {
			for level := range Levels {
				p := Pack(x, y, level)
				gx, gy, gl := p.Unpack()
				assert.Equal(t, x, gx)
				assert.Equal(t, y, gy)
				assert.Equal(t, level, gl)
			}
		}
	}
}

func TestPackOutOfRange(t *testing.T) {
	tests := []struct {
		name        string
		x, y, level int
	}{
		{"negative x", -1, 0, 0},
		{"negative y", 0, -1, 0},
		{"x too wide", MaxCoord + 1, 0, 0},
		{"y too wide", 0, MaxCoord + 1, 0},
		{"level too high", 0, 0, Levels},
		{"negative level", 0, 0, -1},
		{"corner tile shares the sentinel", MaxCoord, MaxCoord, MaxLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pack(tt.x, tt.y, tt.level)
			assert.Equal(t, InvalidPoint, p)
			assert.False(t, p.Valid())
		})
	}
}

func TestPackNextToExcludedCorner(t *testing.T) {
	assert.True(t, Pack(MaxCoord-1, MaxCoord, MaxLevel).Valid())
	assert.True(t, Pack(MaxCoord, MaxCoord-1, MaxLevel).Valid())
	assert.True(t, Pack(MaxCoord, MaxCoord, MaxLevel-1).Valid())
	assert.Equal(t, InvalidPoint, Pack(MaxCoord-1, MaxCoord, MaxLevel).Offset(1, 0))
}

func TestPointOrdering(t *testing.T) {
	// (level, y, x) lexicographic
	assert.Less(t, uint32(Pack(5, 0, 0)), uint32(Pack(6, 0, 0)))
	assert.Less(t, uint32(Pack(MaxCoord, 0, 0)), uint32(Pack(0, 1, 0)))
	assert.Less(t, uint32(Pack(MaxCoord, MaxCoord, 0)), uint32(Pack(0, 0, 1)))
}

func TestDistance(t *testing.T) {
	a := Pack(13, 24685, 1)
	b := Pack(29241, 3384, 1)
	c := Pack(292, 3384, 0)

	assert.Equal(t, 0, Distance(a, a, Chebyshev))
	assert.Equal(t, 29228, Distance(a, b, Chebyshev))
	assert.Equal(t, 29228, Distance(b, a, Chebyshev))
	assert.Equal(t, 21301, Distance(a, c, Chebyshev))

	assert.Equal(t, 0, Distance(a, a, Manhattan))
	assert.Equal(t, 50529, Distance(a, b, Manhattan))
	assert.Equal(t, 50529, Distance(b, a, Manhattan))
	assert.Equal(t, 28949, Distance(b, c, Manhattan))
}

func TestDistanceManhattanDominates(t *testing.T) {
	origin := Pack(100, 100, 0)
	for dx := -3; dx <= 3; dx++ {
		for dy := -3; dy <= 3; dy++ {
			p := origin.Offset(dx, dy)
			cheb := Distance(origin, p, Chebyshev)
			man := Distance(origin, p, Manhattan)
			assert.GreaterOrEqual(t, man, cheb)
			assert.Equal(t, dx == 0 || dy == 0, man == cheb, "dx=%d dy=%d", dx, dy)
		}
	}
}

func TestDistanceToArea(t *testing.T) {
	wilderness := Area{X: 2944, Y: 3523, Width: 448, Height: 448}

	tests := []struct {
		name string
		p    Point
		want int
	}{
		{"south-west outside", Pack(2900, 3500, 0), 44},
		{"south outside", Pack(3000, 3500, 0), 23},
		{"south-east outside", Pack(3600, 3500, 0), 209},
		{"west outside", Pack(2900, 3622, 0), 44},
		{"inside", Pack(3000, 3622, 0), 0},
		{"east outside", Pack(3600, 3622, 0), 209},
		{"north-west outside", Pack(2900, 4300, 0), 330},
		{"north outside", Pack(3000, 4300, 0), 330},
		{"north-east outside", Pack(3600, 4300, 0), 330},
		{"other level", Pack(3600, 4200, 1), math.MaxInt32},
		{"corner", Pack(2944, 3523, 0), 0},
		{"far corner", Pack(3391, 3970, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistanceToArea(tt.p, wilderness))
		})
	}
}

func TestRegionKey(t *testing.T) {
	key := RegionKey(50, 53)
	rx, ry := RegionFromKey(key)
	assert.Equal(t, 50, rx)
	assert.Equal(t, 53, ry)

	rx, ry = RegionOf(Pack(3222, 3218, 0))
	assert.Equal(t, 50, rx)
	assert.Equal(t, 50, ry)
}

func TestDirectionDeltas(t *testing.T) {
	tests := []struct {
		d        Direction
		dx, dy   int
		cardinal bool
	}{
		{West, -1, 0, true},
		{East, 1, 0, true},
		{South, 0, -1, true},
		{North, 0, 1, true},
		{SouthWest, -1, -1, false},
		{SouthEast, 1, -1, false},
		{NorthWest, -1, 1, false},
		{NorthEast, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			dx, dy := tt.d.Delta()
			assert.Equal(t, tt.dx, dx)
			assert.Equal(t, tt.dy, dy)
			assert.Equal(t, tt.cardinal, tt.d.IsCardinal())
		})
	}
}
