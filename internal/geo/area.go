package geo

import "math"

// Area is a rectangle of tiles spanning one or more levels.
type Area struct {
	X, Y          int
	Width, Height int
	MinLevel      int
	MaxLevel      int
}

// Contains reports whether p lies inside the area.
func (a Area) Contains(p Point) bool {
	return DistanceToArea(p, a) == 0
}

// DistanceToArea returns 0 if p is inside the area, otherwise the Chebyshev
// distance to the nearest edge. Points on other levels are infinitely far.
func DistanceToArea(p Point, a Area) int {
	level := p.Level()
	if level < a.MinLevel || level > a.MaxLevel {
		return math.MaxInt32
	}
	x, y := p.X(), p.Y()
	maxX := a.X + a.Width - 1
	maxY := a.Y + a.Height - 1
	dx := max(a.X-x, 0, x-maxX)
	dy := max(a.Y-y, 0, y-maxY)
	return max(dx, dy)
}
