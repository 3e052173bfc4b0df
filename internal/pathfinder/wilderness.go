package pathfinder

import "github.com/udisondev/tilepath/internal/geo"

var (
	wildernessSurface     = geo.Area{X: 2944, Y: 3523, Width: 448, Height: 448, MinLevel: 0, MaxLevel: 0}
	wildernessUnderground = geo.Area{X: 2944, Y: 9918, Width: 320, Height: 442, MinLevel: 0, MaxLevel: geo.MaxLevel}
)

// InWilderness reports whether p lies in the surface or underground wilderness.
func InWilderness(p geo.Point) bool {
	return wildernessSurface.Contains(p) || wildernessUnderground.Contains(p)
}
