package geo

// View reads collision flags for one goroutine. It remembers only the last
// region it read; every other lookup goes through the engine's bounded cache,
// so a long search never holds more than one region outside the budget.
type View struct {
	engine *Engine

	lastKey    uint32
	lastRegion *Region
}

func (v *View) get(x, y, level, flag int) bool {
	if x < 0 || y < 0 || x > MaxCoord || y > MaxCoord || level < 0 || level > MaxLevel {
		return false
	}
	key := RegionKey(x/RegionSize, y/RegionSize)
	if v.lastRegion == nil || v.lastKey != key {
		v.lastKey, v.lastRegion = key, v.engine.region(key)
	}
	return v.lastRegion.Get(x, y, level, flag)
}

// N reports whether the tile can be left northwards.
func (v *View) N(x, y, level int) bool { return v.get(x, y, level, FlagNorth) }

// E reports whether the tile can be left eastwards.
func (v *View) E(x, y, level int) bool { return v.get(x, y, level, FlagEast) }

// S is the north flag of the tile below.
func (v *View) S(x, y, level int) bool { return v.N(x, y-1, level) }

// W is the east flag of the tile to the left.
func (v *View) W(x, y, level int) bool { return v.E(x-1, y, level) }

// Diagonals require both crossed edges and both corner edges to be open.

func (v *View) NE(x, y, level int) bool {
	return v.N(x, y, level) && v.E(x, y+1, level) && v.E(x, y, level) && v.N(x+1, y, level)
}

func (v *View) NW(x, y, level int) bool {
	return v.N(x, y, level) && v.W(x, y+1, level) && v.W(x, y, level) && v.N(x-1, y, level)
}

func (v *View) SE(x, y, level int) bool {
	return v.S(x, y, level) && v.E(x, y-1, level) && v.E(x, y, level) && v.S(x+1, y, level)
}

func (v *View) SW(x, y, level int) bool {
	return v.S(x, y, level) && v.W(x, y-1, level) && v.W(x, y, level) && v.S(x-1, y, level)
}

// IsOpen reports whether a move in direction d leaves (x, y, level).
func (v *View) IsOpen(x, y, level int, d Direction) bool {
	switch d {
	case North:
		return v.N(x, y, level)
	case East:
		return v.E(x, y, level)
	case South:
		return v.S(x, y, level)
	case West:
		return v.W(x, y, level)
	case NorthEast:
		return v.NE(x, y, level)
	case NorthWest:
		return v.NW(x, y, level)
	case SouthEast:
		return v.SE(x, y, level)
	case SouthWest:
		return v.SW(x, y, level)
	}
	return false
}

// IsBlocked reports whether none of the four cardinal moves is open.
func (v *View) IsBlocked(x, y, level int) bool {
	return !v.N(x, y, level) && !v.S(x, y, level) && !v.E(x, y, level) && !v.W(x, y, level)
}

// Release drops the region reference held by the view.
func (v *View) Release() {
	v.lastRegion = nil
}
