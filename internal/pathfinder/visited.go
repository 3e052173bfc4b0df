package pathfinder

import "github.com/udisondev/tilepath/internal/geo"

// visitedRegion holds one 64-bit row per y per level.
type visitedRegion [geo.Levels * geo.RegionSize]uint64

// VisitedSet records expanded tiles of one search. Regions are allocated on
// first write. Not safe for concurrent use.
type VisitedSet struct {
	regions map[uint32]*visitedRegion
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{regions: make(map[uint32]*visitedRegion)}
}

// Get reports whether p was visited. Points outside the grid count as visited
// so they are never explored.
func (v *VisitedSet) Get(p geo.Point) bool {
	if !p.Valid() {
		return true
	}
	r, ok := v.regions[geo.RegionKey(geo.RegionOf(p))]
	if !ok {
		return false
	}
	row, bit := visitedIndex(p)
	return r[row]&bit != 0
}

// Set marks p visited and reports whether it was new. Points outside the grid
// are never accepted.
func (v *VisitedSet) Set(p geo.Point) bool {
	if !p.Valid() {
		return false
	}
	key := geo.RegionKey(geo.RegionOf(p))
	r, ok := v.regions[key]
	if !ok {
		r = new(visitedRegion)
		v.regions[key] = r
	}
	row, bit := visitedIndex(p)
	if r[row]&bit != 0 {
		return false
	}
	r[row] |= bit
	return true
}

// Clear releases all regions.
func (v *VisitedSet) Clear() {
	clear(v.regions)
}

// Len returns the number of allocated regions.
func (v *VisitedSet) Len() int {
	return len(v.regions)
}

func visitedIndex(p geo.Point) (row int, bit uint64) {
	x := p.X() % geo.RegionSize
	y := p.Y() % geo.RegionSize
	return p.Level()*geo.RegionSize + y, 1 << uint(x)
}
