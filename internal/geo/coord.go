package geo

import "fmt"

// Point is a packed (x, y, level) tile position.
// Raw ordering matches lexicographic (level, y, x) ordering of the decoded triple.
type Point uint32

// InvalidPoint is returned by Pack for coordinates outside the packed layout.
// It shares its bits with (MaxCoord, MaxCoord, MaxLevel), so that corner tile
// is not part of the addressable world: Pack returns InvalidPoint for it and
// loaders reject it. No dataset has a region there.
const InvalidPoint Point = 0xFFFFFFFF

// Pack encodes a tile position. Out-of-range input saturates to InvalidPoint.
func Pack(x, y, level int) Point {
	if x < 0 || x > MaxCoord || y < 0 || y > MaxCoord || level < 0 || level > MaxLevel {
		return InvalidPoint
	}
	return Point(uint32(x) | uint32(y)<<yShift | uint32(level)<<levelShift)
}

// Unpack decodes a packed position.
func (p Point) Unpack() (x, y, level int) {
	return p.X(), p.Y(), p.Level()
}

// X returns the tile x coordinate.
func (p Point) X() int {
	return int(uint32(p) & coordMask)
}

// Y returns the tile y coordinate.
func (p Point) Y() int {
	return int(uint32(p) >> yShift & coordMask)
}

// Level returns the tile level.
func (p Point) Level() int {
	return int(uint32(p) >> levelShift & levelMask)
}

// Valid reports whether p is a real tile position.
func (p Point) Valid() bool {
	return p != InvalidPoint
}

// Offset returns the point moved by (dx, dy) on the same level.
func (p Point) Offset(dx, dy int) Point {
	return Pack(p.X()+dx, p.Y()+dy, p.Level())
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X(), p.Y(), p.Level())
}

// Metric selects the distance function used by Distance.
type Metric uint8

const (
	Chebyshev Metric = 1 // max(|dx|, |dy|)
	Manhattan Metric = 2 // |dx| + |dy|
)

// Distance returns the x/y distance between two points. Level is not part of the metric.
func Distance(a, b Point, m Metric) int {
	dx := abs(a.X() - b.X())
	dy := abs(a.Y() - b.Y())
	if m == Manhattan {
		return dx + dy
	}
	return max(dx, dy)
}

// RegionOf returns the region coordinates containing p.
func RegionOf(p Point) (rx, ry int) {
	return p.X() / RegionSize, p.Y() / RegionSize
}

// RegionKey packs region coordinates into a cache/storage key.
func RegionKey(rx, ry int) uint32 {
	return uint32(rx)&0xFFFF | (uint32(ry)&0xFFFF)<<16
}

// RegionFromKey unpacks a region key.
func RegionFromKey(key uint32) (rx, ry int) {
	return int(key & 0xFFFF), int(key >> 16 & 0xFFFF)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
