package geo

// Packed point layout: x in bits 0-14, y in bits 15-29, level in bits 30-31.
const (
	CoordBits = 15
	LevelBits = 2

	MaxCoord = 1<<CoordBits - 1 // 32767
	MaxLevel = 1<<LevelBits - 1 // 3

	yShift     = CoordBits
	levelShift = 2 * CoordBits
	coordMask  = MaxCoord
	levelMask  = MaxLevel
)

// World grid dimensions.
const (
	RegionSize = 64 // tiles per region edge
	Levels     = MaxLevel + 1
	RegionsX   = (MaxCoord + 1) / RegionSize // 512
	RegionsY   = (MaxCoord + 1) / RegionSize // 512
)

// Per-tile flags stored in a region. South and west are read from the
// neighbouring tile's north and east flags.
const (
	FlagNorth = 0
	FlagEast  = 1
	FlagCount = 2
)

// Residency defaults.
const (
	DefaultCacheBytes = 20 * 1024 * 1024
	regionHeaderSize  = 16
)
