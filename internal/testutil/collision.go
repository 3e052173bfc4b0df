package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/udisondev/tilepath/internal/geo"
)

// Grid builds collision regions in memory for tests. Tiles start fully blocked.
type Grid struct {
	regions map[uint32]*geo.Region
}

// NewGrid creates an empty (all blocked) grid.
func NewGrid() *Grid {
	return &Grid{regions: make(map[uint32]*geo.Region)}
}

func (g *Grid) region(x, y int) *geo.Region {
	rx, ry := x/geo.RegionSize, y/geo.RegionSize
	key := geo.RegionKey(rx, ry)
	r, ok := g.regions[key]
	if !ok {
		r = geo.NewBlockedRegion(rx, ry)
		g.regions[key] = r
	}
	return r
}

// SetFlag sets one stored flag (geo.FlagNorth or geo.FlagEast).
func (g *Grid) SetFlag(x, y, level, flag int, open bool) {
	g.region(x, y).Set(x, y, level, flag, open)
}

// OpenRect makes every tile in the inclusive rectangle walkable to its
// neighbours inside the rectangle.
func (g *Grid) OpenRect(minX, minY, maxX, maxY, level int) {
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if y < maxY {
				g.SetFlag(x, y, level, geo.FlagNorth, true)
			}
			if x < maxX {
				g.SetFlag(x, y, level, geo.FlagEast, true)
			}
		}
	}
}

// WallNorth closes the edge between (x, y) and (x, y+1).
func (g *Grid) WallNorth(x, y, level int) {
	g.SetFlag(x, y, level, geo.FlagNorth, false)
}

// WallEast closes the edge between (x, y) and (x+1, y).
func (g *Grid) WallEast(x, y, level int) {
	g.SetFlag(x, y, level, geo.FlagEast, false)
}

// Isolate closes all four edges of a tile.
func (g *Grid) Isolate(x, y, level int) {
	g.WallNorth(x, y, level)
	g.WallEast(x, y, level)
	g.WallNorth(x, y-1, level)
	g.WallEast(x-1, y, level)
}

// Engine compresses the grid into a collision map.
func (g *Grid) Engine(tb testing.TB, maxBytes int) *geo.Engine {
	tb.Helper()
	e := geo.NewEngine(maxBytes)
	for key, r := range g.regions {
		blob, err := geo.CompressRegion(r)
		if err != nil {
			tb.Fatalf("compressing region: %v", err)
		}
		rx, ry := geo.RegionFromKey(key)
		if err := e.AddRegion(rx, ry, blob); err != nil {
			tb.Fatalf("adding region %d_%d: %v", rx, ry, err)
		}
	}
	return e
}

// WriteDir writes the grid as "<rx>_<ry>.gz" files and returns the directory.
func (g *Grid) WriteDir(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	for key, r := range g.regions {
		blob, err := geo.CompressRegion(r)
		if err != nil {
			tb.Fatalf("compressing region: %v", err)
		}
		rx, ry := geo.RegionFromKey(key)
		name := filepath.Join(dir, fmt.Sprintf("%d_%d%s", rx, ry, geo.CollisionExt))
		if err := os.WriteFile(name, blob, 0o644); err != nil {
			tb.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}
