package pathfinder

import (
	"testing"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/testutil"
	"github.com/udisondev/tilepath/internal/transport"
)

// capableClient is logged in on the client thread with every skill at 99 and
// every network unlocked.
func capableClient() *testutil.MockClient {
	return testutil.NewMockClient().
		SetAllLevels(99).
		SetQuest(FairyRingQuest, transport.Finished).
		SetQuest(GnomeGliderQuest, transport.Finished).
		SetQuest(SpiritTreeQuest, transport.Finished)
}

func setOf(ts ...*transport.Transport) *transport.Set {
	s := transport.NewSet()
	for _, t := range ts {
		s.Add(t)
	}
	return s
}

// newTestSnapshot builds a refreshed snapshot over grid.
func newTestSnapshot(t *testing.T, grid *testutil.Grid, settings Settings, ts ...*transport.Transport) *Snapshot {
	t.Helper()
	cfg := NewConfig(grid.Engine(t, 0), setOf(ts...), capableClient(), settings)
	return cfg.Refresh()
}

func pt(x, y, level int) geo.Point {
	return geo.Pack(x, y, level)
}
