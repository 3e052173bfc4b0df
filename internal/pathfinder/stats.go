package pathfinder

import (
	"fmt"
	"time"

	"github.com/udisondev/tilepath/internal/geo"
)

// Stats summarizes a finished search.
type Stats struct {
	NodesChecked      int // ordinary tiles queued
	TransportsChecked int // transport destinations queued
	Elapsed           time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d transports=%d elapsed=%s", s.NodesChecked, s.TransportsChecked, s.Elapsed)
}

// Progress describes a search for logs and status output.
type Progress struct {
	Start  geo.Point
	Target geo.Point
	State  State
	Length int // positions in the published path
	// Reached reports whether the published path ends at the target.
	Reached bool
}

// Progress returns a snapshot of the search state.
func (pf *Pathfinder) Progress() Progress {
	path := pf.Path()
	return Progress{
		Start:   pf.start,
		Target:  pf.target,
		State:   pf.State(),
		Length:  len(path),
		Reached: path[len(path)-1] == pf.target,
	}
}
