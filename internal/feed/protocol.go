package feed

import (
	"fmt"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/pathfinder"
)

// Message types.
const (
	TypeSearch = "search" // client: start a search, replacing the current one
	TypeCancel = "cancel" // client: cancel the current search
	TypePing   = "ping"
	TypePong   = "pong"
	TypePath   = "path"  // server: path update
	TypeError  = "error" // server: request rejected
)

// Error codes.
const (
	CodeInvalidMessage = "invalid_message"
	CodeInvalidPoint   = "invalid_point"
	CodeUnknownType    = "unknown_message_type"
	CodeNoSearch       = "no_search"
)

// Coord is a point on the wire: [x, y, level].
type Coord [3]int

// Point converts c to a packed point.
func (c Coord) Point() (geo.Point, error) {
	x, y, l := c[0], c[1], c[2]
	if x < 0 || x > geo.MaxCoord || y < 0 || y > geo.MaxCoord || l < 0 || l > geo.MaxLevel {
		return geo.InvalidPoint, fmt.Errorf("point %v out of range", [3]int(c))
	}
	return geo.Pack(x, y, l), nil
}

// CoordOf converts a packed point to its wire form.
func CoordOf(p geo.Point) Coord {
	x, y, l := p.Unpack()
	return Coord{x, y, l}
}

// ClientMessage is any message sent by a client.
type ClientMessage struct {
	Type   string `json:"type"`
	Start  *Coord `json:"start,omitempty"`
	Target *Coord `json:"target,omitempty"`
}

// PathUpdate carries the best path of the session's search.
type PathUpdate struct {
	Type    string        `json:"type"`
	Handle  uint64        `json:"handle"`
	State   string        `json:"state"`
	Done    bool          `json:"done"` // last update for this search
	Reached bool          `json:"reached"`
	Path    []Coord       `json:"path"`
	Stats   *StatsPayload `json:"stats,omitempty"`
}

// StatsPayload is sent with the final update of a search.
type StatsPayload struct {
	NodesChecked      int   `json:"nodes_checked"`
	TransportsChecked int   `json:"transports_checked"`
	ElapsedMs         int64 `json:"elapsed_ms"`
}

// ErrorMessage reports a rejected request.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pong answers a ping.
type Pong struct {
	Type string `json:"type"`
}

func newPathUpdate(h pathfinder.Handle, pf *pathfinder.Pathfinder, final bool) *PathUpdate {
	path := pf.Path()
	u := &PathUpdate{
		Type:    TypePath,
		Handle:  uint64(h),
		State:   pf.State().String(),
		Done:    final,
		Reached: path[len(path)-1] == pf.Target(),
		Path:    make([]Coord, len(path)),
	}
	for i, p := range path {
		u.Path[i] = CoordOf(p)
	}
	if final {
		if st, ok := pf.Stats(); ok {
			u.Stats = &StatsPayload{
				NodesChecked:      st.NodesChecked,
				TransportsChecked: st.TransportsChecked,
				ElapsedMs:         st.Elapsed.Milliseconds(),
			}
		}
	}
	return u
}
