package pathfinder

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/tilepath/internal/geo"
)

// State is the lifecycle of a search.
type State int32

const (
	Idle State = iota
	Running
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Initial capacities, large enough for typical searches to never grow.
const (
	boundaryCapacity = 4096
	pendingCapacity  = 256
)

// Pathfinder runs one anytime best-first search. The best path found so far
// can be read from any goroutine while the search runs.
type Pathfinder struct {
	start    geo.Point
	target   geo.Point
	snapshot *Snapshot

	state     atomic.Int32
	cancelled atomic.Bool
	path      atomic.Pointer[[]geo.Point]
	stats     atomic.Pointer[Stats]
	done      chan struct{}

	// owned by the worker
	targetInWilderness bool
	boundary           *nodeDeque
	pending            nodeHeap
	visited            *VisitedSet
	view               *geo.View
	order              uint64
	nodesChecked       int
	transportsChecked  int
}

// New creates an idle search from start to target over snapshot.
func New(snapshot *Snapshot, start, target geo.Point) *Pathfinder {
	pf := &Pathfinder{
		start:    start,
		target:   target,
		snapshot: snapshot,
		done:     make(chan struct{}),
	}
	trivial := []geo.Point{start}
	pf.path.Store(&trivial)
	return pf
}

// Start creates a search and runs it on its own goroutine.
func Start(ctx context.Context, snapshot *Snapshot, start, target geo.Point) *Pathfinder {
	pf := New(snapshot, start, target)
	go pf.Run(ctx)
	return pf
}

// Start returns the start position.
func (pf *Pathfinder) Start() geo.Point { return pf.start }

// Target returns the target position.
func (pf *Pathfinder) Target() geo.Point { return pf.target }

// State returns the current lifecycle state.
func (pf *Pathfinder) State() State {
	return State(pf.state.Load())
}

// IsDone reports whether the search finished without being cancelled.
func (pf *Pathfinder) IsDone() bool {
	return pf.State() == Done
}

// Done is closed when Run returns.
func (pf *Pathfinder) Done() <-chan struct{} {
	return pf.done
}

// Cancel asks the search to stop. The published path stays readable.
func (pf *Pathfinder) Cancel() {
	pf.cancelled.Store(true)
}

// Path returns the best path published so far, starting at the start
// position. The returned slice must not be modified.
func (pf *Pathfinder) Path() []geo.Point {
	return *pf.path.Load()
}

// Stats returns search statistics once the search has finished.
func (pf *Pathfinder) Stats() (Stats, bool) {
	s := pf.stats.Load()
	if s == nil {
		return Stats{}, false
	}
	return *s, true
}

// Run performs the search on the calling goroutine. It returns when the
// target is reached, the search space is exhausted, the cutoff elapses
// without improvement, Cancel is called or ctx is done. Only the first call
// runs; later calls return immediately.
func (pf *Pathfinder) Run(ctx context.Context) {
	if !pf.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return
	}
	stop := context.AfterFunc(ctx, pf.Cancel)
	defer stop()

	began := time.Now()
	pf.search()
	elapsed := time.Since(began)

	final := Done
	if pf.cancelled.Load() {
		final = Cancelled
	}
	pf.stats.Store(&Stats{
		NodesChecked:      pf.nodesChecked,
		TransportsChecked: pf.transportsChecked,
		Elapsed:           elapsed,
	})
	pf.state.Store(int32(final))
	close(pf.done)

	slog.Debug("path search finished",
		"start", pf.start,
		"target", pf.target,
		"state", final,
		"length", len(pf.Path()),
		"nodes", pf.nodesChecked,
		"transports", pf.transportsChecked,
		"elapsed", elapsed)
}

func (pf *Pathfinder) search() {
	pf.boundary = newNodeDeque(boundaryCapacity)
	pf.pending = make(nodeHeap, 0, pendingCapacity)
	pf.visited = NewVisitedSet()
	pf.view = pf.snapshot.Map().View()
	pf.targetInWilderness = InWilderness(pf.target)
	defer pf.release()

	pf.boundary.PushBack(pf.newNode(pf.start, nil, 0, false))
	pf.visited.Set(pf.start)

	bestDistance := int(^uint(0) >> 1)
	bestHeuristic := bestDistance
	cutoff := pf.snapshot.Cutoff()
	deadline := time.Now().Add(cutoff)

	var buf []*Node
	for !pf.cancelled.Load() && (pf.boundary.Len() > 0 || len(pf.pending) > 0) {
		if p := pf.pending.peek(); p != nil {
			if head := pf.boundary.Front(); head == nil || p.Cost < head.Cost {
				pf.boundary.PushFront(heap.Pop(&pf.pending).(*Node))
			}
		}

		node := pf.boundary.PopFront()

		if node.Position == pf.target {
			pf.publish(node)
			return
		}

		distance := geo.Distance(node.Position, pf.target, geo.Chebyshev)
		heuristic := distance + geo.Distance(node.Position, pf.target, geo.Manhattan)
		if heuristic < bestHeuristic || (heuristic == bestHeuristic && distance < bestDistance) {
			pf.publish(node)
			bestDistance = distance
			bestHeuristic = heuristic
			deadline = time.Now().Add(cutoff)
		}

		if time.Now().After(deadline) {
			return
		}

		buf = pf.neighbors(node, buf[:0])
		for _, next := range buf {
			if pf.snapshot.AvoidWildernessEdge(node.Position, next.Position, pf.targetInWilderness) {
				continue
			}
			if !pf.visited.Set(next.Position) {
				continue
			}
			if next.Transport {
				heap.Push(&pf.pending, next)
				pf.transportsChecked++
			} else {
				pf.boundary.PushBack(next)
				pf.nodesChecked++
			}
		}
	}
}

func (pf *Pathfinder) newNode(pos geo.Point, prev *Node, wait int, viaTransport bool) *Node {
	pf.order++
	return newNode(pos, prev, wait, viaTransport, pf.order)
}

func (pf *Pathfinder) publish(n *Node) {
	path := n.Path()
	pf.path.Store(&path)
}

func (pf *Pathfinder) release() {
	pf.boundary.Clear()
	pf.pending = nil
	pf.visited.Clear()
	pf.view.Release()
}
