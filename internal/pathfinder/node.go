package pathfinder

import "github.com/udisondev/tilepath/internal/geo"

// Node is one step of a path. Nodes never change after construction.
type Node struct {
	Position  geo.Point
	Previous  *Node
	Cost      int
	Transport bool // reached through a transport edge

	order uint64 // tie-break among equal costs, per search
}

// newNode links pos after prev. A move longer than one tile or onto another
// level costs wait instead of its distance.
func newNode(pos geo.Point, prev *Node, wait int, viaTransport bool, order uint64) *Node {
	n := &Node{Position: pos, Previous: prev, Transport: viaTransport, order: order}
	if prev != nil {
		step := geo.Distance(prev.Position, pos, geo.Chebyshev)
		if step > 1 || prev.Position.Level() != pos.Level() {
			step = wait
		}
		n.Cost = prev.Cost + step
	}
	return n
}

// Path returns the positions from the root to n.
func (n *Node) Path() []geo.Point {
	depth := 0
	for cur := n; cur != nil; cur = cur.Previous {
		depth++
	}
	path := make([]geo.Point, depth)
	for cur := n; cur != nil; cur = cur.Previous {
		depth--
		path[depth] = cur.Position
	}
	return path
}

// less orders by cost, then by creation order.
func (n *Node) less(o *Node) bool {
	if n.Cost != o.Cost {
		return n.Cost < o.Cost
	}
	return n.order < o.order
}

// nodeHeap is a container/heap of pending transport nodes.
type nodeHeap []*Node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*Node)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

func (h nodeHeap) peek() *Node {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
