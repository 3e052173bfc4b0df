package pathfinder

import "github.com/udisondev/tilepath/internal/geo"

// neighbors appends the unvisited successors of n to buf.
//
// Usable transports departing from n come first. A tile with no open cardinal
// exit may step onto any neighbour that is not itself fully blocked (diagonals
// also need both flanking tiles to be not fully blocked); other tiles follow
// their edge flags. A closed cardinal move towards a fully blocked tile is
// still allowed when a usable transport departs from that tile.
func (pf *Pathfinder) neighbors(n *Node, buf []*Node) []*Node {
	snap := pf.snapshot
	v := pf.view

	for _, t := range snap.TransportsFrom(n.Position) {
		if pf.visited.Get(t.Destination) {
			continue
		}
		buf = append(buf, pf.newNode(t.Destination, n, t.Wait, true))
	}

	x, y, level := n.Position.Unpack()

	var open [len(geo.Directions)]bool
	if v.IsBlocked(x, y, level) {
		for i, d := range geo.Directions {
			dx, dy := d.Delta()
			open[i] = !v.IsBlocked(x+dx, y+dy, level)
			if !d.IsCardinal() {
				open[i] = open[i] && !v.IsBlocked(x+dx, y, level) && !v.IsBlocked(x, y+dy, level)
			}
		}
	} else {
		for i, d := range geo.Directions {
			open[i] = v.IsOpen(x, y, level, d)
		}
	}

	for i, d := range geo.Directions {
		dx, dy := d.Delta()
		p := geo.Pack(x+dx, y+dy, level)
		if pf.visited.Get(p) {
			continue
		}
		if open[i] {
			buf = append(buf, pf.newNode(p, n, 0, false))
			continue
		}
		if d.IsCardinal() && v.IsBlocked(x+dx, y+dy, level) && len(snap.TransportsFrom(p)) > 0 {
			buf = append(buf, pf.newNode(p, n, 0, false))
		}
	}
	return buf
}
