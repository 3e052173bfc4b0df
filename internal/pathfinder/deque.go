package pathfinder

// nodeDeque is a growable ring buffer of nodes.
type nodeDeque struct {
	buf  []*Node
	head int
	n    int
}

func newNodeDeque(capacity int) *nodeDeque {
	return &nodeDeque{buf: make([]*Node, capacity)}
}

func (d *nodeDeque) Len() int { return d.n }

func (d *nodeDeque) grow() {
	size := max(len(d.buf)*2, 16)
	buf := make([]*Node, size)
	for i := range d.n {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}

func (d *nodeDeque) PushBack(n *Node) {
	if d.n == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.n)%len(d.buf)] = n
	d.n++
}

func (d *nodeDeque) PushFront(n *Node) {
	if d.n == len(d.buf) {
		d.grow()
	}
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = n
	d.n++
}

// Front returns the first node or nil.
func (d *nodeDeque) Front() *Node {
	if d.n == 0 {
		return nil
	}
	return d.buf[d.head]
}

// PopFront removes the first node. The deque must not be empty.
func (d *nodeDeque) PopFront() *Node {
	n := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.n--
	return n
}

func (d *nodeDeque) Clear() {
	clear(d.buf)
	d.head, d.n = 0, 0
}
