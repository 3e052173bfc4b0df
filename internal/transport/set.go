package transport

import (
	"iter"

	"github.com/udisondev/tilepath/internal/geo"
)

// Set owns every loaded transport, indexed by origin.
// It is built once at load time and read-only afterwards.
type Set struct {
	byOrigin map[geo.Point][]*Transport
	all      []*Transport
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byOrigin: make(map[geo.Point][]*Transport)}
}

// Add appends t to the set.
func (s *Set) Add(t *Transport) {
	s.byOrigin[t.Origin] = append(s.byOrigin[t.Origin], t)
	s.all = append(s.all, t)
}

// From returns the transports departing from p. The slice must not be modified.
func (s *Set) From(p geo.Point) []*Transport {
	return s.byOrigin[p]
}

// All iterates transports in load order.
func (s *Set) All() iter.Seq[*Transport] {
	return func(yield func(*Transport) bool) {
		for _, t := range s.all {
			if !yield(t) {
				return
			}
		}
	}
}

// Len returns the number of transports.
func (s *Set) Len() int {
	return len(s.all)
}

// Origins returns the number of distinct origin tiles.
func (s *Set) Origins() int {
	return len(s.byOrigin)
}

// Categories counts transports per category.
func (s *Set) Categories() map[Category]int {
	counts := make(map[Category]int)
	for _, t := range s.all {
		counts[t.Category]++
	}
	return counts
}
