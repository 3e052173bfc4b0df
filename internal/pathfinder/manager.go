package pathfinder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/tilepath/internal/geo"
)

// ErrUnknownHandle is returned for handles that were never issued or already released.
var ErrUnknownHandle = errors.New("unknown search handle")

// Handle identifies a search started by a Manager.
type Handle uint64

// Manager starts searches against the current Config and tracks them by handle.
type Manager struct {
	cfg *Config

	mu       sync.Mutex
	next     Handle
	searches map[Handle]*Pathfinder
	callers  map[string]Handle
}

// NewManager creates a manager using cfg.
func NewManager(cfg *Config) *Manager {
	return &Manager{
		cfg:      cfg,
		searches: make(map[Handle]*Pathfinder),
		callers:  make(map[string]Handle),
	}
}

// Config returns the configuration searches are started with.
func (m *Manager) Config() *Config {
	return m.cfg
}

// StartSearch refreshes the configuration and starts a search with the
// resulting snapshot.
func (m *Manager) StartSearch(ctx context.Context, start, target geo.Point) Handle {
	pf := Start(ctx, m.cfg.Refresh(), start, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.searches[m.next] = pf
	return m.next
}

// Replace starts a search for caller, cancelling and releasing the caller's
// previous search if any.
func (m *Manager) Replace(ctx context.Context, caller string, start, target geo.Point) Handle {
	h := m.StartSearch(ctx, start, target)

	m.mu.Lock()
	prev, ok := m.callers[caller]
	m.callers[caller] = h
	var old *Pathfinder
	if ok {
		old = m.searches[prev]
		delete(m.searches, prev)
	}
	m.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	return h
}

// Get returns the search behind h.
func (m *Manager) Get(h Handle) (*Pathfinder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pf, ok := m.searches[h]
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}
	return pf, nil
}

// Cancel stops the search behind h.
func (m *Manager) Cancel(h Handle) error {
	pf, err := m.Get(h)
	if err != nil {
		return err
	}
	pf.Cancel()
	return nil
}

// IsDone reports whether the search behind h finished without cancellation.
func (m *Manager) IsDone(h Handle) (bool, error) {
	pf, err := m.Get(h)
	if err != nil {
		return false, err
	}
	return pf.IsDone(), nil
}

// GetPath returns the best path published by the search behind h.
func (m *Manager) GetPath(h Handle) ([]geo.Point, error) {
	pf, err := m.Get(h)
	if err != nil {
		return nil, err
	}
	return pf.Path(), nil
}

// GetStats returns statistics of the search behind h; ok is false until it finishes.
func (m *Manager) GetStats(h Handle) (stats Stats, ok bool, err error) {
	pf, err := m.Get(h)
	if err != nil {
		return Stats{}, false, err
	}
	stats, ok = pf.Stats()
	return stats, ok, nil
}

// Release cancels the search behind h and forgets it.
func (m *Manager) Release(h Handle) error {
	m.mu.Lock()
	pf, ok := m.searches[h]
	delete(m.searches, h)
	for caller, ch := range m.callers {
		if ch == h {
			delete(m.callers, caller)
		}
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}
	pf.Cancel()
	return nil
}

// Active returns the number of tracked searches.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

// Close cancels and forgets every search.
func (m *Manager) Close() {
	m.mu.Lock()
	searches := m.searches
	m.searches = make(map[Handle]*Pathfinder)
	clear(m.callers)
	m.mu.Unlock()

	for _, pf := range searches {
		pf.Cancel()
	}
}
