package pathfinder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilepath/internal/testutil"
)

func newTestManager(t *testing.T, grid *testutil.Grid, settings Settings) *Manager {
	t.Helper()
	m := NewManager(NewConfig(grid.Engine(t, 0), nil, capableClient(), settings))
	t.Cleanup(m.Close)
	return m
}

func waitHandle(t *testing.T, m *Manager, h Handle) *Pathfinder {
	t.Helper()
	pf, err := m.Get(h)
	require.NoError(t, err)
	testutil.WaitClosed(t, pf.Done(), 10*time.Second)
	return pf
}

func TestManagerLifecycle(t *testing.T) {
	g := testutil.NewGrid()
	g.OpenRect(0, 0, 20, 20, 0)
	m := newTestManager(t, g, allEnabled())

	h := m.StartSearch(context.Background(), pt(1, 1, 0), pt(5, 1, 0))
	waitHandle(t, m, h)

	done, err := m.IsDone(h)
	require.NoError(t, err)
	assert.True(t, done)

	path, err := m.GetPath(h)
	require.NoError(t, err)
	require.Len(t, path, 5)
	assert.Equal(t, pt(1, 1, 0), path[0])
	assert.Equal(t, pt(5, 1, 0), path[4])

	stats, ok, err := m.GetStats(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Positive(t, stats.NodesChecked)

	assert.Equal(t, 1, m.Active())
	require.NoError(t, m.Release(h))
	assert.Equal(t, 0, m.Active())

	_, err = m.GetPath(h)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.ErrorIs(t, m.Release(h), ErrUnknownHandle)
}

func TestManagerUnknownHandle(t *testing.T) {
	m := newTestManager(t, testutil.NewGrid(), allEnabled())

	_, err := m.IsDone(42)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, _, err = m.GetStats(42)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.ErrorIs(t, m.Cancel(42), ErrUnknownHandle)
}

func TestManagerCancel(t *testing.T) {
	g := testutil.NewGrid()
	g.OpenRect(0, 0, 511, 511, 0)
	settings := allEnabled()
	settings.CalculationCutoff = 100
	m := newTestManager(t, g, settings)

	h := m.StartSearch(context.Background(), pt(1, 1, 0), pt(400, 3000, 0))
	require.NoError(t, m.Cancel(h))
	pf := waitHandle(t, m, h)

	done, err := m.IsDone(h)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, Cancelled, pf.State())

	path, err := m.GetPath(h)
	require.NoError(t, err)
	assert.Equal(t, pt(1, 1, 0), path[0])
}

func TestManagerReplace(t *testing.T) {
	g := testutil.NewGrid()
	g.OpenRect(0, 0, 511, 511, 0)
	settings := allEnabled()
	settings.CalculationCutoff = 100
	m := newTestManager(t, g, settings)

	first := m.Replace(context.Background(), "alice", pt(1, 1, 0), pt(400, 3000, 0))
	old, err := m.Get(first)
	require.NoError(t, err)

	second := m.Replace(context.Background(), "alice", pt(2, 2, 0), pt(4, 2, 0))
	assert.NotEqual(t, first, second)

	testutil.WaitClosed(t, old.Done(), 10*time.Second)
	assert.Equal(t, Cancelled, old.State())
	_, err = m.Get(first)
	assert.ErrorIs(t, err, ErrUnknownHandle)

	waitHandle(t, m, second)
	path, err := m.GetPath(second)
	require.NoError(t, err)
	assert.Equal(t, pt(4, 2, 0), path[len(path)-1])

	other := m.Replace(context.Background(), "bob", pt(3, 3, 0), pt(4, 3, 0))
	assert.Equal(t, 2, m.Active())
	waitHandle(t, m, other)
}
