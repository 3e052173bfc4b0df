package feed

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilepath/internal/config"
	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/pathfinder"
	"github.com/udisondev/tilepath/internal/testutil"
)

type feedEnv struct {
	server  *Server
	manager *pathfinder.Manager
	http    *httptest.Server
}

func newFeedEnv(t *testing.T, maxSessions int, settings pathfinder.Settings) *feedEnv {
	t.Helper()
	g := testutil.NewGrid()
	g.OpenRect(0, 0, 255, 255, 0)
	client := testutil.NewMockClient().SetAllLevels(99)

	m := pathfinder.NewManager(pathfinder.NewConfig(g.Engine(t, 0), nil, client, settings))
	srv := NewServer(m, config.FeedConfig{PushInterval: 10 * time.Millisecond, MaxSessions: maxSessions})
	hs := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		hs.Close()
		srv.Close()
		m.Close()
	})
	return &feedEnv{server: srv, manager: m, http: hs}
}

func (e *feedEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readUntil returns the first message accepted, failing after timeout.
func readUntil(t *testing.T, ws *websocket.Conn, timeout time.Duration, accept func(raw []byte) bool) []byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		require.NoError(t, ws.SetReadDeadline(deadline))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		if accept(data) {
			return data
		}
	}
}

func finalUpdate(t *testing.T, ws *websocket.Conn) PathUpdate {
	t.Helper()
	var u PathUpdate
	readUntil(t, ws, 10*time.Second, func(raw []byte) bool {
		u = PathUpdate{}
		return json.Unmarshal(raw, &u) == nil && u.Type == TypePath && u.Done
	})
	return u
}

func errorMessage(t *testing.T, ws *websocket.Conn) ErrorMessage {
	t.Helper()
	var e ErrorMessage
	readUntil(t, ws, 5*time.Second, func(raw []byte) bool {
		e = ErrorMessage{}
		return json.Unmarshal(raw, &e) == nil && e.Type == TypeError
	})
	return e
}

func defaultSettings() pathfinder.Settings {
	s := pathfinder.DefaultSettings()
	s.AvoidWilderness = false
	return s
}

func TestFeedSearch(t *testing.T) {
	env := newFeedEnv(t, 0, defaultSettings())

	var (
		mu       sync.Mutex
		finished []string
	)
	env.server.OnFinished(func(caller string, pf *pathfinder.Pathfinder) {
		mu.Lock()
		finished = append(finished, caller+":"+pf.State().String())
		mu.Unlock()
	})
	ws := env.dial(t)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeSearch, Start: &Coord{1, 1, 0}, Target: &Coord{40, 20, 0}}))
	u := finalUpdate(t, ws)

	assert.Equal(t, "done", u.State)
	assert.True(t, u.Reached)
	require.NotEmpty(t, u.Path)
	assert.Equal(t, Coord{1, 1, 0}, u.Path[0])
	assert.Equal(t, Coord{40, 20, 0}, u.Path[len(u.Path)-1])
	assert.Len(t, u.Path, 40)
	require.NotNil(t, u.Stats)
	assert.Positive(t, u.Stats.NodesChecked)

	assert.Eventually(t, func() bool { return env.manager.Active() == 0 }, 5*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"feed-1:done"}, finished)
	mu.Unlock()
}

func TestFeedCancel(t *testing.T) {
	settings := defaultSettings()
	settings.CalculationCutoff = 100
	env := newFeedEnv(t, 0, settings)
	ws := env.dial(t)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeSearch, Start: &Coord{1, 1, 0}, Target: &Coord{200, 3000, 0}}))
	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeCancel}))

	u := finalUpdate(t, ws)
	assert.Equal(t, "cancelled", u.State)
	assert.False(t, u.Reached)
	assert.Equal(t, Coord{1, 1, 0}, u.Path[0])
}

func TestFeedReplaceSearch(t *testing.T) {
	settings := defaultSettings()
	settings.CalculationCutoff = 100
	env := newFeedEnv(t, 0, settings)
	ws := env.dial(t)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeSearch, Start: &Coord{1, 1, 0}, Target: &Coord{200, 3000, 0}}))
	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeSearch, Start: &Coord{5, 5, 0}, Target: &Coord{8, 5, 0}}))

	u := finalUpdate(t, ws)
	assert.Equal(t, "done", u.State)
	assert.Equal(t, Coord{5, 5, 0}, u.Path[0])
	assert.Equal(t, Coord{8, 5, 0}, u.Path[len(u.Path)-1])
}

func TestFeedRejectsBadRequests(t *testing.T) {
	env := newFeedEnv(t, 0, defaultSettings())
	ws := env.dial(t)

	tests := []struct {
		name string
		msg  string
		code string
	}{
		{"malformed", `{"type":`, CodeInvalidMessage},
		{"missing target", `{"type":"search","start":[1,1,0]}`, CodeInvalidMessage},
		{"out of range", `{"type":"search","start":[1,1,0],"target":[1,1,4]}`, CodeInvalidPoint},
		{"negative", `{"type":"search","start":[-1,1,0],"target":[1,1,0]}`, CodeInvalidPoint},
		{"unknown type", `{"type":"teleport"}`, CodeUnknownType},
		{"cancel without search", `{"type":"cancel"}`, CodeNoSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
			assert.Equal(t, tt.code, errorMessage(t, ws).Code)
		})
	}

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypePing}))
	readUntil(t, ws, 5*time.Second, func(raw []byte) bool {
		var p Pong
		return json.Unmarshal(raw, &p) == nil && p.Type == TypePong
	})
}

func TestFeedSessionLimit(t *testing.T) {
	env := newFeedEnv(t, 1, defaultSettings())
	env.dial(t)
	require.Eventually(t, func() bool { return env.server.Sessions() == 1 }, 5*time.Second, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestFeedSessionLimitCountsUpgradesInFlight(t *testing.T) {
	env := newFeedEnv(t, 2, defaultSettings())

	status, _ := env.server.reserve()
	require.Zero(t, status)
	status, _ = env.server.reserve()
	require.Zero(t, status)

	status, msg := env.server.reserve()
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "too many sessions", msg)
	assert.Zero(t, env.server.Sessions(), "reserved slots are not sessions yet")

	env.server.unreserve()
	status, _ = env.server.reserve()
	assert.Zero(t, status)

	env.server.unreserve()
	env.server.unreserve()
}

func TestFeedSessionLimitConcurrentDials(t *testing.T) {
	env := newFeedEnv(t, 2, defaultSettings())
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*websocket.Conn
		rejected int
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if resp != nil {
				resp.Body.Close()
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rejected++
				return
			}
			accepted = append(accepted, ws)
		}()
	}
	wg.Wait()
	t.Cleanup(func() {
		for _, ws := range accepted {
			ws.Close()
		}
	})

	assert.Len(t, accepted, 2)
	assert.Equal(t, 10, rejected)
	assert.LessOrEqual(t, env.server.Sessions(), 2)
}

func TestFeedDisconnectReleasesSearch(t *testing.T) {
	settings := defaultSettings()
	settings.CalculationCutoff = 100
	env := newFeedEnv(t, 0, settings)
	ws := env.dial(t)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: TypeSearch, Start: &Coord{1, 1, 0}, Target: &Coord{200, 3000, 0}}))
	require.Eventually(t, func() bool { return env.manager.Active() == 1 }, 5*time.Second, 10*time.Millisecond)

	ws.Close()
	assert.Eventually(t, func() bool {
		return env.manager.Active() == 0 && env.server.Sessions() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFeedHealth(t *testing.T) {
	env := newFeedEnv(t, 0, defaultSettings())

	resp, err := http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.Sessions)
}

func TestCoordConversion(t *testing.T) {
	p, err := Coord{3222, 3218, 2}.Point()
	require.NoError(t, err)
	assert.Equal(t, geo.Pack(3222, 3218, 2), p)
	assert.Equal(t, Coord{3222, 3218, 2}, CoordOf(p))

	_, err = Coord{geo.MaxCoord + 1, 0, 0}.Point()
	assert.Error(t, err)
}

func TestServerRunShutdown(t *testing.T) {
	g := testutil.NewGrid()
	g.OpenRect(0, 0, 20, 20, 0)
	m := pathfinder.NewManager(pathfinder.NewConfig(g.Engine(t, 0), nil, pathfinder.Unrestricted(), defaultSettings()))
	t.Cleanup(m.Close)
	srv := NewServer(m, config.FeedConfig{PushInterval: 10 * time.Millisecond})

	addr := testutil.FreeAddr(t)
	ctx, cancel := testutil.ContextWithCancel(t)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, addr) }()
	require.NoError(t, testutil.WaitForTCPReady(addr, 5*time.Second))

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer ws.Close()
	testutil.WaitForCondition(t, func() bool { return srv.Sessions() == 1 }, 5*time.Second)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 0, srv.Sessions())
}
