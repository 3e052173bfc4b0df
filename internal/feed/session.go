package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/pathfinder"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBuffer = 64
)

type request struct {
	cancel        bool
	start, target geo.Point
}

// Session is one websocket client. It owns at most one search at a time;
// a new search request replaces the previous one.
type Session struct {
	id     string
	ws     *websocket.Conn
	server *Server

	send     chan []byte
	requests chan request

	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(id string, ws *websocket.Conn, server *Server) *Session {
	ctx, cancel := context.WithCancel(server.ctx)
	return &Session{
		id:       id,
		ws:       ws,
		server:   server,
		send:     make(chan []byte, sendBuffer),
		requests: make(chan request),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the caller identity used with the search manager.
func (s *Session) ID() string {
	return s.id
}

// handle runs the session until the peer disconnects or the server stops.
func (s *Session) handle() {
	s.ws.SetReadLimit(maxMessageSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump()
	}()
	s.readPump()
	<-done
}

func (s *Session) readPump() {
	defer s.cancel()

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("feed read failed", "session", s.id, "err", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(CodeInvalidMessage, "malformed json")
			continue
		}

		var req request
		switch msg.Type {
		case TypeSearch:
			if msg.Start == nil || msg.Target == nil {
				s.sendError(CodeInvalidMessage, "search needs start and target")
				continue
			}
			start, err := msg.Start.Point()
			if err != nil {
				s.sendError(CodeInvalidPoint, err.Error())
				continue
			}
			target, err := msg.Target.Point()
			if err != nil {
				s.sendError(CodeInvalidPoint, err.Error())
				continue
			}
			req = request{start: start, target: target}
		case TypeCancel:
			req = request{cancel: true}
		case TypePing:
			s.sendJSON(Pong{Type: TypePong})
			continue
		default:
			s.sendError(CodeUnknownType, "unknown message type "+msg.Type)
			continue
		}

		select {
		case s.requests <- req:
		case <-s.ctx.Done():
			return
		}
	}
}

// writePump is the only writer of the connection. It also owns the
// session's current search.
func (s *Session) writePump() {
	ping := time.NewTicker(pingPeriod)
	push := time.NewTicker(s.server.interval)
	m := s.server.manager

	var (
		handle   pathfinder.Handle
		search   *pathfinder.Pathfinder
		finished <-chan struct{}
		lastLen  int
		lastEnd  geo.Point
	)
	defer func() {
		ping.Stop()
		push.Stop()
		if search != nil {
			_ = m.Release(handle)
		}
		_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.ws.Close()
	}()

	for {
		select {
		case data := <-s.send:
			if !s.write(data) {
				return
			}

		case req := <-s.requests:
			if req.cancel {
				if search == nil {
					s.sendError(CodeNoSearch, "no search to cancel")
					continue
				}
				search.Cancel()
				continue
			}
			handle = m.Replace(s.ctx, s.id, req.start, req.target)
			pf, err := m.Get(handle)
			if err != nil {
				// released concurrently by Close
				search, finished = nil, nil
				continue
			}
			search, finished = pf, pf.Done()
			lastLen, lastEnd = 0, geo.InvalidPoint
			slog.Debug("feed search started", "session", s.id, "handle", handle, "start", req.start, "target", req.target)

		case <-push.C:
			if search == nil {
				continue
			}
			path := search.Path()
			if len(path) == lastLen && path[len(path)-1] == lastEnd {
				continue
			}
			lastLen, lastEnd = len(path), path[len(path)-1]
			if !s.writeJSON(newPathUpdate(handle, search, false)) {
				return
			}

		case <-finished:
			pf, h := search, handle
			search, finished = nil, nil
			_ = m.Release(h)
			if fn := s.server.onFinished; fn != nil {
				fn(s.id, pf)
			}
			if !s.writeJSON(newPathUpdate(h, pf, true)) {
				return
			}

		case <-ping.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) write(data []byte) bool {
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("feed write failed", "session", s.id, "err", err)
		s.cancel()
		return false
	}
	return true
}

func (s *Session) writeJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding feed message", "session", s.id, "err", err)
		return true
	}
	return s.write(data)
}

// sendJSON queues v for the write pump, dropping it when the buffer is full.
func (s *Session) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding feed message", "session", s.id, "err", err)
		return
	}
	select {
	case s.send <- data:
	default:
		slog.Warn("feed send buffer full, dropping message", "session", s.id)
	}
}

func (s *Session) sendError(code, message string) {
	s.sendJSON(ErrorMessage{Type: TypeError, Code: code, Message: message})
}
