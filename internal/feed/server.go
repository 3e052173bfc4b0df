// Package feed streams live path updates to websocket clients.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/tilepath/internal/config"
	"github.com/udisondev/tilepath/internal/pathfinder"
)

// FinishFunc is called once for every search a session sees to completion.
type FinishFunc func(caller string, pf *pathfinder.Pathfinder)

// Server accepts websocket sessions at /ws.
type Server struct {
	manager     *pathfinder.Manager
	interval    time.Duration
	maxSessions int
	onFinished  FinishFunc

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[*Session]struct{}
	pending  int // slots reserved for upgrades in flight
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a feed server that starts searches through m.
func NewServer(m *pathfinder.Manager, cfg config.FeedConfig) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	interval := cfg.PushInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Server{
		manager:     m,
		interval:    interval,
		maxSessions: cfg.MaxSessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[*Session]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnFinished registers fn to observe finished searches. Call before serving.
func (s *Server) OnFinished(fn FinishFunc) {
	s.onFinished = fn
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("feed listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("feed shutdown", "err", err)
	}
	s.Close()
	return nil
}

// Close ends every session and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if status, msg := s.reserve(); status != 0 {
		http.Error(w, msg, status)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.unreserve()
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := fmt.Sprintf("feed-%d", s.nextID.Add(1))
	sess := newSession(id, ws, s)

	s.mu.Lock()
	s.pending--
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	slog.Info("feed session opened", "session", id, "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		s.wg.Done()
		slog.Info("feed session closed", "session", id)
	}()

	sess.handle()
}

// reserve claims a session slot, counting upgrades still in flight against
// the limit. It returns a non-zero HTTP status when no slot is available.
func (s *Server) reserve() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return http.StatusServiceUnavailable, "shutting down"
	}
	if s.maxSessions > 0 && len(s.sessions)+s.pending >= s.maxSessions {
		return http.StatusServiceUnavailable, "too many sessions"
	}
	s.pending++
	s.wg.Add(1)
	return 0, ""
}

func (s *Server) unreserve() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","sessions":%d,"searches":%d}`, s.Sessions(), s.manager.Active())
}
