package visualization

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// SnapshotSource supplies the state to serve.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// Server serves the current snapshot of a run as text and JSON.
type Server struct {
	source     SnapshotSource
	margin     int
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a snapshot server over source.
func NewServer(source SnapshotSource) *Server {
	return &Server{source: source, margin: 1}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on addr (an OS-assigned port when
// addr is empty) and blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)

	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the ASCII grid of the current snapshot.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.source.Snapshot()
	frame := Fit(snap.Agents, snap.Waypoints, s.margin)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "tick %d  %s/%s  %d agents\n", snap.Tick, snap.Strategy, snap.Mode, len(snap.Agents))
	fmt.Fprint(w, RenderASCII(frame, snap.Agents, snap.Waypoints))
}

// handleSnapshot serves the current snapshot as JSON.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := RenderJSON(s.source.Snapshot())
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
