package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/gamesession/game/loop"
	"github.com/wricardo/gamesession/game/session"
	"github.com/wricardo/gamesession/transport/mcp"
)

// SessionSource exposes the state of the running session
type SessionSource interface {
	Snapshot() session.Snapshot
}

// StatsSource exposes the command loop counters
type StatsSource interface {
	Stats() loop.Stats
}

// Spectators upgrades websocket connections
type Spectators interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// SessionResponse is the body of GET /api/session
type SessionResponse struct {
	session.Snapshot
	Stats loop.Stats `json:"stats"`
}

// Server represents the spectator HTTP API
type Server struct {
	session SessionSource
	stats   StatsSource
	hub     Spectators
	tools   *mcp.Server
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(sess SessionSource, stats StatsSource, hub Spectators, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		session: sess,
		stats:   stats,
		hub:     hub,
		tools:   mcp.NewServer(sess, stats, logger.Named("mcp")),
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/session", s.handleGetSession).Methods("GET")
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/mcp", s.tools).Methods("POST")

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{Snapshot: s.session.Snapshot()}
	if s.stats != nil {
		resp.Stats = s.stats.Stats()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleWebSocket attaches a spectator. The optional session query parameter
// must name the running session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.respondError(w, http.StatusServiceUnavailable, "spectator feed disabled")
		return
	}

	if id := r.URL.Query().Get("session"); id != "" && id != s.session.Snapshot().ID.String() {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	s.hub.ServeWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
