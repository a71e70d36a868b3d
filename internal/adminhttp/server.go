// Package adminhttp is the deliberately thin HTTP surface of spec.md §6:
// only `/health` and a read-only `/admin/status`. Everything else spec.md §6
// names (characters CRUD, preferences, full `/admin/*` CRUD, token-usage
// analytics) is out of core scope per spec.md §1 and is not routed here —
// see the comment below naming where each would live in the full system.
// Grounded on the sibling Clocktower backend's chi router shape
// (`internal/api/api.go`: `chi.NewRouter` + `middleware.Recoverer`/
// `RequestID`/`RealIP` + a bare `/health` handler).
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// StatusProvider is the read-only subset of the simulation core the admin
// status endpoint reports on.
type StatusProvider interface {
	TickNumber() int64
	Paused() bool
}

// QueueDepther reports the Command Queue's current backlog.
type QueueDepther interface {
	Depth() int
}

// AgentCounter reports how many AI agents are currently registered.
type AgentCounter interface {
	AgentCount() int
}

// Server is the admin HTTP surface: a chi.Router exposing /health and
// /admin/status.
type Server struct {
	Router *chi.Mux

	loop   StatusProvider
	queue  QueueDepther
	agents AgentCounter
	logger *zap.Logger
}

// New builds the admin HTTP server.
//
// Precondition: loop, queue, and agents must be non-nil.
func New(loop StatusProvider, queue QueueDepther, agents AgentCounter, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	s := &Server{Router: r, loop: loop, queue: queue, agents: agents, logger: logger}

	r.Get("/health", s.health)
	r.Get("/admin/status", s.status)

	// Out of core scope per spec.md §1 (reserved for the full system, not
	// routed here): /api/accounts/:username/characters GET|POST,
	// /api/characters/:id GET|DELETE, /api/accounts/:username/preferences
	// GET|PATCH, /admin/map, /admin/events, /admin/agents CRUD,
	// /admin/agents/:id/regenerate-spatial-memory, /admin/pause,
	// /admin/resume, token-usage analytics endpoints.

	return s
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusResponse struct {
	TickNumber int64 `json:"tickNumber"`
	Paused     bool  `json:"paused"`
	QueueDepth int   `json:"queueDepth"`
	AgentCount int   `json:"agentCount"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		TickNumber: s.loop.TickNumber(),
		Paused:     s.loop.Paused(),
		QueueDepth: s.queue.Depth(),
		AgentCount: s.agents.AgentCount(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil && s.logger != nil {
		s.logger.Error("encode admin status response", zap.Error(err))
	}
}
