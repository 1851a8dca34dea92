// Package api is the HTTP status surface: a liveness probe and a small
// operational metrics snapshot. It never exposes bot or catalog data.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/cinephiles/cinebot/internal/api/recovery"
	"github.com/cinephiles/cinebot/internal/api/respond"
)

// SessionCounter reports how many user sessions are live.
type SessionCounter interface {
	Count() int
}

// HealthReporter reports the aggregate dependency health.
type HealthReporter interface {
	IsHealthy() bool
}

// MetricsResponse is the /metrics payload.
type MetricsResponse struct {
	ActiveUsers   int    `json:"active_users"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Status        string `json:"status"`
}

// Server holds the status-surface dependencies.
type Server struct {
	sessions SessionCounter
	health   HealthReporter
	started  time.Time
	log      zerolog.Logger
}

// NewServer creates a status Server. started anchors the uptime counter.
func NewServer(sessions SessionCounter, health HealthReporter, started time.Time, log zerolog.Logger) *Server {
	return &Server{sessions: sessions, health: health, started: started, log: log}
}

// Router builds the HTTP router with panic recovery applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.WriteNotFound(w, "unknown path")
	})
	return recovery.Middleware(s.log)(r)
}

// handleHealth is the liveness probe used by the hosting platform's
// keep-alive pings. It answers as long as the process serves HTTP.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	status := "healthy"
	if s.health != nil && !s.health.IsHealthy() {
		status = "degraded"
	}
	respond.WriteJSON(w, http.StatusOK, MetricsResponse{
		ActiveUsers:   s.sessions.Count(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Status:        status,
	})
}
