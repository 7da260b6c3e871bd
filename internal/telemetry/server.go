package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/confidence"
	"github.com/sawpanic/pairscreen/internal/monitor"
)

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
}

// DefaultServerConfig returns a local-only listener on port 8087.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:             "127.0.0.1",
		Port:             8087,
		ReadTimeoutSecs:  10,
		WriteTimeoutSecs: 10,
		IdleTimeoutSecs:  60,
	}
}

// VerdictSource yields the latest assessment, if any.
type VerdictSource interface {
	Latest() (*confidence.Verdict, error)
}

// AlertSource yields the current alert log and monitor state.
type AlertSource interface {
	Alerts() []monitor.Alert
	EmergencyTriggered() bool
	ConfidenceScale() float64
}

// Server is the read-only monitoring HTTP surface.
type Server struct {
	router   *mux.Router
	server   *http.Server
	metrics  *Metrics
	verdicts VerdictSource
	alerts   AlertSource
	started  time.Time
}

// NewServer wires the routes. Pass nil sources to disable their endpoints.
func NewServer(cfg ServerConfig, metrics *Metrics, verdicts VerdictSource, alerts AlertSource) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		metrics:  metrics,
		verdicts: verdicts,
		alerts:   alerts,
		started:  time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/verdict", s.handleVerdict).Methods("GET")
	s.router.HandleFunc("/alerts", s.handleAlerts).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
}

// Router exposes the handler tree for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVerdict(w http.ResponseWriter, r *http.Request) {
	if s.verdicts == nil {
		writeError(w, http.StatusNotFound, "verdict source not configured")
		return
	}
	v, err := s.verdicts.Latest()
	if err != nil {
		if errors.Is(err, confidence.ErrNoVerdict) {
			writeError(w, http.StatusServiceUnavailable, "no assessment completed yet")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeError(w, http.StatusNotFound, "alert source not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":              s.alerts.Alerts(),
		"emergency_triggered": s.alerts.EmergencyTriggered(),
		"confidence_scale":    s.alerts.ConfidenceScale(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode telemetry response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Monitoring HTTP server listening")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
