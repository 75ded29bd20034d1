package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"PeakWatch/internal/metrics"
	"PeakWatch/internal/model"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ReportSource exposes the latest finished report.
type ReportSource interface {
	LastReport() *model.Report
	NextRun() time.Time
}

// Server serves /metrics, /health and /status while the scheduler runs.
type Server struct {
	router *mux.Router
	server *http.Server
	source ReportSource
	logger zerolog.Logger
}

type status struct {
	RunID        string    `json:"run_id,omitempty"`
	GeneratedAt  time.Time `json:"generated_at,omitempty"`
	NextRun      time.Time `json:"next_run,omitempty"`
	MarketsTotal int       `json:"markets_total"`
	Eligible     int       `json:"eligible"`
	Analyzed     int       `json:"analyzed"`
	Skipped      int       `json:"skipped"`
	Highlighted  int       `json:"highlighted"`
}

// New builds a server listening on addr.
func New(addr string, reg *metrics.Registry, source ReportSource) *Server {
	s := &Server{
		router: mux.NewRouter(),
		source: source,
		logger: log.With().Str("component", "server").Logger(),
	}

	s.router.Use(s.requestLoggingMiddleware)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if reg != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var st status
	if s.source != nil {
		st.NextRun = s.source.NextRun()
		if r := s.source.LastReport(); r != nil {
			st.RunID = r.RunID
			st.GeneratedAt = r.GeneratedAt
			st.MarketsTotal = r.MarketsTotal
			st.Eligible = r.Eligible
			st.Analyzed = len(r.ByNowPct)
			st.Skipped = len(r.Skipped)
			st.Highlighted = r.HighlightCount()
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
