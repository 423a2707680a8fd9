// Package api exposes the HTTP control interface: starting, pausing and
// inspecting crawls, plus service health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/autoupdate"
	"github.com/vbstat/volleycrawl/internal/job"
	"github.com/vbstat/volleycrawl/internal/metrics"
	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/store"
)

// Server wires HTTP handlers to the job controller and the store.
type Server struct {
	router  chi.Router
	ctrl    *job.Controller
	daemon  *autoupdate.Daemon // nil when auto-update is disabled
	store   store.Gateway
	log     *zap.Logger
	baseCtx context.Context
}

// NewServer constructs a Server with middleware and routes. baseCtx bounds
// the lifetime of crawls started over HTTP; a request context would cancel
// the crawl as soon as the response is written.
func NewServer(baseCtx context.Context, ctrl *job.Controller, daemon *autoupdate.Daemon, gw store.Gateway, timeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s := &Server{
		ctrl:    ctrl,
		daemon:  daemon,
		store:   gw,
		log:     log,
		baseCtx: baseCtx,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoverMiddleware(log))
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sources/{source}", func(r chi.Router) {
			r.Post("/crawl", s.startCrawl)
			r.Post("/pause", s.control(s.ctrl.Pause))
			r.Post("/resume", s.control(s.ctrl.Resume))
			r.Post("/stop", s.control(s.ctrl.Stop))
			r.Get("/status", s.sourceStatus)
		})
		r.Get("/autoupdate/status", s.autoUpdateStatus)
		r.Get("/stats", s.stats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type crawlRequest struct {
	From         int64 `json:"from"`
	To           int64 `json:"to"`
	Rescan       bool  `json:"rescan"`
	SkipExisting *bool `json:"skip_existing"`
	Season       int   `json:"season"`
}

func (s *Server) startCrawl(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceParam(w, r)
	if !ok {
		return
	}

	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	opts := plan.Options{
		From:         req.From,
		To:           req.To,
		Rescan:       req.Rescan,
		SkipExisting: req.SkipExisting == nil || *req.SkipExisting,
		Season:       req.Season,
	}
	if err := s.ctrl.Start(s.baseCtx, src, opts); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctrl.Status(src))
}

// control adapts a controller verb into a handler.
func (s *Server) control(verb func(record.Source) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := s.sourceParam(w, r)
		if !ok {
			return
		}
		if err := verb(src); err != nil {
			writeControlError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.ctrl.Status(src))
	}
}

func (s *Server) sourceStatus(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status(src))
}

func (s *Server) autoUpdateStatus(w http.ResponseWriter, _ *http.Request) {
	if s.daemon == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   true,
		"last_runs": s.daemon.LastRuns(),
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error("stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) sourceParam(w http.ResponseWriter, r *http.Request) (record.Source, bool) {
	src, err := record.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return src, true
}

// writeControlError maps controller errors onto HTTP statuses. Every
// control conflict is a 409: the request was well-formed, the crawl just
// is not in a state that accepts it.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, job.ErrAlreadyRunning),
		errors.Is(err, job.ErrNotRunning),
		errors.Is(err, job.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			log.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func recoverMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
