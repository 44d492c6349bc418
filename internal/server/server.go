// Package server exposes the operational HTTP interface: health probes,
// Prometheus metrics, quota and cache introspection, and manual run triggers.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventradar/internal/cache"
	"eventradar/internal/catalog"
	"eventradar/internal/discovery"
	"eventradar/internal/metrics"
	"eventradar/internal/quota"
	"eventradar/internal/run"
)

// Server wires HTTP handlers to the scheduling engine components.
type Server struct {
	router  chi.Router
	ledger  *quota.Ledger
	alloc   *quota.Allocator
	cache   *cache.Cache
	catalog *catalog.Catalog
	runner  *run.Runner
	events  discovery.EventStore
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	ledger *quota.Ledger,
	alloc *quota.Allocator,
	respCache *cache.Cache,
	cat *catalog.Catalog,
	runner *run.Runner,
	events discovery.EventStore,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ledger:  ledger,
		alloc:   alloc,
		cache:   respCache,
		catalog: cat,
		runner:  runner,
		events:  events,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/quota", func(r chi.Router) {
			r.Get("/", s.getQuota)
			r.Get("/history", s.getQuotaHistory)
			r.Get("/plan", s.getPlan)
		})
		r.Route("/cache", func(r chi.Router) {
			r.Get("/", s.getCacheStats)
			r.Post("/cleanup", s.cleanupCache)
		})
		r.Get("/catalog", s.getCatalog)
		r.Get("/events/count", s.getEventCount)
		r.Post("/runs/{kind}", s.triggerRun)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The ledger exercises the state store; if it answers, state is reachable.
	if _, err := s.ledger.Status(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "state store unavailable", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
}

func (s *Server) getQuota(w http.ResponseWriter, r *http.Request) {
	status, err := s.ledger.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, status, s.logger)
}

func (s *Server) getQuotaHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.ledger.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": history, "count": len(history)}, s.logger)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.alloc.Plan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, plan, s.logger)
}

func (s *Server) getCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, stats, s.logger)
}

func (s *Server) cleanupCache(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.cache.ClearExpired(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared}, s.logger)
}

func (s *Server) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   s.catalog.Len(),
		"by_tier": s.catalog.Stats(),
		"queries": s.catalog.All(),
	}, s.logger)
}

func (s *Server) getEventCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.events.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"events": count}, s.logger)
}

func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	kind := discovery.RunKind(chi.URLParam(r, "kind"))
	switch kind {
	case discovery.RunComprehensive, discovery.RunQuick, discovery.RunSocial:
	default:
		writeError(w, http.StatusBadRequest, "unknown run kind", s.logger)
		return
	}

	report, err := s.runner.Run(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, report, s.logger)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error", logger)
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

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}
