// Package server exposes the comparison engine over HTTP: ingestion, row
// and metrics queries, override edits, reset, export, and remote fetch.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bxl-digital/compare-cli/internal/compare"
	"github.com/bxl-digital/compare-cli/internal/config"
	"github.com/bxl-digital/compare-cli/internal/registry"
	"github.com/bxl-digital/compare-cli/internal/store"
	"github.com/bxl-digital/compare-cli/pkg/backend"
)

// Server wires the engine's pieces behind the HTTP API.
type Server struct {
	cfg     config.ServerConfig
	session *Session
	store   store.Store
	builder *compare.Builder
	reg     *registry.Registry
	// backend is nil when no backend is configured; the fetch endpoint
	// then responds 503.
	backend backend.Client
}

// New creates a Server. The backend client may be nil.
func New(cfg config.ServerConfig, st store.Store, reg *registry.Registry, client backend.Client) *Server {
	return &Server{
		cfg:     cfg,
		session: NewSession(),
		store:   st,
		builder: compare.NewBuilder(st),
		reg:     reg,
		backend: client,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/ingest", s.handleIngest)
		v1.Post("/fetch", s.handleFetch)
		v1.Get("/cars", s.handleCars)
		v1.Get("/rows", s.handleRows)
		v1.Get("/metrics", s.handleMetrics)
		v1.Put("/overrides/final", s.handleSetFinal)
		v1.Put("/overrides/cell", s.handleSetCell)
		v1.Post("/reset", s.handleReset)
		v1.Get("/export", s.handleExport)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
