// Package httpserver provides the HTTP REST API of the literature resolution service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/mirrors"
	"github.com/helixir/literature-resolution-service/internal/mirrors/health"
	"github.com/helixir/literature-resolution-service/internal/resolver"
)

// Resolver resolves a request into records. It never fails; degraded
// outcomes are returned as stub records.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) []domain.Record
}

// Prober checks mirror reachability.
type Prober interface {
	Probe(ctx context.Context, endpoints []domain.MirrorEndpoint) ([]health.Result, error)
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	resolver   Resolver
	catalog    *mirrors.Catalog
	prober     Prober
	validate   *validator.Validate
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server. prober may be nil, in which case the
// mirror health endpoint reports 503.
func NewServer(cfg Config, res Resolver, catalog *mirrors.Catalog, prober Prober, logger zerolog.Logger) *Server {
	s := &Server{
		resolver: res,
		catalog:  catalog,
		prober:   prober,
		validate: newValidator(),
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)
	r.Use(requestLogMiddleware(s.logger))

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolve)
		r.Get("/resolve/doi/*", s.resolveDOI)
		r.Get("/mirrors", s.listMirrors)
		r.Get("/mirrors/health", s.mirrorHealth)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports ready once a catalog with at least one mirror and
// one relay is loaded.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil || len(s.catalog.DOIMirrors()) == 0 || len(s.catalog.Relays()) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  "mirror catalog is empty",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"doi_mirrors":    len(s.catalog.DOIMirrors()),
		"search_mirrors": len(s.catalog.SearchMirrors()),
		"relays":         len(s.catalog.Relays()),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
