// Package web provides the HTTP server for uploading CSV files and viewing stored users.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/database"
	webmw "github.com/JonMunkholm/UserUpload/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Ingester runs one ingestion of a file on disk.
type Ingester interface {
	Ingest(ctx context.Context, sourcePath string) core.IngestResult
}

// UserStore reads stored users for display.
type UserStore interface {
	List(ctx context.Context, limit int) ([]database.User, error)
	Count(ctx context.Context) (int64, error)
}

// PoolMonitor reports connection pool usage.
type PoolMonitor interface {
	Status() database.PoolStatus
}

// Server is the HTTP server for the uploader.
type Server struct {
	cfg      *config.Config
	ingester Ingester
	users    UserStore
	pool     PoolMonitor
	router   *chi.Mux
	server   *http.Server
	limiter  *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, ingester Ingester, users UserStore, pool PoolMonitor) *Server {
	s := &Server{
		cfg:      cfg,
		ingester: ingester,
		users:    users,
		pool:     pool,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Server.RateLimit > 0 {
		s.limiter = newRateLimiter(s.cfg.Server.RateLimit, rateWindow)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
// POST /api/ingest is bounded by Upload.Timeout alone; every other route gets
// the shorter Server.RequestTimeout.
func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		s.useRequestTimeout(r)

		// Pages
		r.Get("/", s.handleIndex)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			s.useRequestTimeout(r)
			r.Get("/users", s.handleListUsers)
			r.Get("/pool", s.handlePoolStatus)
		})
		r.Post("/ingest", s.handleIngest)
	})
}

func (s *Server) useRequestTimeout(r chi.Router) {
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.Server.ReadTimeout,
		IdleTimeout: s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The listing page has no scripts; styles are inline
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
