package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService         driving.AuthService
	ingestService       driving.IngestService
	searchService       driving.SearchService
	qaService           driving.QAService
	completenessService driving.CompletenessService
	jobService          driving.JobService

	// Infrastructure
	provider driven.AIProvider
	db       Pinger // PostgreSQL health check
	queue    Pinger // task queue health check
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	ingestService driving.IngestService,
	searchService driving.SearchService,
	qaService driving.QAService,
	completenessService driving.CompletenessService,
	jobService driving.JobService,
	provider driven.AIProvider,
	db Pinger,
	queue Pinger,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:              http.NewServeMux(),
		version:             cfg.Version,
		logger:              logger.With("component", "http"),
		authService:         authService,
		ingestService:       ingestService,
		searchService:       searchService,
		qaService:           qaService,
		completenessService: completenessService,
		jobService:          jobService,
		provider:            provider,
		db:                  db,
		queue:               queue,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  5 * time.Minute, // uploads stream through the request body
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /health/detailed", s.handleDetailedHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /metrics", s.handleMetrics)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Document endpoints (authenticated)
	s.router.Handle("POST /api/v1/documents/upload",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpload)))
	s.router.Handle("POST /api/v1/documents/batch-upload",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleBatchUpload)))
	s.router.Handle("GET /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteDocument)))

	// Retrieval endpoints (authenticated)
	s.router.Handle("POST /api/v1/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearch)))
	s.router.Handle("POST /api/v1/search/filtered",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearchFiltered)))
	s.router.Handle("POST /api/v1/qa",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQA)))
	s.router.Handle("POST /api/v1/completeness",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCompleteness)))

	// Job polling (authenticated)
	s.router.Handle("GET /api/v1/jobs/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleJobStatus)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
