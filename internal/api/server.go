package api

import (
	"GridForge/internal/api/handlers"
	"GridForge/internal/config"
	"GridForge/internal/job"
	"GridForge/internal/pipeline"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	router         *chi.Mux
	executor       pipeline.Executor
	jobManager     *job.Manager
	composeHandler *handlers.ComposeHandler
	cfg            *config.Config
	logger         *zap.Logger
	httpServer     *http.Server
	cancel         context.CancelFunc
}

func NewServer(executor pipeline.Executor, jobManager *job.Manager, cfg *config.Config, logger *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		executor:   executor,
		jobManager: jobManager,
		cfg:        cfg,
		logger:     logger,
		cancel:     cancel,
	}
	s.composeHandler = handlers.NewComposeHandler(ctx, jobManager, executor, cfg.Compose, cfg.Server, logger)

	// Setup router
	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)

	// CORS headers are only sent for explicitly configured origins.
	if len(s.cfg.Server.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	jobsHandler := handlers.NewJobsHandler(s.jobManager, s.logger)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", s.handleHealth)

	// Returns as soon as the job is recorded; the composition runs in the background.
	s.router.With(middleware.Timeout(30*time.Second)).Post("/compose", s.composeHandler.Handle)

	s.router.With(middleware.Timeout(30*time.Second)).Get("/jobs/{id}", jobsHandler.GetJob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "gridforge",
		"version": "1.0.0",
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, cancels running compositions and waits
// for their jobs to be recorded.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.cancel()
	s.composeHandler.Wait()
	return err
}
