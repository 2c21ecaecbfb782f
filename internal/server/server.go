package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abagames/algo-chip-sub000/internal/composer"
	"github.com/abagames/algo-chip-sub000/internal/motif"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
}

// Server is the HTTP server
type Server struct {
	config   Config
	router   *chi.Mux
	logger   *slog.Logger
	composer *composer.Composer
	jobs     *JobManager
}

// New creates a new server over a validated motif library
func New(cfg Config, lib *motif.Library) *Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	c := composer.New(lib)
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		composer: c,
		jobs:     NewJobManager(c),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.handleHealth)

	// API
	r.Post("/api/compose", s.handleCompose)
	r.Get("/api/styles", s.handleStyles)
	r.Post("/api/jobs", s.handleCreateJob)
	r.Get("/api/jobs/{id}", s.handleGetJob)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		s.logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	s.logger.Info("server starting", slog.Int("port", s.config.Port))

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
