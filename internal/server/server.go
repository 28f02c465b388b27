// Package server provides the HTTP API for qsim.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/qsim/internal/config"
	"github.com/hyperjump/qsim/internal/dataset"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/storage"
	"go.uber.org/zap"
)

// Ranker runs one ranking pass.
type Ranker interface {
	Run(ctx context.Context, query string, topK int) (*models.Report, error)
}

// FolderLister reports the dataset folders being ranked.
type FolderLister interface {
	Folders() []dataset.FolderStatus
}

// Server is the HTTP server for the qsim API.
type Server struct {
	ranker  Ranker
	folders FolderLister
	storage storage.Storage // nil when the persistent cache is disabled
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil.
func NewServer(
	ranker Ranker,
	folders FolderLister,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ranker:  ranker,
		folders: folders,
		storage: store,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Long-lived socket; kept out of the timeout and compression group.
	r.Get("/api/v1/rank/ws", s.handleRankSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Post("/api/v1/rank", s.handleRank)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
