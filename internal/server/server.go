// Package server provides the HTTP API for Araldo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/civicline/araldo/internal/config"
	"github.com/civicline/araldo/internal/keyword"
	"github.com/civicline/araldo/internal/pipeline"
	"github.com/civicline/araldo/internal/retrieval"
	"github.com/civicline/araldo/internal/storage"
	"github.com/civicline/araldo/internal/vector"
)

// Server is the HTTP server for the Araldo API.
type Server struct {
	pipeline  *pipeline.Pipeline
	retriever *retrieval.Retriever
	keyword   *keyword.Index
	store     storage.Store
	index     *vector.FlatIndex
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	p *pipeline.Pipeline,
	retriever *retrieval.Retriever,
	kw *keyword.Index,
	store storage.Store,
	index *vector.FlatIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  p,
		retriever: retriever,
		keyword:   kw,
		store:     store,
		index:     index,
		config:    cfg,
		logger:    logger,
	}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/refresh", s.handleRefresh)
	r.Post("/api/v1/uploads", s.handleUpload)
	r.Get("/api/v1/search/keyword", s.handleKeywordSearch)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
