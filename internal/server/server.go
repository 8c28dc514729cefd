package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"wasfa/internal/config"
	"wasfa/internal/handlers"
	applog "wasfa/internal/log"
)

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready API service.
type Server struct {
	config     config.Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration, wiring the
// handler layer to the database and optional AI client.
func New(cfg config.Config, db *gorm.DB, suggester handlers.RecipeSuggester) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Server.Addr,
		"uploadDir", cfg.Server.UploadDir,
	)

	if strings.TrimSpace(cfg.Server.UploadDir) == "" {
		applog.Debug(context.Background(), "upload directory not provided, using default")
		cfg.Server.UploadDir = "uploads"
	}

	handlers.Configure(db, cfg, suggester)

	applog.Debug(context.Background(), "handler dependencies configured")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           newRouter(cfg.Server.UploadDir),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
