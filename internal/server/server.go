// Package server exposes the archive over HTTP. The surface is thin
// presentation glue: the sync endpoint runs the orchestrator and the read
// endpoints serve the stored records as-is.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gnonk323/wordle-archive/internal/model"
	"github.com/gnonk323/wordle-archive/internal/service"
)

// SyncRunner triggers a full sync run.
type SyncRunner interface {
	Run(ctx context.Context) (*model.SyncSummary, error)
}

// ArchiveProvider serves the stored archive.
type ArchiveProvider interface {
	Games(ctx context.Context) (*service.Archive, error)
}

// Pinger reports storage health.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Server is the HTTP front of the archive service.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New creates the HTTP server and registers all routes.
func New(port int, allowedOrigins []string, syncs SyncRunner, archive ArchiveProvider, db Pinger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	if len(allowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = allowedOrigins
		corsCfg.AllowCredentials = true
		engine.Use(cors.New(corsCfg))
	}

	h := &handler{syncs: syncs, archive: archive, db: db}

	engine.GET("/", h.root)
	engine.GET("/healthz", h.health)
	engine.GET("/games", h.games)
	engine.GET("/games/export", h.exportGames)
	engine.POST("/sync", h.sync)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("HTTP server starting")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}

// requestLogger logs each request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}
