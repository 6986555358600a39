// Package httpapi exposes the viewer over HTTP: the map page, the
// dataset, the year-query API, and the usual health and metrics routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/viewer"
	"montreal-tree-map/web"
)

// Server bundles router and dependencies for the viewer API.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	logger      *slog.Logger
	metrics     *observability.Metrics
	datasetPath string

	// store is nil until the dataset load finishes; handlers answer 503
	// in the meantime so no year-query runs before the index exists.
	store atomic.Pointer[viewer.Store]
}

// New constructs a server with routes and middleware. The store is
// attached later via SetStore once the dataset load resolves.
func New(addr, datasetPath string, logger *slog.Logger, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:      logger,
		metrics:     metrics,
		datasetPath: datasetPath,
	}
	s.registerRoutes()
	return s
}

// SetStore publishes a loaded store, flipping the server to ready.
func (s *Server) SetStore(store *viewer.Store) {
	s.store.Store(store)
	if store != nil {
		s.metrics.DatasetRecords.Set(float64(store.Len()))
	}
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins listening. Returns http.ErrServerClosed on graceful
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})
	s.engine.GET("/data/trees.json", func(c *gin.Context) {
		c.File(s.datasetPath)
	})

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/trees", s.handleTrees)
		v1.GET("/years", s.handleYears)
		v1.GET("/species", s.handleSpecies)
		v1.GET("/meta", s.handleMeta)
	}
}

func (s *Server) handleReady(c *gin.Context) {
	if s.store.Load() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "dataset not loaded yet",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// readyStore returns the loaded store or writes a 503 and returns nil.
func (s *Server) readyStore(c *gin.Context) *viewer.Store {
	store := s.store.Load()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset not loaded yet"})
	}
	return store
}
