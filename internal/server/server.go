// Package server serves projected term graphs and the page that draws them.
package server

import (
	"context"
	"embed"
	"net/http"
	"sort"
	"time"

	"termgraph/internal/graph"
	"termgraph/internal/metrics"
	"termgraph/internal/terms"
	"termgraph/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:embed web/index.html
var web embed.FS

// GraphReader reads a mirrored graph
type GraphReader interface {
	FetchGraph(ctx context.Context, model string) (graph.Data, error)
}

// Server exposes the term stores over HTTP
type Server struct {
	store    *terms.Store
	models   []string
	mirror   GraphReader
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	loads    singleflight.Group
	logger   *zap.Logger
}

// New creates a server over store. models are the configured backends;
// models that only exist on disk are served too.
func New(store *terms.Store, models []string, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	return &Server{
		store:    store,
		models:   models,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger.Named("server"),
	}
}

// SetMirror enables ?source=neo4j on graph requests
func (s *Server) SetMirror(mirror GraphReader) {
	s.mirror = mirror
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	// gateway model ids carry an escaped "/" in the :model segment
	router.UseRawPath = true
	router.Use(requestID())
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/", s.index)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/models", s.listModels)
		api.GET("/graph/:model", s.getGraph)
		api.GET("/render-options", func(c *gin.Context) {
			c.JSON(http.StatusOK, graph.DefaultRenderOptions())
		})
	}

	return router
}

func (s *Server) index(c *gin.Context) {
	page, err := web.ReadFile("web/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "page missing"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// knownModels merges configured models with those found on disk, configured first
func (s *Server) knownModels() ([]string, error) {
	onDisk, err := s.store.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(s.models))
	models := make([]string, 0, len(s.models)+len(onDisk))
	for _, m := range s.models {
		if !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}
	extra := []string{}
	for _, m := range onDisk {
		if !seen[m] {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	return append(models, extra...), nil
}

func (s *Server) listModels(c *gin.Context) {
	models, err := s.knownModels()
	if err != nil {
		s.logger.Error("Failed to list models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list models"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) getGraph(c *gin.Context) {
	model := c.Param("model")

	models, err := s.knownModels()
	if err != nil {
		s.logger.Error("Failed to list models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list models"})
		return
	}
	known := false
	for _, m := range models {
		if m == model {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		return
	}

	if c.Query("source") == "neo4j" {
		if s.mirror == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Neo4j mirror not configured"})
			return
		}
		data, err := s.mirror.FetchGraph(c.Request.Context(), model)
		if err != nil {
			s.logger.Error("Failed to fetch mirrored graph", logger.Model(model), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch graph"})
			return
		}
		c.JSON(http.StatusOK, data)
		return
	}

	// concurrent requests for one model share a single file read
	v, err, _ := s.loads.Do(model, func() (any, error) {
		m, err := s.store.Load(model)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveStore(model, m.Len(), m.FrontierLen())
		return graph.Project(m), nil
	})
	if err != nil {
		s.logger.Error("Failed to load terms", logger.Model(model), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, v.(graph.Data))
}

// requestID tags each request with an X-Request-ID, keeping one sent by the client
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
