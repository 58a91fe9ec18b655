// Package server is the thin HTTP and gRPC surface over the pipeline.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/export"
	"github.com/joseph-ayodele/contact-extractor/internal/ingest"
)

// Extractor is the pipeline surface the server exposes.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename, mimeType string) (entity.Result, error)
	Submit(ctx context.Context, data []byte, filename, mimeType string) (string, error)
	Status(ctx context.Context, id string) (entity.JobStatus, error)
	Health(ctx context.Context) entity.Health
}

const requestIDHeader = "X-Request-ID"

// Server holds the state for the REST API server.
type Server struct {
	svc        Extractor
	exporter   *export.Service
	ingestor   ingest.Ingestor
	ingestBase string // resolved directory every ingest root must sit under
	maxUpload  int64
	logger    *slog.Logger
	router    *gin.Engine
}

type Option func(*Server)

// WithIngestor enables POST /v1/ingest for directories under base on the server's
// filesystem. The route stays disabled when base is empty or cannot be resolved.
func WithIngestor(i ingest.Ingestor, base string) Option {
	return func(s *Server) {
		if i == nil || strings.TrimSpace(base) == "" {
			return
		}
		resolved, err := resolveDir(base)
		if err != nil {
			s.logger.Warn("http.ingest.disabled", "base", base, "error", err)
			return
		}
		s.ingestor, s.ingestBase = i, resolved
	}
}

// NewServer creates a new Server instance.
func NewServer(svc Extractor, exporter *export.Service, maxUpload int64, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger))
	// multipart bodies above this spill to disk
	r.MaxMultipartMemory = maxUpload + 1<<20
	s := &Server{
		svc:       svc,
		exporter:  exporter,
		maxUpload: maxUpload,
		logger:    logger,
		router:    r,
	}
	for _, o := range opts {
		o(s)
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// HTTPServer wraps the router for graceful shutdown by the caller.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.POST("/v1/extract", s.handleExtract)
	s.router.POST("/v1/jobs", s.handleSubmit)
	s.router.GET("/v1/jobs/:id", s.handleStatus)
	if s.ingestor != nil {
		s.router.POST("/v1/ingest", s.handleIngest)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		common.LoggerFrom(c.Request.Context(), logger).Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// errorBody is the JSON shape of every failed call.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func handleError(c *gin.Context, err error) {
	c.JSON(common.HTTPStatus(err), gin.H{"error": errorBody{Code: common.CodeOf(err), Message: err.Error()}})
}
