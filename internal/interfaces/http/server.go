// Package http provides the admin API adapter for the application layer.
// Handlers translate requests to article service and lifecycle engine calls.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/service"
	appworkflow "github.com/vlaamswoordenboek/woordenboek/internal/application/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
)

// DefaultUserHeader carries the acting user id
const DefaultUserHeader = "X-User-ID"

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CountSnapshot serves cached per-state counts
type CountSnapshot interface {
	Snapshot() (counts []entity.StateCount, refreshed time.Time, ok bool)
}

// QueueWriter renders the editorial queue
type QueueWriter interface {
	Write(w io.Writer, articles []*entity.Article, counts []entity.StateCount) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UserHeader   string

	// SuggestionLimit caps suggestions per client IP within SuggestionWindow; 0 disables it
	SuggestionLimit  int
	SuggestionWindow time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		UserHeader:   DefaultUserHeader,

		SuggestionLimit:  15,
		SuggestionWindow: time.Minute,
	}
}

// Dependencies are the collaborators the handlers call.
// Counts, Exporter and Metrics are optional.
type Dependencies struct {
	Articles service.ArticleService
	Engine   appworkflow.LifecycleEngine
	Identity port.IdentityProvider
	Counts   CountSnapshot
	Exporter QueueWriter
	Metrics  http.Handler
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.UserHeader == "" {
		config.UserHeader = DefaultUserHeader
	}

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(actorMiddleware(s.config.UserHeader))
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.deps, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	api := s.router.Group("/api")
	{
		api.GET("/articles", handlers.ListArticles)
		api.POST("/articles",
			suggestionLimitMiddleware(s.config.SuggestionLimit, s.config.SuggestionWindow, s.logger),
			handlers.CreateSuggestion)
		api.GET("/articles/counts", handlers.CountByState)
		api.GET("/articles/export", handlers.ExportQueue)
		api.GET("/articles/:id", handlers.GetArticle)
		api.PATCH("/articles/:id", handlers.EditArticle)
		api.GET("/articles/:id/transitions", handlers.AvailableTransitions)
		api.POST("/articles/:id/transitions/:trigger", handlers.InvokeTransition)
		api.DELETE("/articles/:id/editor", handlers.RemoveEditor)
		api.GET("/articles/:id/history", handlers.History)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
