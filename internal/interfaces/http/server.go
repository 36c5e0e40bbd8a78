// Package http exposes the payroll services over a thin gin adapter.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/school-payroll/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthReporter reports overall health plus per-component details
type HealthReporter func(ctx context.Context) (healthy bool, details interface{})

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Mode:            gin.ReleaseMode,
	}
}

// Services are the application services the adapter exposes
type Services struct {
	Catalog    service.CatalogService
	Assignment service.AssignmentService
	Resolver   service.ResolverService
	History    service.HistoryService
	Run        service.RunService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, health HealthReporter, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, health, logger),
		logger:   logger,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(server.loggingMiddleware())
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1", tenantMiddleware())
	{
		api.POST("/components", h.CreateComponent)
		api.GET("/components", h.ListComponents)
		api.GET("/components/:id", h.GetComponent)
		api.PATCH("/components/:id", h.UpdateComponent)
		api.DELETE("/components/:id", h.DeleteComponent)

		api.POST("/assignments", h.CreateAssignment)
		api.PATCH("/assignments/:id", h.UpdateAssignment)
		api.DELETE("/assignments/:id", h.DeleteAssignment)
		api.GET("/staff/:id/assignments", h.ListStaffAssignments)
		api.GET("/staff/:id/preview", h.PreviewStaff)

		api.POST("/runs", h.CreateRun)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.DELETE("/runs/:id", h.DeleteRun)
		api.GET("/runs/:id/items", h.GetRunItems)
		api.GET("/runs/:id/history", h.GetRunHistory)
		api.POST("/runs/:id/prepare", h.PrepareRun)
		api.POST("/runs/:id/submit", h.SubmitRun)
		api.POST("/runs/:id/approve", h.ApproveRun)
		api.POST("/runs/:id/reject", h.RejectRun)
		api.POST("/runs/:id/finalize", h.FinalizeRun)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
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

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
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
