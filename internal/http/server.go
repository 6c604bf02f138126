package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/signatures/internal/config"
	resilienceHTTP "github.com/allisson/signatures/internal/resilience/http"
	routingHTTP "github.com/allisson/signatures/internal/routing/http"
	signatureHTTP "github.com/allisson/signatures/internal/signature/http"
)

// Server is the API HTTP server.
type Server struct {
	server       *http.Server
	logger       *slog.Logger
	shuttingDown atomic.Bool
}

// NewServer builds the API server with its routes and middleware. The
// metricsMiddleware parameter may be nil when metrics are disabled.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	signatureHandler *signatureHTTP.SignatureHandler,
	ruleHandler *routingHTTP.RuleHandler,
	adminHandler *resilienceHTTP.AdminHandler,
	metricsMiddleware gin.HandlerFunc,
) *Server {
	s := &Server{logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if metricsMiddleware != nil {
		router.Use(metricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.RateLimitEnabled {
		router.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		requests := v1.Group("/signature-requests")
		{
			requests.POST("", signatureHandler.CreateHandler)
			requests.GET("/:id", signatureHandler.GetHandler)
			requests.POST("/:id/complete", signatureHandler.CompleteHandler)
			requests.POST("/:id/abort", signatureHandler.AbortHandler)
		}

		rules := v1.Group("/routing-rules")
		{
			rules.POST("", ruleHandler.CreateHandler)
			rules.GET("", ruleHandler.ListHandler)
			rules.GET("/:id", ruleHandler.GetHandler)
			rules.PUT("/:id", ruleHandler.UpdateHandler)
			rules.DELETE("/:id", ruleHandler.DeleteHandler)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/degraded-mode", adminHandler.StatusHandler)
			admin.POST("/degraded-mode/maintenance", adminHandler.EnterMaintenanceHandler)
			admin.DELETE("/degraded-mode/maintenance", adminHandler.ExitMaintenanceHandler)
			admin.POST("/providers/:provider/reactivate", adminHandler.ReactivateProviderHandler)
			admin.GET("/breakers", adminHandler.ListBreakersHandler)
			admin.POST("/breakers/:provider/reset", adminHandler.ResetBreakerHandler)
		}
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// readinessHandler reports not ready once shutdown has started so load
// balancers stop routing new requests during the drain.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.shuttingDown.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.shuttingDown.Store(true)
	return s.server.Shutdown(ctx)
}
