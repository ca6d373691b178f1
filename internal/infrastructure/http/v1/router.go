// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/http/v1/handlers"
	"recyclebin/internal/infrastructure/http/v1/middleware"
	"recyclebin/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Service is the trash lifecycle
	Service *lifecycle.Service

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// RequiredRole gates every trash route; admins always pass
	RequiredRole string

	// Health is served under /health
	Health *handlers.HealthHandler

	// HTTPObserver records request metrics (optional)
	HTTPObserver middleware.HTTPObserver

	// Gatherer backs GET /metrics (optional)
	Gatherer prometheus.Gatherer

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger, "/health/live", "/health/ready", "/metrics"))
	if cfg.HTTPObserver != nil {
		router.Use(middleware.Metrics(cfg.HTTPObserver))
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	if cfg.Health != nil {
		health := router.Group("/health")
		{
			health.GET("/live", cfg.Health.Live)
			health.GET("/ready", cfg.Health.Ready)
			health.GET("/info", cfg.Health.Info)
		}
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerTrashRoutes(protected, cfg)
	}

	return router
}

// registerTrashRoutes registers the recycle bin endpoints.
func registerTrashRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewTrashHandler(handlers.NewBaseHandler(), cfg.Service)

	var roles []string
	if cfg.RequiredRole != "" {
		roles = append(roles, cfg.RequiredRole)
	}
	RegisterTrashRoutes(rg.Group("/trash"), handler, roles...)
}
