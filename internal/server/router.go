package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ironquote/ironquote-backend/internal/handlers"
	"github.com/ironquote/ironquote-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName      string
	PricingHandler   *handlers.PricingHandler
	TenantMiddleware *middleware.TenantMiddleware
	AllowOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ironquote-backend"
	}
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.AttachTraceContext())

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Tenant-ID", "X-Actor", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.TenantMiddleware.RequireTenant())
	{
		// Run lifecycle
		api.POST("/requests/:id/pricing-runs", cfg.PricingHandler.CreateRun)
		api.GET("/requests/:id/pricing-runs", cfg.PricingHandler.ListRunsForRequest)
		api.GET("/pricing-runs/:id", cfg.PricingHandler.GetRun)
		api.GET("/pricing-runs/:id/items", cfg.PricingHandler.GetRunItems)
		// Versioning
		api.GET("/pricing-runs/:id/versions", cfg.PricingHandler.GetVersions)
		api.GET("/pricing-runs/:id/snapshots", cfg.PricingHandler.GetSnapshots)
		api.GET("/pricing-runs/:id/diff", cfg.PricingHandler.CompareVersions)
		api.POST("/pricing-runs/:id/revisions", cfg.PricingHandler.CreateRevision)
		// Locking and outcome
		api.POST("/pricing-runs/:id/lock", cfg.PricingHandler.LockRun)
		api.PATCH("/pricing-runs/:id/outcome", cfg.PricingHandler.UpdateOutcome)
	}

	return router
}
