// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "gasworld/internal/core/context"
	"gasworld/internal/domain/auth"
	"gasworld/internal/domain/pit"
	"gasworld/internal/domain/product"
	"gasworld/internal/domain/reading"
	"gasworld/internal/domain/sales"
	"gasworld/internal/domain/station"
	"gasworld/internal/infrastructure/http/v1/handlers"
	"gasworld/internal/infrastructure/http/v1/middleware"
	"gasworld/internal/infrastructure/storage/postgres"
	"gasworld/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	TokenVerifier middleware.TokenVerifier

	AuthService    *auth.Service
	StationService *station.Service
	ProductService *product.Service
	PitService     *pit.Service
	Recorder       *reading.Recorder
	SalesService   *sales.Service

	AuditSource handlers.HistorySource
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	registryHandler := handlers.NewRegistryHandler(base, cfg.StationService, cfg.ProductService)
	pitHandler := handlers.NewPitHandler(base, cfg.PitService)
	readingHandler := handlers.NewReadingHandler(base, cfg.Recorder)
	salesHandler := handlers.NewSalesHandler(base, cfg.SalesService)
	auditHandler := handlers.NewAuditHandler(base, cfg.AuditSource)

	v1 := router.Group("/api/v1")
	{
		// Public auth routes
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.TokenVerifier))

		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		// Staff administration (owner)
		owner := protected.Group("")
		owner.Use(middleware.RequireRole(appctx.RoleOwner))
		{
			owner.POST("/auth/register", authHandler.Register)
			owner.PUT("/users/:id/assignment", authHandler.Reassign)
			owner.DELETE("/users/:id", authHandler.Deactivate)

			owner.POST("/stations", registryHandler.CreateStation)
			owner.PUT("/stations/:id", registryHandler.UpdateStation)
			owner.PUT("/stations/:id/manager", registryHandler.AssignManager)
			owner.DELETE("/stations/:id", registryHandler.DeleteStation)

			owner.GET("/audit/:entityType/:id", auditHandler.History)
		}

		// Registry (owner or manager)
		staff := protected.Group("")
		staff.Use(middleware.RequireRole(appctx.RoleOwner, appctx.RoleManager))
		{
			staff.GET("/stations", registryHandler.ListStations)
			staff.GET("/stations/:id/staff", authHandler.ListStaff)
			staff.POST("/products", registryHandler.CreateProduct)
			staff.POST("/pumps", registryHandler.CreatePump)
			staff.POST("/pits", pitHandler.Create)
		}

		protected.GET("/stations/:id", registryHandler.GetStation)
		protected.GET("/stations/:id/products", registryHandler.ListProducts)
		protected.GET("/stations/:id/pumps", registryHandler.ListPumps)
		protected.GET("/stations/:id/pits", pitHandler.ListByStation)
		protected.GET("/stations/:id/readings", readingHandler.ListByStation)
		protected.GET("/stations/:id/sales", salesHandler.ListByStation)
		protected.GET("/pumps/:id", registryHandler.GetPump)
		protected.GET("/pits/:id", pitHandler.Get)
		protected.GET("/pits/:id/readings", pitHandler.ListReadings)

		// Derivation pipeline. Role claims gate the route; the services
		// re-check capabilities through the authorization guard.
		manager := protected.Group("")
		manager.Use(middleware.RequireRole(appctx.RoleManager))
		{
			manager.POST("/readings", readingHandler.Open)
			manager.POST("/readings/record", readingHandler.Record)
			manager.POST("/pits/:id/adjustments", pitHandler.AdjustVolume)
			manager.POST("/pits/:id/readings", pitHandler.RecordReading)
			manager.POST("/sales/:id/close", salesHandler.Close)
		}

		protected.GET("/readings/:id", readingHandler.Get)
		protected.PUT("/readings/:id/closing", readingHandler.Close)
		protected.GET("/readings/:id/sales", salesHandler.GetByReading)
		protected.GET("/pumps/:id/readings", readingHandler.ListByPump)
		protected.GET("/attendants/:id/readings", readingHandler.ListByAttendant)
		protected.GET("/attendants/:id/sales", salesHandler.ListByAttendant)
		protected.GET("/sales/:id", salesHandler.Get)

		// Reconciliation entry is staff work; the service narrows it
		// further to the record's attendant or station manager.
		reconcile := protected.Group("")
		reconcile.Use(middleware.RequireRole(appctx.RoleManager, appctx.RoleAttendant))
		{
			reconcile.PUT("/sales/:id", salesHandler.Update)
		}
	}

	return router
}
