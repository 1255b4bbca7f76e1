package routes

import (
	"net/http"

	"asset-registry-api/internal/handlers"
	"asset-registry-api/internal/metrics"
	"asset-registry-api/internal/middleware"
	"asset-registry-api/internal/realtime"
	"asset-registry-api/internal/registry"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Registry *registry.Registry
	Hub      *realtime.Hub
	Metrics  *metrics.Metrics
	Auth     *handlers.AuthHandler
}

func SetupRoutes(deps Deps) *gin.Engine {
	ginRouter := gin.Default()

	ginRouter.Use(middleware.CORS())

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Asset registry API is running",
		})
	})

	if deps.Metrics != nil {
		ginRouter.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	hub := deps.Hub
	if hub == nil {
		hub = realtime.GetHub()
	}
	registryHandler := handlers.NewRegistryHandler(deps.Registry)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		if deps.Auth != nil {
			api.POST("/login", deps.Auth.Login)
		}
		api.GET("/networks", registryHandler.ListNetworks)
		api.GET("/networks/:network/assets", registryHandler.GetAssets)
		api.GET("/networks/:network/icons", registryHandler.GetIcons)
		api.GET("/networks/:network/:kind/entry", registryHandler.GetEntry)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		protectedRoutes.POST("/networks/:network/refresh", registryHandler.Refresh)
		protectedRoutes.DELETE("/networks/:network/:kind/entry", registryHandler.Invalidate)
		protectedRoutes.GET("/ws", handlers.WebSocketHandler(hub))
	}

	return ginRouter
}
