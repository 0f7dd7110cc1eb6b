package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/orgs/:org/runs", handler.ListRuns)
		v1.GET("/runs/:id", handler.GetRun)
	}

	return router
}
