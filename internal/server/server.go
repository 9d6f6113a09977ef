package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mediahubpy/mediahub/internal/config"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
	"github.com/mediahubpy/mediahub/internal/server/handlers"
	"github.com/mediahubpy/mediahub/internal/server/middleware"
)

// SetupRouter configures and returns the main router. Modules attach their
// own routes through the registry; the handlers package carries the
// cross-module read surface.
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.ErrorLogger(), gin.Recovery())

	if cfg.Server.EnableCORS {
		r.Use(corsMiddleware())
	}

	r.GET("/up", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Serve imported clips and thumbnails directly.
	r.Static("/public", cfg.Storage.PublicDir)

	handlers.RegisterRoutes(r, cfg)
	modulemanager.RegisterRoutes(r)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
