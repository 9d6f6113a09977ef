package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediahubpy/mediahub/internal/config"
)

// RegisterRoutes attaches the cross-module read/write surface consumed by
// the UI layer.
func RegisterRoutes(r *gin.Engine, cfg *config.Config) {
	api := r.Group("/api")

	api.GET("/videos/recent", handleRecentVideos)
	api.GET("/videos/:id", handleShowVideo)
	api.GET("/videos/:id/thumbnail", handleThumbnail)
	api.DELETE("/videos/:id", handleDeleteVideo)

	api.GET("/topics/:id", handleShowTopic)

	// Operational endpoints owned by external tooling; acknowledged only.
	api.POST("/deploy", handleAccepted)
	api.POST("/merge-videos", handleAccepted)
}

func handleAccepted(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
