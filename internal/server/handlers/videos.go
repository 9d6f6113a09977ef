package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
)

const defaultRecentLimit = 5

// handleRecentVideos lists transcribed videos, most recent first.
func handleRecentVideos(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	var videos []database.Video
	err := database.GetDB().
		Where("transcription IS NOT NULL").
		Order("posted_at DESC").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func handleShowVideo(c *gin.Context) {
	video, ok := findVideo(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, video)
}

// handleDeleteVideo removes the record; the model hook removes the backing
// file and thumbnails.
func handleDeleteVideo(c *gin.Context) {
	video, ok := findVideo(c)
	if !ok {
		return
	}
	if err := database.GetDB().Delete(video).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func findVideo(c *gin.Context) (*database.Video, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return nil, false
	}
	var video database.Video
	if err := database.GetDB().First(&video, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return &video, true
}
