package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
)

// Topic access outcomes. Authentication itself is external; the caller
// passes the acting user through the X-User-ID header.
var (
	errTopicDisabled   = errors.New("topic is disabled")
	errTopicNotAllowed = errors.New("topic is not assigned to this user")
)

// handleShowTopic returns a topic with its tags, enforcing the visibility
// rules: disabled topics reject access, and only assigned users may read.
func handleShowTopic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic id"})
		return
	}

	var topic database.Topic
	err = database.GetDB().Preload("Tags").First(&topic, uint(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if err := authorizeTopic(c, &topic); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, topic)
}

func authorizeTopic(c *gin.Context, topic *database.Topic) error {
	if !topic.Status {
		return errTopicDisabled
	}

	userID, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32)
	if err != nil {
		return errTopicNotAllowed
	}
	var count int64
	database.GetDB().
		Table("user_topics").
		Where("topic_id = ? AND user_id = ?", topic.ID, uint(userID)).
		Count(&count)
	if count == 0 {
		return errTopicNotAllowed
	}
	return nil
}
