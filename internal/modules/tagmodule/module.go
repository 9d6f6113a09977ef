package tagmodule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
)

const moduleID = "system.tags"

// DefaultRecentDays is the rolling window for tag-scoped video listings.
const DefaultRecentDays = 7

// TagModule exposes tag matching and tag-scoped video listings.
type TagModule struct {
	db      *gorm.DB
	matcher *Matcher
}

// NewModule creates the tag module.
func NewModule(db *gorm.DB) *TagModule {
	return &TagModule{db: db, matcher: NewMatcher(db)}
}

// Register adds the module to the global registry.
func Register(db *gorm.DB) *TagModule {
	m := NewModule(db)
	modulemanager.Register(m)
	return m
}

func (m *TagModule) ID() string   { return moduleID }
func (m *TagModule) Name() string { return "Tag Matching" }
func (m *TagModule) Core() bool   { return true }

func (m *TagModule) Migrate(db *gorm.DB) error { return nil }
func (m *TagModule) Init() error               { return nil }

// Matcher exposes the matcher to other modules.
func (m *TagModule) Matcher() *Matcher { return m.matcher }

// RecentVideos lists videos tagged with the given tag inside a rolling day
// window, most recent first.
func (m *TagModule) RecentVideos(tagID uint, days int) ([]database.Video, error) {
	if days < 1 {
		days = DefaultRecentDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var videos []database.Video
	err := m.db.
		Joins("JOIN taggings ON taggings.video_id = videos.id").
		Where("taggings.tag_id = ?", tagID).
		Where("videos.posted_at >= ?", cutoff).
		Order("videos.posted_at DESC").
		Find(&videos).Error
	return videos, err
}

// RegisterRoutes attaches the tag surface.
func (m *TagModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/tags/:id/videos", m.handleRecentVideos)
	api.POST("/tags/:id/extract/:video_id", m.handleExtractOne)
	api.POST("/videos/:id/tags", m.handleApplyTags)
}

func (m *TagModule) handleRecentVideos(c *gin.Context) {
	tagID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	days := DefaultRecentDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days window"})
			return
		}
		days = n
	}
	videos, err := m.RecentVideos(tagID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos, "total": len(videos)})
}

func (m *TagModule) handleExtractOne(c *gin.Context) {
	tagID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	videoID, ok := uintParam(c, "video_id")
	if !ok {
		return
	}
	found, err := m.matcher.ExtractTags(videoID, &tagID)
	m.renderMatch(c, found, err)
}

func (m *TagModule) handleApplyTags(c *gin.Context) {
	videoID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	found, err := m.matcher.ApplyTags(videoID)
	m.renderMatch(c, found, err)
}

// renderMatch maps recoverable matcher outcomes to responses: empty results
// are reported, not treated as server errors.
func (m *TagModule) renderMatch(c *gin.Context, found []string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"tags": found})
	case errors.Is(err, ErrVideoNotFound), errors.Is(err, ErrTagNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoTranscription),
		errors.Is(err, ErrNoTagsInDatabase),
		errors.Is(err, ErrNoTagsFound):
		c.JSON(http.StatusOK, gin.H{"tags": []string{}, "reason": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}
