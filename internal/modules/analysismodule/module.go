package analysismodule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
)

const moduleID = "system.analysis"

// AnalysisModule exposes transcript frequency tables.
type AnalysisModule struct {
	db       *gorm.DB
	analyzer *Analyzer
}

// NewModule creates the analysis module with the default word sets.
func NewModule(db *gorm.DB) *AnalysisModule {
	return &AnalysisModule{
		db:       db,
		analyzer: NewAnalyzer(DefaultStopWords(), DefaultFilteredPhrases()),
	}
}

// Register adds the module to the global registry.
func Register(db *gorm.DB) *AnalysisModule {
	m := NewModule(db)
	modulemanager.Register(m)
	return m
}

func (m *AnalysisModule) ID() string   { return moduleID }
func (m *AnalysisModule) Name() string { return "Transcript Analysis" }
func (m *AnalysisModule) Core() bool   { return true }

func (m *AnalysisModule) Migrate(db *gorm.DB) error { return nil }
func (m *AnalysisModule) Init() error               { return nil }

// Analyzer exposes the engine to other modules and handlers.
func (m *AnalysisModule) Analyzer() *Analyzer { return m.analyzer }

// RegisterRoutes attaches the analysis read surface.
func (m *AnalysisModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/analysis")
	api.GET("/words", m.handleWords)
	api.GET("/bigrams", m.handleBigrams)
}

func (m *AnalysisModule) handleWords(c *gin.Context) {
	query, limit, ok := m.scopedQuery(c)
	if !ok {
		return
	}
	occurrences, err := m.analyzer.WordOccurrencesQuery(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": occurrences})
}

func (m *AnalysisModule) handleBigrams(c *gin.Context) {
	query, limit, ok := m.scopedQuery(c)
	if !ok {
		return
	}
	occurrences, err := m.analyzer.BigramOccurrencesQuery(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bigrams": occurrences})
}

// scopedQuery builds the video collection from request filters: optional
// station and rolling day window.
func (m *AnalysisModule) scopedQuery(c *gin.Context) (*gorm.DB, int, bool) {
	query := m.db.Model(&database.Video{}).Where("transcription IS NOT NULL")

	if station := c.Query("station"); station != "" {
		id, err := strconv.Atoi(station)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station id"})
			return nil, 0, false
		}
		query = query.Where("station_id = ?", id)
	}
	if days := c.Query("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days window"})
			return nil, 0, false
		}
		query = query.Where("posted_at >= ?", time.Now().AddDate(0, 0, -n))
	}

	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return nil, 0, false
		}
		limit = n
	}
	return query, limit, true
}
