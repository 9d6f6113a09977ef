package stationmodule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/config"
	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
)

const moduleID = "system.stations"

// StationModule exposes station health, heartbeat, log and discovery.
type StationModule struct {
	db         *gorm.DB
	discoverer *Discoverer
}

// NewModule creates the station module.
func NewModule(db *gorm.DB, cfg *config.Config) *StationModule {
	session := NewRodSession(cfg.Discovery.ProxyHost, cfg.Discovery.PageTimeout)
	capture := NewCaptureLog(cfg.Discovery.CaptureLogPath)
	return &StationModule{
		db:         db,
		discoverer: NewDiscoverer(db, session, capture, cfg.Discovery.ProxyHost, cfg.Discovery.ObserveWindow),
	}
}

// Register adds the module to the global registry.
func Register(db *gorm.DB, cfg *config.Config) *StationModule {
	m := NewModule(db, cfg)
	modulemanager.Register(m)
	return m
}

func (m *StationModule) ID() string   { return moduleID }
func (m *StationModule) Name() string { return "Station Health" }
func (m *StationModule) Core() bool   { return true }

func (m *StationModule) Migrate(db *gorm.DB) error { return nil }
func (m *StationModule) Init() error               { return nil }

// Discoverer exposes stream discovery to schedulers.
func (m *StationModule) Discoverer() *Discoverer { return m.discoverer }

type stationView struct {
	database.Station
	Health Health `json:"health"`
}

// RegisterRoutes attaches the station surface.
func (m *StationModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/stations")
	api.GET("", m.handleList)
	api.GET("/:id", m.handleShow)
	api.POST("/:id/heartbeat", m.handleHeartbeat)
	api.POST("/:id/log/clear", m.handleClearLog)
	api.POST("/:id/discover", m.handleDiscover)
}

func (m *StationModule) handleList(c *gin.Context) {
	var stations []database.Station
	if err := m.db.Order("name").Find(&stations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	views := make([]stationView, len(stations))
	for i := range stations {
		views[i] = stationView{Station: stations[i], Health: HealthAt(&stations[i], now)}
	}
	c.JSON(http.StatusOK, gin.H{"stations": views})
}

func (m *StationModule) handleShow(c *gin.Context) {
	station, ok := m.findStation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stationView{Station: *station, Health: HealthAt(station, time.Now())})
}

func (m *StationModule) handleHeartbeat(c *gin.Context) {
	station, ok := m.findStation(c)
	if !ok {
		return
	}
	if err := Touch(m.db, station.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (m *StationModule) handleClearLog(c *gin.Context) {
	station, ok := m.findStation(c)
	if !ok {
		return
	}
	if err := ClearLog(m.db, station.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (m *StationModule) handleDiscover(c *gin.Context) {
	station, ok := m.findStation(c)
	if !ok {
		return
	}

	streamURL, err := m.discoverer.Discover(station.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"stream_url": streamURL})
	case errors.Is(err, ErrDiscoveryInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProxyUnreachable), errors.Is(err, ErrNoStreamSource):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoCandidates):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (m *StationModule) findStation(c *gin.Context) (*database.Station, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station id"})
		return nil, false
	}
	var station database.Station
	if err := m.db.First(&station, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return &station, true
}
