package stationmodule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
)

const proxyDialTimeout = 2 * time.Second

// Discovery outcomes.
var (
	ErrProxyUnreachable  = errors.New("passive-capture proxy is not reachable")
	ErrNoStreamSource    = errors.New("station has no stream source page")
	ErrNoCandidates      = errors.New("no manifest URLs captured")
	ErrDiscoveryInFlight = errors.New("discovery already running for station")
)

// Discoverer rediscovers a station's playable stream URL by driving a
// browser session through the capture proxy and selecting the best captured
// manifest URL. Runs for the same station are serialized; different
// stations are independent.
type Discoverer struct {
	db            *gorm.DB
	session       BrowserSession
	capture       *CaptureLog
	proxyHost     string
	observeWindow time.Duration

	inflight sync.Map // station ID -> struct{}
}

// NewDiscoverer wires a discoverer.
func NewDiscoverer(db *gorm.DB, session BrowserSession, capture *CaptureLog, proxyHost string, observeWindow time.Duration) *Discoverer {
	return &Discoverer{
		db:            db,
		session:       session,
		capture:       capture,
		proxyHost:     proxyHost,
		observeWindow: observeWindow,
	}
}

// Discover runs one discovery for the station and persists the chosen URL.
// It fails fast, before any browser launch, when the proxy is down.
func (d *Discoverer) Discover(stationID uint) (string, error) {
	var station database.Station
	if err := d.db.First(&station, stationID).Error; err != nil {
		return "", fmt.Errorf("failed to load station %d: %w", stationID, err)
	}
	if station.StreamSource == "" {
		return "", ErrNoStreamSource
	}

	if _, loaded := d.inflight.LoadOrStore(station.ID, struct{}{}); loaded {
		return "", ErrDiscoveryInFlight
	}
	defer d.inflight.Delete(station.ID)

	if !proxyReachable(d.proxyHost, proxyDialTimeout) {
		return "", fmt.Errorf("%w on %s; start it with: mitmproxy --listen-port 8080 --mode regular -s capture_m3u8.py",
			ErrProxyUnreachable, d.proxyHost)
	}

	sessionID := uuid.NewString()[:8]
	d.capture.Clear()
	AppendLog(d.db, station.ID, fmt.Sprintf("discovery %s: observing %s", sessionID, station.StreamSource))

	if err := d.session.Observe(&station, d.observeWindow); err != nil {
		// Captures may still have landed before the failure; keep going
		// and let candidate selection decide.
		AppendLog(d.db, station.ID, fmt.Sprintf("discovery %s: browser session error: %v", sessionID, err))
		logger.Warn("browser session failed", "station", station.Name, "error", err)
	}

	candidates := d.capture.Read()
	if len(candidates) == 0 {
		AppendLog(d.db, station.ID, fmt.Sprintf("discovery %s: no manifest URLs captured", sessionID))
		return "", ErrNoCandidates
	}

	best := NewSelector(station.StreamURL).Select(candidates)
	if err := d.db.Model(&database.Station{}).Where("id = ?", station.ID).Update("stream_url", best).Error; err != nil {
		return "", fmt.Errorf("failed to persist stream URL: %w", err)
	}
	AppendLog(d.db, station.ID, fmt.Sprintf("discovery %s: selected %s (%d candidates)", sessionID, best, len(candidates)))

	if kind, err := verifyPlaylist(best); err != nil {
		logger.Debug("playlist verification failed", "station", station.Name, "url", best, "error", err)
	} else {
		AppendLog(d.db, station.ID, fmt.Sprintf("discovery %s: verified %s playlist", sessionID, kind))
	}

	logger.Info("stream URL updated", "station", station.Name, "url", best)
	return best, nil
}
