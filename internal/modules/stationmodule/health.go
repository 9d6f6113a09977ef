package stationmodule

import (
	"time"

	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
)

// HeartbeatTTL is how long a heartbeat keeps a station healthy.
const HeartbeatTTL = 3 * time.Minute

// Health is the derived read-only view of a station's state; nothing here
// is stored.
type Health struct {
	Healthy        bool `json:"healthy"`
	NeedsAttention bool `json:"needs_attention"`
	StaleHeartbeat bool `json:"stale_heartbeat"`
}

// HealthAt derives the health view at a given instant.
func HealthAt(s *database.Station, now time.Time) Health {
	stale := s.LastHeartbeatAt == nil || now.Sub(*s.LastHeartbeatAt) >= HeartbeatTTL
	connected := s.StreamStatus == database.StreamConnected
	return Health{
		Healthy:        s.Active && connected && !stale,
		NeedsAttention: s.Active && (!connected || stale),
		StaleHeartbeat: stale,
	}
}

// Touch records a heartbeat: a single timestamp write, idempotent and safe
// to race (last write wins).
func Touch(db *gorm.DB, stationID uint, now time.Time) error {
	return db.Model(&database.Station{}).
		Where("id = ?", stationID).
		Update("last_heartbeat_at", now).Error
}

// SetStreamStatus flips the station's stream status.
func SetStreamStatus(db *gorm.DB, stationID uint, status string) error {
	return db.Model(&database.Station{}).
		Where("id = ?", stationID).
		Update("stream_status", status).Error
}
