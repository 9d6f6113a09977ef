package database

import (
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// Stream status values for Station.StreamStatus.
const (
	StreamDisconnected = "disconnected"
	StreamConnected    = "connected"
)

// Station is a capture source: one recorded television channel.
type Station struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"uniqueIndex;not null" json:"name"`
	Directory       string     `gorm:"not null" json:"directory"`
	StreamURL       string     `json:"stream_url"`
	StreamSource    string     `json:"stream_source"`
	StreamStatus    string     `gorm:"default:disconnected" json:"stream_status"`
	Active          bool       `gorm:"default:true" json:"active"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at"`
	// Log is an append-only bounded text log. Mutate it only through
	// stationmodule, which enforces the size cap.
	Log                string `json:"log"`
	PlayButtonSelector string `json:"play_button_selector"`
	UseShadowDOM       bool   `json:"use_shadow_dom"`
	Videos             []Video `gorm:"constraint:OnDelete:CASCADE" json:"videos,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BeforeDelete removes the station's videos through GORM so each video's
// on-disk cleanup hook runs; the DB-level cascade alone would skip them.
func (s *Station) BeforeDelete(tx *gorm.DB) error {
	var videos []Video
	if err := tx.Where("station_id = ?", s.ID).Find(&videos).Error; err != nil {
		return err
	}
	for i := range videos {
		if err := tx.Delete(&videos[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Video is one recorded clip owned by a station.
type Video struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Location is the original filename. Unique per station; this index
	// is the authoritative guard against duplicate concurrent imports.
	Location      string    `gorm:"uniqueIndex:idx_videos_station_location;not null" json:"location"`
	StationID     uint      `gorm:"uniqueIndex:idx_videos_station_location;not null" json:"station_id"`
	Station       Station   `json:"station,omitempty"`
	PostedAt      time.Time `json:"posted_at"`
	Path          string    `json:"path"`
	PublicPath    string    `json:"public_path"`
	Transcription *string   `json:"transcription,omitempty"`
	OcrText       *string   `json:"ocr_text,omitempty"`
	ThumbnailPath *string   `json:"thumbnail_path,omitempty"`
	Tags          []Tag     `gorm:"many2many:taggings" json:"tags,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AfterDelete removes the backing video file and its thumbnails. Removal
// failures are logged and never block record deletion.
func (v *Video) AfterDelete(tx *gorm.DB) error {
	for _, p := range v.diskArtifacts() {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove file for deleted video", "video_id", v.ID, "path", p, "error", err)
		}
	}
	return nil
}

// diskArtifacts lists the files a video owns on disk: the clip itself, the
// standard thumbnail and the full-resolution one.
func (v *Video) diskArtifacts() []string {
	paths := []string{v.Path}
	if v.ThumbnailPath != nil && *v.ThumbnailPath != "" {
		thumb := *v.ThumbnailPath
		paths = append(paths, thumb)
		if strings.HasSuffix(thumb, ".png") && !strings.HasSuffix(thumb, "-big.png") {
			paths = append(paths, strings.TrimSuffix(thumb, ".png")+"-big.png")
		}
	}
	return paths
}

// Tag is a named concept matched against transcripts.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	// Variations holds comma-separated alternate spellings.
	Variations *string   `json:"variations,omitempty"`
	Videos     []Video   `gorm:"many2many:taggings" json:"videos,omitempty"`
	Topics     []Topic   `gorm:"many2many:tags_topics" json:"topics,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VariationList splits the comma-separated variations, dropping empties.
func (t *Tag) VariationList() []string {
	if t.Variations == nil || *t.Variations == "" {
		return nil
	}
	parts := strings.Split(*t.Variations, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Topic groups tags and is visible only to explicitly assigned users.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Status    bool      `gorm:"default:true" json:"status"`
	Tags      []Tag     `gorm:"many2many:tags_topics" json:"tags,omitempty"`
	Users     []User    `gorm:"many2many:user_topics" json:"users,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User exists so topic visibility can be assigned; authentication itself is
// an external concern.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
