package stationmodule

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
)

// MaxLogChars caps the station log. Overflow is trimmed from the oldest
// entries, always at entry boundaries.
const MaxLogChars = 10000

// AppendLog appends a timestamped entry to the station's bounded log. The
// trim happens here, at the storage boundary, so callers never reason about
// the cap. Append failures are logged, never escalated: the log is
// diagnostics, not state.
func AppendLog(db *gorm.DB, stationID uint, message string) {
	entry := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), message)

	var station database.Station
	if err := db.Select("id", "log").First(&station, stationID).Error; err != nil {
		logger.Warn("failed to load station for log append", "station_id", stationID, "error", err)
		return
	}

	combined := station.Log
	if combined != "" {
		combined += "\n"
	}
	combined += entry
	combined = trimLog(combined, MaxLogChars)

	if err := db.Model(&database.Station{}).Where("id = ?", stationID).Update("log", combined).Error; err != nil {
		logger.Warn("failed to append station log", "station_id", stationID, "error", err)
	}
}

// ClearLog empties the station's log; idempotent.
func ClearLog(db *gorm.DB, stationID uint) error {
	return db.Model(&database.Station{}).Where("id = ?", stationID).Update("log", "").Error
}

// trimLog drops whole entries from the front until the log fits.
func trimLog(log string, max int) string {
	for len(log) > max {
		idx := strings.IndexByte(log, '\n')
		if idx < 0 {
			// A single oversized entry: keep its tail, advancing past any
			// partial UTF-8 sequence the byte cut would leave.
			cut := len(log) - max
			for cut < len(log) && !utf8.RuneStart(log[cut]) {
				cut++
			}
			return log[cut:]
		}
		log = log[idx+1:]
	}
	return log
}
