package importmodule

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
)

// SweepStats summarizes one import sweep.
type SweepStats struct {
	Scanned  int `json:"scanned"`
	Imported int `json:"imported"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// Runner drives the importer: a periodic sweep over every active station's
// incoming directory, nudged early by filesystem create events. Overlapping
// sweeps are tolerated; the storage-layer uniqueness constraint is the only
// duplicate guard.
type Runner struct {
	db          *gorm.DB
	importer    *Importer
	incomingDir string
	interval    time.Duration

	nudge chan struct{}
	stop  chan struct{}
}

// NewRunner builds a runner over the incoming directory.
func NewRunner(db *gorm.DB, importer *Importer, incomingDir string, interval time.Duration) *Runner {
	return &Runner{
		db:          db,
		importer:    importer,
		incomingDir: incomingDir,
		interval:    interval,
		nudge:       make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}
}

// Start launches the sweep loop and, when watch is set, a filesystem
// watcher that triggers a sweep as soon as a recording lands.
func (r *Runner) Start(watch bool) {
	go r.loop()
	if watch {
		go r.watchIncoming()
	}
}

// Stop terminates the sweep loop.
func (r *Runner) Stop() {
	close(r.stop)
}

// Nudge requests a sweep soon; coalesces with any pending request.
func (r *Runner) Nudge() {
	select {
	case r.nudge <- struct{}{}:
	default:
	}
}

func (r *Runner) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		case <-r.nudge:
		}
		stats := r.Sweep()
		if stats.Scanned > 0 {
			logger.Info("import sweep finished",
				"scanned", stats.Scanned,
				"imported", stats.Imported,
				"rejected", stats.Rejected,
				"failed", stats.Failed)
		}
	}
}

// Sweep imports every candidate file in every active station's incoming
// directory, one file at a time.
func (r *Runner) Sweep() SweepStats {
	var stats SweepStats

	var stations []database.Station
	if err := r.db.Where("active = ?", true).Find(&stations).Error; err != nil {
		logger.Error("failed to list stations for import sweep", "error", err)
		return stats
	}

	for i := range stations {
		station := &stations[i]
		dir := filepath.Join(r.incomingDir, station.Directory)
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".mp4") {
				return nil
			}
			stats.Scanned++

			_, importErr := r.importer.Import(station, path)
			switch {
			case importErr == nil:
				stats.Imported++
			case isRejection(importErr):
				stats.Rejected++
				logger.Debug("file rejected", "station", station.Name, "file", d.Name(), "reason", importErr)
			default:
				stats.Failed++
				logger.Error("import failed", "station", station.Name, "file", d.Name(), "error", importErr)
			}
			return nil
		})
	}
	return stats
}

func isRejection(err error) bool {
	return errors.Is(err, ErrFileMissing) ||
		errors.Is(err, ErrFileInUse) ||
		errors.Is(err, ErrBadFilename) ||
		errors.Is(err, ErrBadTimestamp) ||
		errors.Is(err, ErrNotVideo)
}

// watchIncoming nudges the sweep loop when recordings appear between ticks.
func (r *Runner) watchIncoming() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("filesystem watcher unavailable, relying on periodic sweeps", "error", err)
		return
	}
	defer watcher.Close()

	// Watch the incoming root and every station subdirectory present at
	// startup; new stations are still covered by the periodic sweep.
	dirs := []string{r.incomingDir}
	_ = filepath.WalkDir(r.incomingDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != r.incomingDir {
			dirs = append(dirs, path)
		}
		return nil
	})
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Debug("failed to watch directory", "dir", dir, "error", err)
		}
	}

	for {
		select {
		case <-r.stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) && strings.HasSuffix(event.Name, ".mp4") {
				r.Nudge()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("filesystem watcher error", "error", err)
		}
	}
}
