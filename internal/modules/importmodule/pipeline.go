package importmodule

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
	"github.com/mediahubpy/mediahub/internal/modules/ocrmodule"
)

// Rejection reasons. A rejected file is reported and left untouched so it
// can be retried or inspected.
var (
	ErrFileMissing  = errors.New("file does not exist")
	ErrFileInUse    = errors.New("file is in use")
	ErrBadFilename  = errors.New("invalid filename format")
	ErrBadTimestamp = errors.New("invalid timestamp")
	ErrNotVideo     = errors.New("not a valid video file")
	ErrDiskFull     = errors.New("insufficient free disk space")
)

// Recorded filenames look like 2024-03-15T21_28_02.mp4; underscores stand
// in for the filesystem-unsafe colons.
var filenamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}_\d{2}_\d{2}\.mp4$`)

const timestampLayout = "2006-01-02T15:04:05"

// Importer validates, relocates and registers recorded video files. The
// unique (station_id, location) index is the only guard against concurrent
// duplicate registration; no in-process locking is used.
type Importer struct {
	db          *gorm.DB
	publicDir   string
	probe       StreamProbe
	thumbnailer Thumbnailer
	extractor   *ocrmodule.Extractor
	ocrOpts     ocrmodule.Options

	// minFreeBytes refuses a move that would leave less free space on the
	// storage volume; zero disables the check.
	minFreeBytes uint64

	// inUse detects open writers on staged files; replaceable in tests.
	inUse func(path string) bool
}

// NewImporter wires the pipeline. extractor may be nil to disable OCR;
// thumbnailer may be nil to disable stills.
func NewImporter(db *gorm.DB, publicDir string, probe StreamProbe, thumbnailer Thumbnailer, extractor *ocrmodule.Extractor, ocrOpts ocrmodule.Options, minFreeBytes uint64) *Importer {
	return &Importer{
		db:           db,
		publicDir:    publicDir,
		probe:        probe,
		thumbnailer:  thumbnailer,
		extractor:    extractor,
		ocrOpts:      ocrOpts,
		minFreeBytes: minFreeBytes,
		inUse:        fileInUse,
	}
}

// Import runs one file through the pipeline. Rejections return a typed
// error with no side effects; an already-registered file is a successful
// no-op that at most repairs a stale path.
func (im *Importer) Import(station *database.Station, filePath string) (*database.Video, error) {
	filename := filepath.Base(filePath)

	if _, err := os.Stat(filePath); err != nil {
		return nil, ErrFileMissing
	}
	// Only staged files can still have a writer attached; anywhere else
	// the recorder has already finished.
	if inTempDirectory(filePath) && im.inUse(filePath) {
		return nil, ErrFileInUse
	}
	if !filenamePattern.MatchString(filename) {
		return nil, ErrBadFilename
	}
	postedAt, err := parseTimestamp(filename)
	if err != nil {
		return nil, ErrBadTimestamp
	}
	if !im.probe.HasVideoStream(filePath) {
		return nil, ErrNotVideo
	}

	destPath := im.destinationPath(station, filename)

	var existing database.Video
	err = im.db.Where("location = ? AND station_id = ?", filename, station.ID).First(&existing).Error
	if err == nil {
		im.repairPath(&existing, destPath)
		im.deriveArtifacts(&existing)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up video: %w", err)
	}

	// Move before register: a crash here orphans a discoverable file the
	// next sweep re-imports, never a record pointing at a staged file.
	if err := im.moveToDestination(filePath, destPath); err != nil {
		return nil, err
	}

	video, err := im.register(station, filename, postedAt, destPath)
	if err != nil {
		return nil, err
	}

	im.deriveArtifacts(video)
	return video, nil
}

// register inserts the video record, resolving a duplicate-key race by
// re-reading the winner instead of erroring.
func (im *Importer) register(station *database.Station, filename string, postedAt time.Time, destPath string) (*database.Video, error) {
	video := &database.Video{
		Location:   filename,
		StationID:  station.ID,
		PostedAt:   postedAt,
		Path:       destPath,
		PublicPath: im.publicRelative(destPath),
	}

	err := im.db.Create(video).Error
	if err == nil {
		return video, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	var winner database.Video
	if err := im.db.Where("location = ? AND station_id = ?", filename, station.ID).First(&winner).Error; err != nil {
		return nil, fmt.Errorf("duplicate registration detected but winner not found: %w", err)
	}
	im.repairPath(&winner, destPath)
	return &winner, nil
}

// repairPath updates a stale path field when the recorded path diverges
// from a still-existing destination file.
func (im *Importer) repairPath(video *database.Video, destPath string) {
	if video.Path == destPath {
		return
	}
	if _, err := os.Stat(destPath); err != nil {
		return
	}
	updates := map[string]interface{}{
		"path":        destPath,
		"public_path": im.publicRelative(destPath),
	}
	if err := im.db.Model(video).Updates(updates).Error; err != nil {
		logger.Warn("failed to repair video path", "video_id", video.ID, "error", err)
		return
	}
	video.Path = destPath
	video.PublicPath = im.publicRelative(destPath)
}

// deriveArtifacts generates the thumbnail and OCR text when missing. Both
// are best-effort: failures are logged and never fail the import.
func (im *Importer) deriveArtifacts(video *database.Video) {
	im.generateThumbnail(video)
	im.extractText(video)
}

func (im *Importer) generateThumbnail(video *database.Video) {
	if im.thumbnailer == nil {
		return
	}
	if video.ThumbnailPath != nil && *video.ThumbnailPath != "" {
		if _, err := os.Stat(*video.ThumbnailPath); err == nil {
			return
		}
	}
	if _, err := os.Stat(video.Path); err != nil {
		return
	}

	thumbPath, err := im.thumbnailer.Generate(video.Path)
	if err != nil {
		logger.Warn("thumbnail generation failed", "video_id", video.ID, "error", err)
		return
	}
	if err := im.db.Model(video).Update("thumbnail_path", thumbPath).Error; err != nil {
		logger.Warn("failed to record thumbnail path", "video_id", video.ID, "error", err)
		return
	}
	video.ThumbnailPath = &thumbPath
}

func (im *Importer) extractText(video *database.Video) {
	if im.extractor == nil || video.OcrText != nil {
		return
	}
	if video.ThumbnailPath == nil || *video.ThumbnailPath == "" {
		return
	}

	text, err := im.extractor.Extract(*video.ThumbnailPath, im.ocrOpts)
	if err != nil {
		logger.Warn("ocr extraction failed", "video_id", video.ID, "error", err)
		return
	}
	// Empty text is a valid outcome; storing it marks the video as
	// processed.
	if err := im.db.Model(video).Update("ocr_text", text).Error; err != nil {
		logger.Warn("failed to record ocr text", "video_id", video.ID, "error", err)
		return
	}
	video.OcrText = &text
}

// destinationPath is deterministic: videos/<station.directory>/<year>/
// <month>/<day>/<filename> under the public root, dated from the filename.
func (im *Importer) destinationPath(station *database.Station, filename string) string {
	datePart := strings.SplitN(filename, "T", 2)[0]
	parts := strings.SplitN(datePart, "-", 3)
	return filepath.Join(im.publicDir, "videos", station.Directory, parts[0], parts[1], parts[2], filename)
}

func (im *Importer) publicRelative(destPath string) string {
	rel, err := filepath.Rel(im.publicDir, destPath)
	if err != nil {
		return destPath
	}
	return rel
}

func (im *Importer) moveToDestination(filePath, destPath string) error {
	// Already in place, or a previous run moved it: never overwrite.
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}

	if err := im.checkFreeSpace(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := moveFile(filePath, destPath); err != nil {
		return fmt.Errorf("failed to move file to destination: %w", err)
	}
	return nil
}

// checkFreeSpace refuses moves onto a nearly-full storage volume.
func (im *Importer) checkFreeSpace() error {
	if im.minFreeBytes == 0 {
		return nil
	}
	usage, err := disk.Usage(im.publicDir)
	if err != nil {
		logger.Debug("disk usage check unavailable", "path", im.publicDir, "error", err)
		return nil
	}
	if usage.Free < im.minFreeBytes {
		return fmt.Errorf("%w: %d bytes free on %s", ErrDiskFull, usage.Free, im.publicDir)
	}
	return nil
}

// moveFile renames, falling back to copy-and-remove when the incoming and
// storage directories sit on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func parseTimestamp(filename string) (time.Time, error) {
	stamp := strings.TrimSuffix(filename, filepath.Ext(filename))
	stamp = strings.ReplaceAll(stamp, "_", ":")
	return time.Parse(timestampLayout, stamp)
}

func inTempDirectory(path string) bool {
	return strings.Contains(path, string(filepath.Separator)+"temp"+string(filepath.Separator))
}
