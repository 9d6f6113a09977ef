package importmodule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/modules/ocrmodule"
)

const goodFilename = "2024-03-15T21_28_02.mp4"

type fakeProbe struct {
	valid bool
}

func (p fakeProbe) HasVideoStream(string) bool { return p.valid }

// fakeThumbnailer writes an empty png sibling, mirroring the real tool's
// output layout.
type fakeThumbnailer struct {
	calls int
	err   error
}

func (t *fakeThumbnailer) Generate(videoPath string) (string, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	thumb := videoPath[:len(videoPath)-len(".mp4")] + ".png"
	if err := os.WriteFile(thumb, []byte("png"), 0644); err != nil {
		return "", err
	}
	return thumb, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.Migrate(db), "failed to migrate test database")
	return db
}

func createTestStation(t *testing.T, db *gorm.DB) *database.Station {
	t.Helper()
	station := &database.Station{Name: "station-" + t.Name(), Directory: "canal9", Active: true}
	require.NoError(t, db.Create(station).Error)
	return station
}

func stageFile(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("mp4 payload"), 0644))
	return path
}

func newTestImporter(db *gorm.DB, publicDir string, probe StreamProbe, thumbnailer Thumbnailer) *Importer {
	return NewImporter(db, publicDir, probe, thumbnailer, nil, ocrmodule.DefaultOptions(), 0)
}

func TestImportMovesAndRegisters(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()
	src := stageFile(t, t.TempDir(), goodFilename)

	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	video, err := im.Import(station, src)
	require.NoError(t, err)

	wantDest := filepath.Join(publicDir, "videos", "canal9", "2024", "03", "15", goodFilename)
	assert.Equal(t, wantDest, video.Path)
	assert.Equal(t, filepath.Join("videos", "canal9", "2024", "03", "15", goodFilename), video.PublicPath)
	assert.Equal(t, time.Date(2024, 3, 15, 21, 28, 2, 0, time.UTC), video.PostedAt.UTC())
	assert.Equal(t, goodFilename, video.Location)

	assert.FileExists(t, wantDest)
	assert.NoFileExists(t, src, "source must be moved, not copied")

	var count int64
	require.NoError(t, db.Model(&database.Video{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImportIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()
	incoming := t.TempDir()

	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)

	first, err := im.Import(station, stageFile(t, incoming, goodFilename))
	require.NoError(t, err)

	// The recorder drops the same file again; the existing record wins and
	// nothing is duplicated or overwritten.
	second, err := im.Import(station, stageFile(t, incoming, goodFilename))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&database.Video{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImportRejectsBadFilename(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()
	src := stageFile(t, t.TempDir(), "recording.mp4")

	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	_, err := im.Import(station, src)
	assert.ErrorIs(t, err, ErrBadFilename)

	assert.FileExists(t, src, "rejected files stay where they are")
	assert.NoDirExists(t, filepath.Join(publicDir, "videos"), "rejection must not touch the destination")
}

func TestImportRejectsBadTimestamp(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	src := stageFile(t, t.TempDir(), "2024-13-40T25_61_61.mp4")

	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: true}, nil)
	_, err := im.Import(station, src)
	assert.ErrorIs(t, err, ErrBadTimestamp)
	assert.FileExists(t, src)
}

func TestImportRejectsNonVideo(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	src := stageFile(t, t.TempDir(), goodFilename)

	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: false}, nil)
	_, err := im.Import(station, src)
	assert.ErrorIs(t, err, ErrNotVideo)
	assert.FileExists(t, src)
}

func TestImportRejectsMissingFile(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)

	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: true}, nil)
	_, err := im.Import(station, filepath.Join(t.TempDir(), goodFilename))
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestImportInUseCheckOnlyAppliesToStagedFiles(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()

	root := t.TempDir()
	staged := stageFile(t, filepath.Join(root, "temp", "canal9"), goodFilename)
	settled := stageFile(t, filepath.Join(root, "incoming", "canal9"), goodFilename)

	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	im.inUse = func(string) bool { return true }

	_, err := im.Import(station, staged)
	assert.ErrorIs(t, err, ErrFileInUse, "a held staging file is rejected")

	_, err = im.Import(station, settled)
	assert.NoError(t, err, "outside the staging directory the writer check is skipped")
}

func TestImportRepairsStalePath(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()

	dest := filepath.Join(publicDir, "videos", "canal9", "2024", "03", "15", goodFilename)
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0755))
	require.NoError(t, os.WriteFile(dest, []byte("mp4 payload"), 0644))

	stale := &database.Video{
		StationID: station.ID,
		Location:  goodFilename,
		PostedAt:  time.Date(2024, 3, 15, 21, 28, 2, 0, time.UTC),
		Path:      "/mnt/old-volume/" + goodFilename,
	}
	require.NoError(t, db.Create(stale).Error)

	// The sweep sees the same filename again (for example re-staged after a
	// storage migration) and fixes the stale record instead of duplicating.
	src := stageFile(t, t.TempDir(), goodFilename)
	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	video, err := im.Import(station, src)
	require.NoError(t, err)
	assert.Equal(t, stale.ID, video.ID)
	assert.Equal(t, dest, video.Path)

	var stored database.Video
	require.NoError(t, db.First(&stored, stale.ID).Error)
	assert.Equal(t, dest, stored.Path)
}

func TestRegisterRecoversFromDuplicateKey(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()

	dest := filepath.Join(publicDir, "videos", "canal9", "2024", "03", "15", goodFilename)
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0755))
	require.NoError(t, os.WriteFile(dest, []byte("mp4 payload"), 0644))

	postedAt := time.Date(2024, 3, 15, 21, 28, 2, 0, time.UTC)
	winner := &database.Video{
		StationID: station.ID,
		Location:  goodFilename,
		PostedAt:  postedAt,
		Path:      dest,
	}
	require.NoError(t, db.Create(winner).Error)

	// A concurrent sweep already registered the file between our lookup and
	// insert; the unique index fires and the winner is re-read.
	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	video, err := im.register(station, goodFilename, postedAt, dest)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, video.ID)

	var count int64
	require.NoError(t, db.Model(&database.Video{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImportGeneratesThumbnail(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()
	src := stageFile(t, t.TempDir(), goodFilename)

	thumbs := &fakeThumbnailer{}
	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, thumbs)
	video, err := im.Import(station, src)
	require.NoError(t, err)

	require.NotNil(t, video.ThumbnailPath)
	assert.FileExists(t, *video.ThumbnailPath)
	assert.Equal(t, 1, thumbs.calls)

	var stored database.Video
	require.NoError(t, db.First(&stored, video.ID).Error)
	require.NotNil(t, stored.ThumbnailPath)
	assert.Equal(t, *video.ThumbnailPath, *stored.ThumbnailPath)
}

func TestImportThumbnailFailureDoesNotFailImport(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	src := stageFile(t, t.TempDir(), goodFilename)

	thumbs := &fakeThumbnailer{err: assert.AnError}
	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: true}, thumbs)
	video, err := im.Import(station, src)
	require.NoError(t, err)
	assert.Nil(t, video.ThumbnailPath)
}

func TestParseTimestamp(t *testing.T) {
	got, err := parseTimestamp(goodFilename)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 21, 28, 2, 0, time.UTC), got.UTC())

	_, err = parseTimestamp("2024-02-30T10_00_00.mp4")
	assert.Error(t, err, "impossible calendar dates are rejected")
}
