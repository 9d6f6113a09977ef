package database

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
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, Migrate(db), "failed to migrate test database")
	return db
}

func touchFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}

func TestVideoDeleteRemovesDiskArtifacts(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()

	videoPath := touchFile(t, filepath.Join(dir, "2024-03-15T21_28_02.mp4"))
	thumbPath := touchFile(t, filepath.Join(dir, "2024-03-15T21_28_02.png"))
	bigPath := touchFile(t, filepath.Join(dir, "2024-03-15T21_28_02-big.png"))

	station := &Station{Name: "cleanup-" + t.Name(), Directory: "c9"}
	require.NoError(t, db.Create(station).Error)
	video := &Video{
		StationID:     station.ID,
		Location:      filepath.Base(videoPath),
		PostedAt:      time.Now(),
		Path:          videoPath,
		ThumbnailPath: &thumbPath,
	}
	require.NoError(t, db.Create(video).Error)

	require.NoError(t, db.Delete(video).Error)

	assert.NoFileExists(t, videoPath)
	assert.NoFileExists(t, thumbPath)
	assert.NoFileExists(t, bigPath, "the full-resolution sibling goes too")
}

func TestVideoDeleteToleratesMissingFiles(t *testing.T) {
	db := setupTestDB(t)

	station := &Station{Name: "tolerant-" + t.Name(), Directory: "c9"}
	require.NoError(t, db.Create(station).Error)
	video := &Video{
		StationID: station.ID,
		Location:  "gone.mp4",
		PostedAt:  time.Now(),
		Path:      filepath.Join(t.TempDir(), "gone.mp4"),
	}
	require.NoError(t, db.Create(video).Error)

	assert.NoError(t, db.Delete(video).Error)
}

func TestStationDeleteCascadesToVideoFiles(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()

	station := &Station{Name: "cascade-" + t.Name(), Directory: "c9"}
	require.NoError(t, db.Create(station).Error)

	paths := []string{
		touchFile(t, filepath.Join(dir, "2024-03-15T10_00_00.mp4")),
		touchFile(t, filepath.Join(dir, "2024-03-15T11_00_00.mp4")),
	}
	for _, p := range paths {
		require.NoError(t, db.Create(&Video{
			StationID: station.ID,
			Location:  filepath.Base(p),
			PostedAt:  time.Now(),
			Path:      p,
		}).Error)
	}

	require.NoError(t, db.Delete(station).Error)

	var count int64
	require.NoError(t, db.Model(&Video{}).Count(&count).Error)
	assert.Zero(t, count)
	for _, p := range paths {
		assert.NoFileExists(t, p, "cascade must run per-video cleanup hooks")
	}
}

func TestDuplicateVideoLocationPerStation(t *testing.T) {
	db := setupTestDB(t)

	first := &Station{Name: "uniq-a-" + t.Name(), Directory: "a"}
	second := &Station{Name: "uniq-b-" + t.Name(), Directory: "b"}
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error)

	video := func(stationID uint) *Video {
		return &Video{
			StationID: stationID,
			Location:  "2024-03-15T21_28_02.mp4",
			PostedAt:  time.Now(),
			Path:      "/x/2024-03-15T21_28_02.mp4",
		}
	}

	require.NoError(t, db.Create(video(first.ID)).Error)
	err := db.Create(video(first.ID)).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "same location on the same station must collide")
	assert.NoError(t, db.Create(video(second.ID)).Error, "other stations may reuse the filename")
}

func TestTagVariationList(t *testing.T) {
	variations := " Ministerio de Hacienda , MH ,,MinHacienda "
	tag := &Tag{Name: "Hacienda", Variations: &variations}
	assert.Equal(t, []string{"Ministerio de Hacienda", "MH", "MinHacienda"}, tag.VariationList())

	empty := ""
	tag = &Tag{Name: "Sin", Variations: &empty}
	assert.Nil(t, tag.VariationList())
	tag = &Tag{Name: "Nil"}
	assert.Nil(t, tag.VariationList())
}
