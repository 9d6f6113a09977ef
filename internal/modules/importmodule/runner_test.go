package importmodule

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahubpy/mediahub/internal/database"
)

func TestSweepCountsOutcomes(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	publicDir := t.TempDir()
	incomingDir := t.TempDir()

	stationDir := filepath.Join(incomingDir, station.Directory)
	stageFile(t, stationDir, goodFilename)
	stageFile(t, stationDir, "badly-named.mp4")
	stageFile(t, stationDir, "notes.txt")

	im := newTestImporter(db, publicDir, fakeProbe{valid: true}, nil)
	runner := NewRunner(db, im, incomingDir, 0)

	stats := runner.Sweep()
	assert.Equal(t, SweepStats{Scanned: 2, Imported: 1, Rejected: 1}, stats)

	var count int64
	require.NoError(t, db.Model(&database.Video{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSweepSkipsInactiveStations(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db)
	require.NoError(t, db.Model(station).Update("active", false).Error)

	incomingDir := t.TempDir()
	stageFile(t, filepath.Join(incomingDir, station.Directory), goodFilename)

	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: true}, nil)
	runner := NewRunner(db, im, incomingDir, 0)

	stats := runner.Sweep()
	assert.Equal(t, SweepStats{}, stats)
}

func TestSweepToleratesMissingStationDirectory(t *testing.T) {
	db := setupTestDB(t)
	createTestStation(t, db)

	im := newTestImporter(db, t.TempDir(), fakeProbe{valid: true}, nil)
	runner := NewRunner(db, im, filepath.Join(t.TempDir(), "never-created"), 0)

	assert.Equal(t, SweepStats{}, runner.Sweep())
}

func TestIsRejection(t *testing.T) {
	assert.True(t, isRejection(ErrBadFilename))
	assert.True(t, isRejection(ErrFileInUse))
	assert.False(t, isRejection(assert.AnError))
}

func TestNudgeCoalesces(t *testing.T) {
	runner := NewRunner(nil, nil, "", 0)
	runner.Nudge()
	runner.Nudge() // must not block with a request already pending
	select {
	case <-runner.nudge:
	default:
		t.Fatal("expected a pending nudge")
	}
}
