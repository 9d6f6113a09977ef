package stationmodule

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahubpy/mediahub/internal/database"
)

func TestAppendLogTimestampsEntries(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db, nil)

	AppendLog(db, station.ID, "first entry")
	AppendLog(db, station.ID, "second entry")

	var got database.Station
	require.NoError(t, db.First(&got, station.ID).Error)

	lines := strings.Split(got.Log, "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2}T`, lines[0])
	assert.Contains(t, lines[0], "first entry")
	assert.Contains(t, lines[1], "second entry")
}

func TestAppendLogEnforcesCap(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db, nil)

	entry := strings.Repeat("x", 400)
	for i := 0; i < 40; i++ {
		AppendLog(db, station.ID, entry)
	}

	var got database.Station
	require.NoError(t, db.First(&got, station.ID).Error)
	assert.LessOrEqual(t, len(got.Log), MaxLogChars)

	// Every surviving line is a complete entry.
	for _, line := range strings.Split(got.Log, "\n") {
		assert.True(t, strings.HasPrefix(line, "["), "trim must cut at entry boundaries, got %q", line)
	}
}

func TestClearLogIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db, nil)
	AppendLog(db, station.ID, "something")

	require.NoError(t, ClearLog(db, station.ID))
	require.NoError(t, ClearLog(db, station.ID))

	var got database.Station
	require.NoError(t, db.First(&got, station.ID).Error)
	assert.Empty(t, got.Log)
}

func TestTrimLog(t *testing.T) {
	t.Run("under the cap is untouched", func(t *testing.T) {
		log := "[a] one\n[b] two"
		assert.Equal(t, log, trimLog(log, 100))
	})

	t.Run("drops oldest whole entries", func(t *testing.T) {
		log := "[a] one\n[b] two\n[c] three"
		got := trimLog(log, len("[b] two\n[c] three"))
		assert.Equal(t, "[b] two\n[c] three", got)
	})

	t.Run("keeps the tail of a single oversized entry", func(t *testing.T) {
		log := strings.Repeat("z", 50)
		got := trimLog(log, 10)
		assert.Equal(t, strings.Repeat("z", 10), got)
	})

	t.Run("never splits a rune in the oversized tail", func(t *testing.T) {
		// "ñ" is two bytes; an odd cap lands the byte cut mid-rune.
		log := strings.Repeat("ñ", 30)
		got := trimLog(log, 11)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("ñ", 5), got)
		assert.LessOrEqual(t, len(got), 11)
	})
}
