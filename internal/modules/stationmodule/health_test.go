package stationmodule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediahubpy/mediahub/internal/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "file:" + t.Name() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.Migrate(db), "failed to migrate test database")
	return db
}

func createTestStation(t *testing.T, db *gorm.DB, mutate func(*database.Station)) *database.Station {
	t.Helper()
	station := &database.Station{
		Name:      "station-" + t.Name(),
		Directory: "canal9",
		Active:    true,
	}
	if mutate != nil {
		mutate(station)
	}
	require.NoError(t, db.Create(station).Error)
	return station
}

func TestHealthAt(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-time.Minute)
	expired := now.Add(-10 * time.Minute)

	cases := []struct {
		name      string
		active    bool
		status    string
		heartbeat *time.Time
		want      Health
	}{
		{
			name: "active connected fresh", active: true,
			status: database.StreamConnected, heartbeat: &fresh,
			want: Health{Healthy: true},
		},
		{
			name: "heartbeat expired", active: true,
			status: database.StreamConnected, heartbeat: &expired,
			want: Health{NeedsAttention: true, StaleHeartbeat: true},
		},
		{
			name: "never seen", active: true,
			status: database.StreamConnected, heartbeat: nil,
			want: Health{NeedsAttention: true, StaleHeartbeat: true},
		},
		{
			name: "disconnected", active: true,
			status: database.StreamDisconnected, heartbeat: &fresh,
			want: Health{NeedsAttention: true},
		},
		{
			name: "inactive stations never demand attention", active: false,
			status: database.StreamDisconnected, heartbeat: &expired,
			want: Health{StaleHeartbeat: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			station := &database.Station{
				Active:          tc.active,
				StreamStatus:    tc.status,
				LastHeartbeatAt: tc.heartbeat,
			}
			assert.Equal(t, tc.want, HealthAt(station, now))
		})
	}
}

func TestHealthAtTTLBoundary(t *testing.T) {
	now := time.Now()
	station := &database.Station{
		Active:       true,
		StreamStatus: database.StreamConnected,
	}

	justInside := now.Add(-HeartbeatTTL + time.Second)
	station.LastHeartbeatAt = &justInside
	assert.True(t, HealthAt(station, now).Healthy)

	exactly := now.Add(-HeartbeatTTL)
	station.LastHeartbeatAt = &exactly
	health := HealthAt(station, now)
	assert.False(t, health.Healthy, "a heartbeat exactly at the TTL is stale")
	assert.True(t, health.StaleHeartbeat)
}

func TestTouchRefreshesHeartbeat(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db, func(s *database.Station) {
		s.StreamStatus = database.StreamConnected
	})

	now := time.Now()
	require.NoError(t, Touch(db, station.ID, now))

	var got database.Station
	require.NoError(t, db.First(&got, station.ID).Error)
	require.NotNil(t, got.LastHeartbeatAt)
	assert.WithinDuration(t, now, *got.LastHeartbeatAt, time.Second)
	assert.True(t, HealthAt(&got, now).Healthy)
}

func TestSetStreamStatus(t *testing.T) {
	db := setupTestDB(t)
	station := createTestStation(t, db, nil)

	require.NoError(t, SetStreamStatus(db, station.ID, database.StreamConnected))

	var got database.Station
	require.NoError(t, db.First(&got, station.ID).Error)
	assert.Equal(t, database.StreamConnected, got.StreamStatus)
}
