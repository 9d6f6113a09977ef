package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediahubpy/mediahub/internal/config"
	"github.com/mediahubpy/mediahub/internal/logger"
)

var DB *gorm.DB

// Initialize opens the configured database and migrates the schema.
func Initialize(cfg config.DatabaseConfig) error {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
		})
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return fmt.Errorf("failed to create database directory: %w", mkErr)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
		})
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	DB = db
	logger.Info("database initialized", "type", cfg.Type)
	return nil
}

// Migrate applies the schema to an open connection. Exposed so tests can
// migrate throwaway in-memory databases.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Station{},
		&Video{},
		&Tag{},
		&Topic{},
		&User{},
	)
}

// GetDB returns the process-wide database handle.
func GetDB() *gorm.DB {
	return DB
}
