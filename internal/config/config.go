package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Import    ImportConfig    `yaml:"import"`
	OCR       OCRConfig       `yaml:"ocr"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	EnableCORS bool   `yaml:"enable_cors"`
}

// DatabaseConfig selects and parameterizes the database backend
type DatabaseConfig struct {
	Type     string `yaml:"type"` // sqlite or postgres
	Path     string `yaml:"path"` // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// StorageConfig locates the public web root and the recorder drop directory
type StorageConfig struct {
	// PublicDir is the web-served root; canonical video storage lives at
	// PublicDir/videos/<station>/<year>/<month>/<day>/.
	PublicDir string `yaml:"public_dir"`
	// IncomingDir holds freshly recorded files, one subdirectory per
	// station directory name. Files still being written sit under a
	// temp/ subdirectory.
	IncomingDir string `yaml:"incoming_dir"`
}

// ImportConfig tunes the import sweep
type ImportConfig struct {
	Interval        time.Duration `yaml:"interval"`
	Watch           bool          `yaml:"watch"`
	MinFreeDiskMB   uint64        `yaml:"min_free_disk_mb"`
	EnableThumbnail bool          `yaml:"enable_thumbnail"`
	EnableOCR       bool          `yaml:"enable_ocr"`
}

// OCRConfig tunes text extraction from thumbnails
type OCRConfig struct {
	Language       string `yaml:"language"`
	LowerThirdOnly bool   `yaml:"lower_third_only"`
}

// DiscoveryConfig parameterizes stream URL discovery
type DiscoveryConfig struct {
	ProxyHost      string        `yaml:"proxy_host"`
	CaptureLogPath string        `yaml:"capture_log_path"`
	ObserveWindow  time.Duration `yaml:"observe_window"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			EnableCORS: true,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "data/mediahub.db",
			Host: "localhost",
			Port: 5432,
		},
		Storage: StorageConfig{
			PublicDir:   "public",
			IncomingDir: "incoming",
		},
		Import: ImportConfig{
			Interval:        time.Minute,
			Watch:           true,
			MinFreeDiskMB:   512,
			EnableThumbnail: true,
			EnableOCR:       true,
		},
		OCR: OCRConfig{
			Language:       "spa",
			LowerThirdOnly: true,
		},
		Discovery: DiscoveryConfig{
			ProxyHost:      "127.0.0.1:8080",
			CaptureLogPath: "/tmp/mitm_m3u8.log",
			ObserveWindow:  15 * time.Second,
			PageTimeout:    2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional yaml file, then applies
// MEDIAHUB_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "MEDIAHUB_HOST")
	setInt(&c.Server.Port, "MEDIAHUB_PORT")
	setString(&c.Database.Type, "MEDIAHUB_DATABASE_TYPE")
	setString(&c.Database.Path, "MEDIAHUB_SQLITE_PATH")
	setString(&c.Database.Host, "MEDIAHUB_POSTGRES_HOST")
	setInt(&c.Database.Port, "MEDIAHUB_POSTGRES_PORT")
	setString(&c.Database.User, "MEDIAHUB_POSTGRES_USER")
	setString(&c.Database.Password, "MEDIAHUB_POSTGRES_PASSWORD")
	setString(&c.Database.Name, "MEDIAHUB_POSTGRES_DB")
	setString(&c.Storage.PublicDir, "MEDIAHUB_PUBLIC_DIR")
	setString(&c.Storage.IncomingDir, "MEDIAHUB_INCOMING_DIR")
	setDuration(&c.Import.Interval, "MEDIAHUB_IMPORT_INTERVAL")
	setString(&c.OCR.Language, "MEDIAHUB_OCR_LANGUAGE")
	setString(&c.Discovery.ProxyHost, "MEDIAHUB_PROXY_HOST")
	setString(&c.Discovery.CaptureLogPath, "MEDIAHUB_CAPTURE_LOG")
	setString(&c.Logging.Level, "MEDIAHUB_LOG_LEVEL")
}

// PublicPath resolves a path inside the public web root.
func (c *Config) PublicPath(parts ...string) string {
	return filepath.Join(append([]string{c.Storage.PublicDir}, parts...)...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
