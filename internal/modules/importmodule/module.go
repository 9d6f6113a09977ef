package importmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/config"
	"github.com/mediahubpy/mediahub/internal/logger"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
	"github.com/mediahubpy/mediahub/internal/modules/ocrmodule"
)

const moduleID = "system.import"

// ImportModule owns the video import pipeline and its schedule.
type ImportModule struct {
	db     *gorm.DB
	cfg    *config.Config
	runner *Runner
}

// NewModule creates the import module.
func NewModule(db *gorm.DB, cfg *config.Config) *ImportModule {
	return &ImportModule{db: db, cfg: cfg}
}

// Register adds the module to the global registry.
func Register(db *gorm.DB, cfg *config.Config) *ImportModule {
	m := NewModule(db, cfg)
	modulemanager.Register(m)
	return m
}

func (m *ImportModule) ID() string   { return moduleID }
func (m *ImportModule) Name() string { return "Video Import" }
func (m *ImportModule) Core() bool   { return true }

func (m *ImportModule) Migrate(db *gorm.DB) error { return nil }

// Init wires capabilities from the environment and starts the sweep loop.
// Missing media tools disable their stage rather than failing startup.
func (m *ImportModule) Init() error {
	var probe StreamProbe
	ffprobe, err := NewFFprobeStreamProbe()
	if err != nil {
		return err // the probe gates every import; without it nothing can run
	}
	probe = ffprobe

	var thumbnailer Thumbnailer
	if m.cfg.Import.EnableThumbnail {
		ffmpeg, err := NewFFmpegThumbnailer()
		if err != nil {
			logger.Warn("thumbnailer disabled", "error", err)
		} else {
			thumbnailer = ffmpeg
		}
	}

	var extractor *ocrmodule.Extractor
	if m.cfg.Import.EnableOCR {
		recognizer, err := ocrmodule.NewTesseractRecognizer()
		if err != nil {
			logger.Warn("ocr disabled", "error", err)
		} else {
			extractor = ocrmodule.NewExtractor(recognizer)
		}
	}
	ocrOpts := ocrmodule.Options{
		Language:       m.cfg.OCR.Language,
		LowerThirdOnly: m.cfg.OCR.LowerThirdOnly,
	}

	importer := NewImporter(
		m.db,
		m.cfg.Storage.PublicDir,
		probe,
		thumbnailer,
		extractor,
		ocrOpts,
		m.cfg.Import.MinFreeDiskMB*1024*1024,
	)
	m.runner = NewRunner(m.db, importer, m.cfg.Storage.IncomingDir, m.cfg.Import.Interval)
	m.runner.Start(m.cfg.Import.Watch)
	return nil
}

// Runner exposes the sweep runner.
func (m *ImportModule) Runner() *Runner { return m.runner }

// RegisterRoutes attaches the operational import trigger.
func (m *ImportModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/import/run", func(c *gin.Context) {
		stats := m.runner.Sweep()
		c.JSON(http.StatusOK, stats)
	})
}
