package modulemanager

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// Module defines the interface that all modules must implement
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name for the module
	Core() bool                // Whether this is a core module (cannot be disabled)
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is an optional interface for modules that need to register routes
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules     []Module
	disabled    map[string]bool
	mu          sync.RWMutex
	initialized bool
}

// Registry is the global module registry
var Registry = &ModuleRegistry{
	disabled: make(map[string]bool),
}

// Register adds a module to the global registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}
	r.modules = append(r.modules, m)
	logger.Info("module registered", "module", m.ID(), "name", m.Name())
}

// Disable marks a non-core module as disabled before LoadAll runs.
func (r *ModuleRegistry) Disable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[id] = true
}

// LoadAll migrates and initializes every enabled module in registration order
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes every enabled module in registration order
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	for _, m := range r.modules {
		if r.disabled[m.ID()] && !m.Core() {
			logger.Info("module disabled, skipping", "module", m.ID())
			continue
		}
		if err := m.Migrate(db); err != nil {
			return fmt.Errorf("module %s migration failed: %w", m.ID(), err)
		}
		if err := m.Init(); err != nil {
			return fmt.Errorf("module %s initialization failed: %w", m.ID(), err)
		}
		logger.Info("module initialized", "module", m.ID())
	}

	r.initialized = true
	return nil
}

// RegisterRoutes lets every enabled module that exposes routes attach them
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes lets every enabled module that exposes routes attach them
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if r.disabled[m.ID()] && !m.Core() {
			continue
		}
		if rr, ok := m.(RouteRegistrar); ok {
			rr.RegisterRoutes(router)
		}
	}
}
