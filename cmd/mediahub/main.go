package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mediahubpy/mediahub/internal/config"
	"github.com/mediahubpy/mediahub/internal/database"
	"github.com/mediahubpy/mediahub/internal/logger"
	"github.com/mediahubpy/mediahub/internal/modules/analysismodule"
	"github.com/mediahubpy/mediahub/internal/modules/importmodule"
	"github.com/mediahubpy/mediahub/internal/modules/modulemanager"
	"github.com/mediahubpy/mediahub/internal/modules/stationmodule"
	"github.com/mediahubpy/mediahub/internal/modules/tagmodule"
	"github.com/mediahubpy/mediahub/internal/server"
)

func main() {
	configPath := flag.String("config", "mediahub.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.JSON)

	if err := database.Initialize(cfg.Database); err != nil {
		logger.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	db := database.GetDB()

	analysismodule.Register(db)
	tagmodule.Register(db)
	importmodule.Register(db, cfg)
	stationmodule.Register(db, cfg)

	if err := modulemanager.LoadAll(db); err != nil {
		logger.Error("module initialization failed", "error", err)
		os.Exit(1)
	}

	r := server.SetupRouter(cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting mediahub server", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
