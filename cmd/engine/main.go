// Package main provides the engine binary that boots a game from its world
// definition and scripts and runs the frame loop until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/engine"
	"github.com/cory-johannsen/adventure/internal/game/dialog"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/observability"
	"github.com/cory-johannsen/adventure/internal/preferences"
	"github.com/cory-johannsen/adventure/internal/savegame"
	"github.com/cory-johannsen/adventure/internal/savestore"
	"github.com/cory-johannsen/adventure/internal/scripting"
	"github.com/cory-johannsen/adventure/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	loadSlot := flag.Int("load", -1, "save slot to restore after boot; -1 = new game")
	saveSlot := flag.Int("save", -1, "save slot written on shutdown; -1 = none")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting engine", zap.String("config", *configPath))

	prefs, err := preferences.Load(cfg.Preferences.Path, cfg.Engine.GameSpeedFactorMax, observability.Subsystem(logger, "preferences"))
	if err != nil {
		logger.Fatal("loading preferences", zap.Error(err))
	}

	catalog := dialog.NewCatalog()
	if cfg.Dialogs.Dir != "" {
		catalog, err = dialog.ScanDir(cfg.Dialogs.Dir)
		if err != nil {
			logger.Fatal("scanning dialogs", zap.Error(err))
		}
	}
	logger.Info("dialog catalog loaded", zap.Int("count", catalog.Len()))

	worldStart := time.Now()
	worldMgr, err := world.LoadFromFile(cfg.World.Path)
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("rooms", len(worldMgr.Rooms())),
		zap.Int("actors", len(worldMgr.Actors())),
		zap.Duration("elapsed", time.Since(worldStart)),
	)

	scriptStart := time.Now()
	host := scripting.NewManager(cfg.Scripts.InstructionLimit, observability.Subsystem(logger, "scripting"))
	defer host.Close()
	if err := host.LoadDir(cfg.Scripts.Root); err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}
	logger.Info("scripts loaded",
		zap.String("root", cfg.Scripts.Root),
		zap.Duration("elapsed", time.Since(scriptStart)),
	)

	store, closeStore := openStore(ctx, cfg.Saves, logger)
	defer closeStore()
	slots := savestore.NewSlots(store, savegame.NewCodec(cfg.Saves.Compress))

	eng := engine.New(engine.Deps{
		Config: cfg.Engine,
		World:  worldMgr,
		Host:   host,
		Prefs:  prefs,
		Oracle: catalog,
		Slots:  slots,
		Logger: observability.Subsystem(logger, "engine"),
	})
	if err := eng.Boot(); err != nil {
		logger.Fatal("booting game", zap.Error(err))
	}
	if *loadSlot >= 0 {
		if err := eng.LoadSlot(ctx, *loadSlot); err != nil {
			logger.Fatal("restoring save", zap.Int("slot", *loadSlot), zap.Error(err))
		}
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("frames", server.NewFrameLoop(cfg.Engine.TickRate, eng.Tick, logger))

	logger.Info("engine initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("tick_rate", cfg.Engine.TickRate),
	)

	runErr := lifecycle.Run(ctx)

	// The frame loop has returned; the engine is owned by this goroutine again.
	if *saveSlot >= 0 {
		if err := eng.SaveSlot(ctx, *saveSlot); err != nil {
			logger.Error("saving on shutdown", zap.Int("slot", *saveSlot), zap.Error(err))
		}
	}
	if err := prefs.Save(); err != nil {
		logger.Error("saving preferences", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("engine error", zap.Error(runErr))
	}
}

// openStore creates the configured slot store and its release function.
func openStore(ctx context.Context, cfg config.SavesConfig, logger *zap.Logger) (savestore.Store, func()) {
	storeLogger := observability.Subsystem(logger, "savestore")
	switch cfg.Backend {
	case "redis":
		rs, err := savestore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix, storeLogger)
		if err != nil {
			logger.Fatal("connecting to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		logger.Info("save store ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return rs, func() {
			if err := rs.Close(); err != nil {
				logger.Warn("closing redis", zap.Error(err))
			}
		}
	default:
		fs, err := savestore.NewFileStore(cfg.Dir, storeLogger)
		if err != nil {
			logger.Fatal("opening save directory", zap.String("dir", cfg.Dir), zap.Error(err))
		}
		logger.Info("save store ready", zap.String("backend", "file"), zap.String("dir", cfg.Dir))
		return fs, func() {}
	}
}
