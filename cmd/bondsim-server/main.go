package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := loadServerConfig()

	logger, err := newLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	engineCfg, err := loadEngineConfig(cfg.ConfigFile)
	if err != nil {
		logger.Fatalf("engine config %s: %v", cfg.ConfigFile, err)
	}
	if cfg.ConfigFile != "" {
		logger.Infof("engine config loaded from %s (mode %s)", cfg.ConfigFile, engineCfg.Mode.Name)
	}

	server := NewServer(engineCfg, logger)
	defer server.Close()
	server.SetAutosave(cfg.AutosavePath, cfg.AutosaveEveryTicks)
	server.tickInterval = time.Duration(cfg.TickIntervalMs) * time.Millisecond

	if cfg.SnapshotFile != "" {
		snap, err := loadSnapshotFile(cfg.SnapshotFile)
		if err != nil {
			logger.Fatalf("snapshot %s: %v", cfg.SnapshotFile, err)
		}
		if err := server.world.Restore(snap); err != nil {
			logger.Fatalf("snapshot %s: %v", cfg.SnapshotFile, err)
		}
		logger.Infof("snapshot restored from %s: tick=%d atoms=%d bonds=%d",
			cfg.SnapshotFile, snap.Tick, len(snap.Atoms), len(snap.Bonds))
	}

	mux := http.NewServeMux()
	server.routes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("bondsim server listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server: %v", err)
	}
	logger.Infof("server shut down")
}
