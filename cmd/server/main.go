package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/tallyup/internal/auth"
	"github.com/mmynk/tallyup/internal/config"
	"github.com/mmynk/tallyup/internal/observability"
	"github.com/mmynk/tallyup/internal/server"
	"github.com/mmynk/tallyup/internal/storage/sqlite"
	"github.com/mmynk/tallyup/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize SQLite storage (runs migrations)
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	router := server.NewRouter(server.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Store:   store,
		JWT:     auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		Metrics: observability.NewMetrics(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, logger, cfg, router); err != nil {
		logger.Error("Server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
