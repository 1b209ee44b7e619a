package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cadastre/internal/config"
	"github.com/JonMunkholm/cadastre/internal/core"
	_ "github.com/JonMunkholm/cadastre/internal/core/tables" // Register all descriptors
	"github.com/JonMunkholm/cadastre/internal/logging"
	"github.com/JonMunkholm/cadastre/internal/service"
	"github.com/JonMunkholm/cadastre/internal/store"
	"github.com/JonMunkholm/cadastre/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"import_batch_size", cfg.Import.BatchSize,
		"import_commit_mode", cfg.Import.CommitMode,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database", "name", db.Name)

	svc, err := service.New(db.Backend, cfg.Import, service.Options{})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("descriptors registered", "count", core.DescriptorCount())
	for _, d := range svc.Descriptors() {
		slog.Debug("descriptor", "order", d.Order, "sheet", d.Sheet, "entity", d.Entity, "depends_on", d.DependsOn())
	}

	server := web.NewServer(svc, cfg, db.Ping)

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := svc.Status(); status.Active > 0 {
			slog.Info("waiting for import to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-idle
	slog.Info("server stopped")
}
