package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/jmelnik/ingestgate/internal/adapters/blobfs"
	"github.com/jmelnik/ingestgate/internal/adapters/sqlite"
	"github.com/jmelnik/ingestgate/internal/app/ports"
	"github.com/jmelnik/ingestgate/internal/app/services"
	"github.com/jmelnik/ingestgate/internal/config"
	"github.com/jmelnik/ingestgate/internal/db"
	"github.com/jmelnik/ingestgate/internal/notify"
	"github.com/jmelnik/ingestgate/internal/server"
	"github.com/jmelnik/ingestgate/internal/server/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	store := sqlite.NewSubscriptionStore(database)
	ledger := services.NewQuotaLedger(store, cfg.Billing.CostPerUnit, log)
	artifacts := blobfs.NewStore(cfg.Storage.DataDir, cfg.Storage.Bucket)

	var notifier ports.Notifier
	if cfg.Downstream.CallbackURL != "" {
		notifier = notify.NewClient(cfg.Downstream.CallbackURL)
	} else {
		slog.Warn("INGESTGATE_CALLBACK_URL not set, downstream notifications disabled")
	}

	svc := services.NewIngestionService(store, ledger, artifacts, notifier, log)

	srv := server.New(log, database.Ping)
	srv.RegisterRouter(routes.NewWebhookRoutes(svc))
	srv.RegisterRouter(routes.NewAdminRoutes(store, cfg.Admin.Token))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("ingestgate listening",
		"addr", addr,
		"bucket", cfg.Storage.Bucket,
		"cost_per_unit", cfg.Billing.CostPerUnit)
	if err := srv.Start(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
