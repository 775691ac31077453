package main

import (
	"context"
	"flag"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"decode/internal/engine/organizations"
	"decode/internal/pkg/logger"
	"decode/internal/platform/audit"
	"decode/internal/platform/cache"
	"decode/internal/platform/config"
	"decode/internal/platform/database"
	"decode/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Run a single reconciliation pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	db, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to global DB")
	}
	defer db.Close()

	orgCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create organization cache")
	}
	if closer, ok := orgCache.(io.Closer); ok {
		defer closer.Close()
	}

	orgs := organizations.NewService(db, orgCache, audit.NewLogger(db))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := workers.ReconcileGrants(ctx, orgs); err != nil {
			log.Fatal().Err(err).Msg("reconciliation failed")
		}
		return
	}

	log.Info().Dur("interval", cfg.Workers.ReconcileInterval).Msg("starting feature grant reconciler")
	workers.RunReconciler(ctx, orgs, cfg.Workers.ReconcileInterval)
	log.Info().Msg("worker stopped")
}
