package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"decode/internal/api"
	"decode/internal/pkg/logger"
	"decode/internal/platform/cache"
	"decode/internal/platform/config"
	"decode/internal/platform/database"
	"decode/migrations"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	if cfg.Session.Secret == "" {
		log.Fatal().Msg("session.secret must be set")
	}

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to global DB")
	}
	defer globalDB.Close()

	if cfg.Server.Development() {
		if err := database.Migrate(globalDB, migrations.Global, "global"); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	orgCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create organization cache")
	}
	if closer, ok := orgCache.(io.Closer); ok {
		defer closer.Close()
	}

	app, err := api.NewApp(cfg, globalDB, orgCache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
