package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/lockfile"
	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/bootstrap"
	"github.com/Guilhem-Bonnet/episode-owl/internal/buildinfo"
	"github.com/Guilhem-Bonnet/episode-owl/internal/config"
	"github.com/Guilhem-Bonnet/episode-owl/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Fichier de configuration TOML")
	addr := flag.String("addr", "", "Adresse d'écoute (ex: 127.0.0.1:8080)")
	interval := flag.Duration("check-interval", -1, "Intervalle entre deux checks (0 = désactivé)")
	checkOnStart := flag.Bool("check-on-start", false, "Lancer un check dès le démarrage")
	flag.Parse()

	cfg, cfgFile, cfgExists, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	checkEvery := cfg.CheckInterval()
	if *interval >= 0 {
		checkEvery = *interval
	}

	logger, logCloser, err := logging.New(cfg.Logging, os.Stdout, "owl-server")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	defer func() { _ = logCloser.Close() }()
	log.Logger = logger

	logger.Info().
		Interface("build", buildinfo.Current()).
		Str("config", cfgFile).
		Bool("config_found", cfgExists).
		Str("backend", cfg.Storage.Backend).
		Msg("starting")

	// Un seul serveur par data dir; la CLI reste utilisable à côté.
	instance := lockfile.New(filepath.Join(cfg.DataDir, "owl-server.lock"))
	releaseInstance, err := instance.Lock(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Str("lock", instance.Path()).Msg("another owl-server is running")
	}
	defer func() { _ = releaseInstance() }()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap.Open(shutdownCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer func() { _ = env.Close() }()

	// Scheduler: check périodique de toutes les séries suivies.
	scheduler := app.NewCheckScheduler(logger.With().Str("component", "scheduler").Logger(), env.Session, checkEvery)
	scheduler.RunOnStart = *checkOnStart
	go scheduler.Run(shutdownCtx)

	// Exporter: réécrit le fichier de notifications après chaque check / marquage.
	go env.Exporter.Run(shutdownCtx)

	srv := httpapi.NewServer(logger, env.Session, env.Bus)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Dur("check_interval", checkEvery).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
