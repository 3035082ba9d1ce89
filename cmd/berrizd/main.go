package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/buildinfo"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/config"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpclient"
)

func main() {
	configPath := flag.String("config", os.Getenv("BERRIZ_CONFIG"), "Fichier YAML optionnel")
	addr := flag.String("addr", "", "Adresse d'écoute (surcharge la configuration)")
	dbPath := flag.String("db", "", "Chemin SQLite (surcharge la configuration)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "berrizd").Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	logger.Info().Interface("build", buildinfo.Current()).Str("db", cfg.DBPath).Str("api_base", cfg.APIBase).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	client, err := httpclient.New(httpclient.Options{Timeout: cfg.HTTPTimeout, Fingerprint: cfg.TLSFingerprint})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build http client")
	}

	bus := memorybus.New()
	defer bus.Close()
	cookies := sqlite.NewCookieRepository(db.SQL)

	svc := app.NewService(logger, app.ServiceDeps{
		Settings: sqlite.NewSettingsRepository(db.SQL),
		Cookies:  cookies,
		Bus:      bus,
		Notifier: memorybus.NewNotifier(bus),
	}, app.ServiceOptions{
		APIBase:    cfg.APIBase,
		CacheSize:  cfg.CacheSize,
		CacheTTL:   cfg.CacheTTL,
		MaxFetches: cfg.MaxFetches,
		Client:     client,
	})
	if err := svc.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start service")
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(logger, svc, cookies, bus)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
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
	if err := svc.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("service shutdown incomplete")
	}
	logger.Info().Msg("bye")
}
