package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clicks-promotions/internal/config"
	"clicks-promotions/internal/domain/ports/adapter"
	"clicks-promotions/internal/domain/ports/repository"
	"clicks-promotions/internal/infra/api"
	pg "clicks-promotions/internal/infra/db/postgres"
	"clicks-promotions/internal/infra/logging"
	"clicks-promotions/internal/infra/metrics"
	"clicks-promotions/internal/infra/qr"
	red "clicks-promotions/internal/infra/redis"
	"clicks-promotions/internal/infra/sched"
	"clicks-promotions/internal/infra/web"
	"clicks-promotions/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, dev admin defaults)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	if cfg.Database.MigrateOnStart {
		if err := pg.RunMigrations(cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	// ---- Repositories ----
	venueRepo := pg.NewVenueRepo(pool)
	promoRepo := pg.NewPromotionRepo(pool)
	claimRepo := pg.NewClaimRepo(pool)
	var txManager repository.TransactionManager = pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var (
		locker  adapter.Locker
		limiter api.Limiter
	)
	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()

		promoRepo = pg.NewPromotionRepoCacheDecorator(promoRepo, redisClient, cfg.Redis.TTL, logger)
		txManager = pg.NewInvalidatingTxManager(txManager, redisClient, logger)
		locker = red.NewLocker(redisClient)
		limiter = red.NewRateLimiter(redisClient)
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("redis enabled: list cache, sweep lock, claim rate limit")
	}

	// ---- Use cases ----
	promoUC := usecase.NewPromotionUseCase(
		venueRepo, promoRepo, claimRepo, txManager,
		qr.NewPNGRenderer(256),
		usecase.PromotionSettings{
			PublicOrigin:    cfg.Promotions.PublicOrigin,
			CodeLength:      cfg.Promotions.CodeLength,
			MaxCodeAttempts: cfg.Promotions.MaxCodeAttempts,
			Retry: usecase.RetryPolicy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
				MaxDelay:    cfg.Retry.MaxDelay,
			},
		},
		logger,
	)
	venueUC := usecase.NewVenueUseCase(venueRepo, logger)

	// ---- Expiry sweeper ----
	worker := sched.NewExpiryWorker(cfg.Promotions.SweepInterval, promoUC, locker, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- HTTP ----
	opts := []api.ServerOption{api.WithHealthCheck(pool.Ping), api.WithDevMode(cfg.Runtime.Dev)}
	if limiter != nil {
		opts = append(opts, api.WithLimiter(limiter, cfg.RateLimit))
	}
	srv := api.NewServer(promoUC, venueUC, web.NewAuthManager(cfg.Admin), cfg.HTTP, logger, opts...)
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	return nil
}
