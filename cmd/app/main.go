// File: cmd/app/main.go
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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ocr-pro/internal/config"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/domain/ports/repository"
	ocrAdapters "ocr-pro/internal/infra/adapters/ocr"
	"ocr-pro/internal/infra/api"
	apiv1 "ocr-pro/internal/infra/api/apiv1"
	"ocr-pro/internal/infra/db/memory"
	pg "ocr-pro/internal/infra/db/postgres"
	"ocr-pro/internal/infra/logging"
	"ocr-pro/internal/infra/metrics"
	red "ocr-pro/internal/infra/redis"
	"ocr-pro/internal/infra/sched"
	"ocr-pro/internal/infra/security"
	"ocr-pro/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory store and noop provider when unconfigured)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.OCR.Provider)

	g, gctx := errgroup.WithContext(ctx)

	// ---- Redis (optional) ----
	var redisClient red.RedisClient
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer c.Close()
		redisClient = c
	} else {
		logger.Warn().Msg("redis not configured; history cache, rate limit and cross-instance logout disabled")
	}

	// ---- Record store ----
	var jobs repository.OCRJobRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		jobs = pg.NewOCRJobRepo(pool)
		if redisClient != nil {
			jobs = pg.NewOCRJobRepoCacheDecorator(jobs, redisClient, cfg.Redis.TTL, logger)
		}
		g.Go(func() error { return pg.ReportPoolStats(gctx, pool, 15*time.Second, logger) })
	} else {
		logger.Warn().Msg("database not configured; using in-memory job store")
		jobs = memory.NewOCRJobRepo()
	}

	// ---- Identity ----
	var revocations adapter.RevocationStore = memory.NewRevocationStore()
	var limiter usecase.RateLimiter
	if redisClient != nil {
		revocations = red.NewRevocationStore(redisClient)
		limiter = red.NewRateLimiter(redisClient)
	}
	tokens, err := security.NewTokenService(cfg.Auth.HMACSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, revocations)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}

	// ---- OCR provider ----
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("ocr provider: %w", err)
	}
	logger.Info().Str("provider", provider.Name()).Str("endpoint", cfg.OCR.Endpoint).Msg("ocr provider ready")

	// ---- Use cases ----
	ocrUC := usecase.NewOCRJobUseCase(jobs, provider, tokens, logger)
	historyUC := usecase.NewHistoryUseCase(jobs, limiter, revocations, usecase.HistoryOptions{
		DefaultLimit:     cfg.History.DefaultLimit,
		MaxLimit:         cfg.History.MaxLimit,
		CreateRateLimit:  cfg.History.CreateRateLimit,
		CreateRateWindow: cfg.History.CreateRateWindow,
	}, logger)

	// ---- HTTP ----
	router := api.NewRouter(logger, cfg.Server.AllowedOrigins)
	apiv1.RegisterAPIV1(router, apiv1.NewServer(ocrUC, historyUC, tokens, cfg.Server.RequestTimeout, logger))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// ---- Stale pending reporter ----
	reporter := sched.NewStaleJobReporter(cfg.Scheduler.StaleCheckInterval, cfg.Scheduler.StalePendingAfter, jobs, logger)
	g.Go(func() error { return reporter.Run(gctx) })

	return g.Wait()
}

func newProvider(cfg *config.Config, logger *zerolog.Logger) (adapter.OCRProvider, error) {
	var p adapter.OCRProvider
	switch cfg.OCR.Provider {
	case "noop":
		p = ocrAdapters.NewNoopOCRAdapter()
	default:
		if cfg.OCR.APIKey == "" && cfg.Runtime.Dev {
			logger.Warn().Msg("ocr.api_key empty in dev mode; using noop provider")
			p = ocrAdapters.NewNoopOCRAdapter()
			break
		}
		a, err := ocrAdapters.NewOCRSpaceAdapter(cfg.OCR, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("endpoint", cfg.OCR.Endpoint).Str("api_key", logging.Redact(cfg.OCR.APIKey, cfg.Runtime.Dev)).Msg("ocr.space provider configured")
		p = a
	}
	return ocrAdapters.NewInstrumented(p, cfg.OCR.MaxConcurrent), nil
}
