package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/proposals"
	"github.com/bizdesk/bizdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		if redisClient == nil {
			logger.Error("configure redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)

	// The worker never schedules reprices itself, so the catalog service gets
	// no scheduler.
	catalogRepo := catalog.NewRepository(pool)
	rateCache := catalog.NewRateCache(redisClient, cfg.RateCacheTTL, cfg.CommissionDefaults(), catalogRepo).WithLogger(logger)
	catalogService := catalog.NewService(catalogRepo, rateCache, nil, logger)

	clientService := clients.NewService(clients.NewRepository(pool))
	proposalService := proposals.NewService(proposals.NewRepository(pool), catalogService, clientService, nil, logger)

	repriceJob := jobs.NewCatalogRepriceJob(catalogService, cfg.RepriceConcurrency, logger, metrics)
	expireJob := jobs.NewProposalsExpireJob(proposalService, logger, metrics)

	expireTask, err := jobs.NewProposalsExpireTask("cron")
	if err != nil {
		logger.Error("build expire task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogReprice, Handler: repriceJob.Handle},
			{Type: jobs.TaskProposalsExpire, Handler: expireJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ExpireCron, Task: expireTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("starting worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
