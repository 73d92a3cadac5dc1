package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/commissions"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/proposals"
	"github.com/bizdesk/bizdesk/internal/templates"
	"github.com/bizdesk/bizdesk/jobs"
	"github.com/bizdesk/bizdesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("queue inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	pdfClient := report.NewClient(cfg.GotenbergURL)

	catalogRepo := catalog.NewRepository(dbpool)
	rateCache := catalog.NewRateCache(redisClient, cfg.RateCacheTTL, cfg.CommissionDefaults(), catalogRepo).WithLogger(logger)
	catalogService := catalog.NewService(catalogRepo, rateCache, jobClient, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService).WithObserver(metrics)

	clientService := clients.NewService(clients.NewRepository(dbpool))
	clientHandler := clients.NewHandler(logger, clientService)

	templateService := templates.NewService(templates.NewRepository(dbpool))
	templateHandler := templates.NewHandler(logger, templateService)

	proposalService := proposals.NewService(proposals.NewRepository(dbpool), catalogService, clientService, pdfClient, logger).
		WithTemplates(templateService)
	proposalHandler := proposals.NewHandler(logger, proposalService).WithObserver(metrics)

	commissionService := commissions.NewService(commissions.NewRepository(dbpool), proposalService, logger)
	commissionHandler := commissions.NewHandler(logger, commissionService)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		ClientHandler:     clientHandler,
		ProposalHandler:   proposalHandler,
		CommissionHandler: commissionHandler,
		TemplateHandler:   templateHandler,
		ReportHandler:     report.NewHandler(pdfClient, logger),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
