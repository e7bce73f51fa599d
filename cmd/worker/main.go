// cmd/worker/main.go
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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	redis_a "github.com/ammerola/stockledger-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/internal/pkg/bootstrap"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
	"github.com/ammerola/stockledger-be/internal/workers"
)

func main() {
	slogger := logger.Setup(&logger.LogConfig{Level: "info", Format: "json", Output: "stdout"})

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = bootstrap.Logger(cfg, "stockledger-worker")
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Redis.Addr()))

	if err := run(cfg, slogger); err != nil {
		slogger.Error("worker stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, slogger *slog.Logger) error {
	ctx := context.Background()

	database, err := bootstrap.Database(ctx, cfg, 10, slogger)
	if err != nil {
		return err
	}
	defer database.Close()

	redisClient, err := bootstrap.Redis(ctx, cfg, slogger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store, err := bootstrap.Storage(ctx, cfg, slogger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	redisOpt := bootstrap.AsynqRedis(cfg)
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)
	jobs := redis_a.NewJobStore(redisClient, 0, slogger)
	publisher := workers.NewPublisher(asynqClient, cfg.Asynq.RetryMax, slogger)

	uow := db.NewUnitOfWork(database, slogger)
	saleService := services.NewSaleService(uow, cache, publisher, jobs, m, slogger)
	catalogService := services.NewCatalogService(uow, cache, store, publisher, jobs, slogger)

	mux := workers.NewServeMux(workers.Processors{
		SaleEvents: workers.NewSaleEventProcessor(
			uow.Repositories().Users,
			saleService,
			cache,
			workers.NewNotifier(cfg.Notify, slogger),
			cfg.Inventory.LowStockThreshold,
			slogger,
		),
		Exports: workers.NewExportProcessor(saleService, store, jobs, slogger),
		Imports: workers.NewImportProcessor(catalogService, store, jobs, slogger),
		Cleanup: workers.NewCleanupProcessor(store, cfg.Storage, slogger),
	}, m, slogger)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(errorHandler(slogger)),
		RetryDelayFunc:  workers.ExponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck(slogger),
		Logger:          workers.NewAsynqLogger(slogger),
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   workers.NewAsynqLogger(slogger),
	})
	for _, task := range workers.NewCleanupTasks() {
		entryID, err := scheduler.Register(cfg.Asynq.CleanupCron, task)
		if err != nil {
			return err
		}
		slogger.Info("scheduled periodic task",
			slog.String("type", task.Type()),
			slog.String("cron", cfg.Asynq.CleanupCron),
			slog.String("entry_id", entryID))
	}

	if err := srv.Start(mux); err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return err
	}

	var metricsServer *http.Server
	if cfg.Server.EnableMetrics && cfg.Asynq.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.Asynq.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slogger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	slogger.Info("worker shutdown complete")
	return nil
}

func errorHandler(l *slog.Logger) func(ctx context.Context, task *asynq.Task, err error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		l.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	}
}

func healthCheck(l *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			l.Error("worker health check failed", slog.String("error", err.Error()))
		}
	}
}
