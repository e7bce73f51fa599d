// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	redis_a "github.com/ammerola/stockledger-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/internal/handlers"
	"github.com/ammerola/stockledger-be/internal/pkg/auth"
	"github.com/ammerola/stockledger-be/internal/pkg/bootstrap"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
	"github.com/ammerola/stockledger-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.Setup(&logger.LogConfig{Level: "debug", Format: "json", Output: "stdout"})

	slogger.Info("starting stock ledger API",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = Version
	}

	slogger = bootstrap.Logger(cfg, "stockledger-api")
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := bootstrap.Migrate(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			_ = server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds everything the HTTP server is built from
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	registry       *prometheus.Registry
	router         *handlers.Router
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		_ = d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		_ = d.asynqClient.Close()
	}
	if d.redisClient != nil {
		_ = d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps *dependencies, err error) {
	deps = &dependencies{}
	defer func() {
		if err != nil {
			deps.cleanup()
		}
	}()

	deps.database, err = bootstrap.Database(ctx, cfg, 0, logger)
	if err != nil {
		return nil, err
	}

	deps.redisClient, err = bootstrap.Redis(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := bootstrap.Storage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tokens, err := auth.NewJWTIssuer(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTExpiration)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewBcryptHasher(cfg.Security.BcryptCost)

	logger.Info("initializing Asynq client")
	redisOpt := bootstrap.AsynqRedis(cfg)
	deps.asynqClient = asynq.NewClient(redisOpt)
	deps.asynqInspector = asynq.NewInspector(redisOpt)

	deps.registry = prometheus.NewRegistry()
	deps.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(deps.registry)

	cache := redis_a.NewCache(deps.redisClient, cfg.Redis.TTL, logger)
	jobs := redis_a.NewJobStore(deps.redisClient, 0, logger)
	revoker := redis_a.NewTokenRevoker(deps.redisClient, logger)
	publisher := workers.NewPublisher(deps.asynqClient, cfg.Asynq.RetryMax, logger)

	uow := db.NewUnitOfWork(deps.database, logger)
	users := uow.Repositories().Users

	authService := services.NewAuthService(users, hasher, tokens, revoker, logger)
	saleService := services.NewSaleService(uow, cache, publisher, jobs, m, logger)
	catalogService := services.NewCatalogService(uow, cache, store, publisher, jobs, logger)
	jobService := services.NewJobService(jobs, store, logger)
	adminService := services.NewUserAdminService(users, hasher, logger)

	maxUpload := int64(cfg.Storage.MaxUploadMB) << 20

	deps.router = &handlers.Router{
		Auth:        handlers.NewAuthHandler(authService, logger),
		Sales:       handlers.NewSaleHandler(saleService, jobService, logger),
		Catalog:     handlers.NewCatalogHandler(catalogService, jobService, maxUpload, logger),
		Admin:       handlers.NewAdminHandler(adminService, logger),
		Health:      handlers.NewHealthHandler(deps.database, deps.redisClient, deps.asynqInspector, cache, cfg, logger),
		AuthService: authService,
		Metrics:     m,
		Logger:      logger,
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	handler := deps.router.Handler(handlers.RouterConfig{
		AllowedOrigins:    cfg.Security.AllowedOrigins,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitDuration: cfg.Security.RateLimitDuration,
		RequestTimeout:    cfg.Server.RequestTimeout,
		SecureHeaders:     cfg.Security.SecureHeaders,
		EnableMetrics:     cfg.Server.EnableMetrics,
		Gatherer:          deps.registry,
	})

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
