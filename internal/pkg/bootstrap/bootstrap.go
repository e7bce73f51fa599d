// internal/pkg/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	"github.com/ammerola/stockledger-be/internal/adapters/storage"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
)

// Logger builds the process logger from the loaded configuration
func Logger(cfg *config.Config, service string) *slog.Logger {
	return logger.Setup(&logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		Output:         "stdout",
		AddSource:      cfg.App.Debug,
		Environment:    cfg.App.Environment,
		ServiceName:    service,
		ServiceVersion: cfg.App.Version,
	})
}

// Database opens the pgx pool. maxConns overrides the configured pool size when positive.
func Database(ctx context.Context, cfg *config.Config, maxConns int32, l *slog.Logger) (*db.Database, error) {
	l.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name))

	dbCfg := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
	if maxConns > 0 {
		dbCfg.MaxConnections = maxConns
		if dbCfg.MinConnections > maxConns {
			dbCfg.MinConnections = maxConns
		}
	}

	database, err := db.NewDatabase(ctx, dbCfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}

// Migrate applies the embedded migrations
func Migrate(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	l.Info("running database migrations")
	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		UseEmbedded: true,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, l, 3)
}

// Redis connects the shared client used by the cache, job store and token revoker
func Redis(ctx context.Context, cfg *config.Config, l *slog.Logger) (*redis.Client, error) {
	l.Info("connecting to Redis", slog.String("addr", cfg.Redis.Addr()))

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// AsynqRedis points asynq at its own logical Redis database
func AsynqRedis(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Asynq.RedisDB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
}

// Storage selects the object store for uploads and reports
func Storage(ctx context.Context, cfg *config.Config, l *slog.Logger) (ports.FileStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		l.Info("using S3 storage", slog.String("bucket", cfg.AWS.S3Bucket))
		s3, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, l)
		if err != nil {
			return nil, err
		}
		return s3, nil
	case "", "local":
		l.Info("using local storage", slog.String("dir", cfg.Storage.LocalDir))
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, l)
		if err != nil {
			return nil, err
		}
		return local, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
